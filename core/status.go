package core

import "strings"

type UserStatus string

const (
	UserStatusNew         UserStatus = "new"
	UserStatusPending     UserStatus = "pending"
	UserStatusVerified    UserStatus = "verified"
	UserStatusFailed      UserStatus = "failed"
	UserStatusExpired     UserStatus = "expired"
	UserStatusBlacklisted UserStatus = "blacklisted"
	UserStatusUnverified  UserStatus = "unverified"
	UserStatusUnknown     UserStatus = "unknown"
)

// ParseUserStatus maps a wire status string to a UserStatus. Values the
// service may add later resolve to unknown.
func ParseUserStatus(value string) UserStatus {
	switch status := UserStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case UserStatusNew,
		UserStatusPending,
		UserStatusVerified,
		UserStatusFailed,
		UserStatusExpired,
		UserStatusBlacklisted,
		UserStatusUnverified,
		UserStatusUnknown:
		return status
	default:
		return UserStatusUnknown
	}
}

func (s UserStatus) String() string {
	return string(s)
}

// Terminal reports whether an attempt in this status can no longer change.
func (s UserStatus) Terminal() bool {
	switch s {
	case UserStatusVerified, UserStatusFailed, UserStatusExpired, UserStatusBlacklisted:
		return true
	default:
		return false
	}
}
