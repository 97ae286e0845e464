package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type AttemptInput struct {
	CountryCode string
	PhoneNumber string
	Standalone  bool
	PushToken   string
	Now         time.Time
}

// Attempt is one verification effort for a phone number. Its identity fields
// are fixed at construction; status only changes through TransitionTo and a
// terminal attempt is never reused.
type Attempt struct {
	id          string
	countryCode string
	phoneNumber string
	standalone  bool
	pushToken   string
	createdAt   time.Time

	mu        sync.RWMutex
	status    UserStatus
	pin       string
	updatedAt time.Time
}

// VerificationRequest is the outbound verify payload projected from an
// attempt.
type VerificationRequest struct {
	CountryCode string
	PhoneNumber string
	Standalone  bool
	PushToken   string
}

// AttemptSnapshot is a read-only copy of an attempt.
type AttemptSnapshot struct {
	ID          string
	CountryCode string
	PhoneNumber string
	Standalone  bool
	PushToken   string
	Status      UserStatus
	HasPin      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewAttempt(in AttemptInput) (*Attempt, error) {
	number := strings.TrimSpace(in.PhoneNumber)
	if number == "" {
		return nil, VerifyErrorNumberRequired
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return &Attempt{
		id:          uuid.NewString(),
		countryCode: strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		phoneNumber: number,
		standalone:  in.Standalone,
		pushToken:   strings.TrimSpace(in.PushToken),
		createdAt:   now,
		status:      UserStatusNew,
		updatedAt:   now,
	}, nil
}

func (a *Attempt) ID() string          { return a.id }
func (a *Attempt) CountryCode() string { return a.countryCode }
func (a *Attempt) PhoneNumber() string { return a.phoneNumber }
func (a *Attempt) Standalone() bool    { return a.standalone }
func (a *Attempt) PushToken() string   { return a.pushToken }

func (a *Attempt) Status() UserStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Pin returns the last PIN submitted against this attempt.
func (a *Attempt) Pin() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pin
}

func (a *Attempt) RecordPin(pin string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pin = strings.TrimSpace(pin)
}

// TransitionTo applies the attempt state machine:
//
//	new -> pending
//	new|pending -> verified|failed|expired|blacklisted
//
// Any other request returns ErrInvalidAttemptTransition and leaves the
// attempt untouched.
func (a *Attempt) TransitionTo(status UserStatus) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !attemptTransitionAllowed(a.status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidAttemptTransition, a.status, status)
	}
	a.status = status
	a.updatedAt = time.Now().UTC()
	return nil
}

func attemptTransitionAllowed(current, next UserStatus) bool {
	switch next {
	case UserStatusPending:
		return current == UserStatusNew
	case UserStatusVerified, UserStatusFailed, UserStatusExpired, UserStatusBlacklisted:
		return current == UserStatusNew || current == UserStatusPending
	default:
		return false
	}
}

func (a *Attempt) VerificationRequest() VerificationRequest {
	return VerificationRequest{
		CountryCode: a.countryCode,
		PhoneNumber: a.phoneNumber,
		Standalone:  a.standalone,
		PushToken:   a.pushToken,
	}
}

func (a *Attempt) Snapshot() AttemptSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AttemptSnapshot{
		ID:          a.id,
		CountryCode: a.countryCode,
		PhoneNumber: a.phoneNumber,
		Standalone:  a.standalone,
		PushToken:   a.pushToken,
		Status:      a.status,
		HasPin:      a.pin != "",
		CreatedAt:   a.createdAt,
		UpdatedAt:   a.updatedAt,
	}
}

// Params encodes the request as wire parameters.
func (r VerificationRequest) Params() map[string]string {
	params := map[string]string{
		ParamNumber: r.PhoneNumber,
	}
	if r.CountryCode != "" {
		params[ParamCountryCode] = r.CountryCode
	}
	if r.PushToken != "" {
		params[ParamPushToken] = r.PushToken
	}
	if r.Standalone {
		params[ParamStandalone] = "true"
	}
	return params
}
