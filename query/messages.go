package query

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	TypeGetUserStatus  = "verify.query.user_status.get"
	TypeCurrentAttempt = "verify.query.attempt.current"
	TypeListActivity   = "verify.query.activity.list"
)

var validate = validator.New()

type GetUserStatusMessage struct {
	CountryCode string
	PhoneNumber string
}

func (GetUserStatusMessage) Type() string { return TypeGetUserStatus }

func (m GetUserStatusMessage) Validate() error {
	if strings.TrimSpace(m.PhoneNumber) == "" {
		return queryValidationError("phone_number", "phone number is required")
	}
	if err := validate.Var(m.CountryCode, "omitempty,alpha,len=2"); err != nil {
		return queryValidationError("country_code", "country code must be two letters")
	}
	return nil
}

type CurrentAttemptMessage struct{}

func (CurrentAttemptMessage) Type() string { return TypeCurrentAttempt }

func (CurrentAttemptMessage) Validate() error { return nil }

type ListActivityMessage struct {
	AttemptID string
	Event     string
	Page      int
	PerPage   int
}

func (ListActivityMessage) Type() string { return TypeListActivity }

func (m ListActivityMessage) Validate() error {
	if err := validate.Var(m.Page, "gte=0"); err != nil {
		return queryValidationError("page", "page must be >= 0")
	}
	if err := validate.Var(m.PerPage, "gte=0,lte=500"); err != nil {
		return queryValidationError("per_page", "per_page must be between 0 and 500")
	}
	return nil
}
