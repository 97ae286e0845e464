package core

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// VerifyError is the domain error kind surfaced to callers. It is decoupled
// from wire result codes; see MapResultCode.
type VerifyError string

const (
	VerifyErrorVerificationAlreadyStarted VerifyError = "verification_already_started"
	VerifyErrorInvalidNumber              VerifyError = "invalid_number"
	VerifyErrorNumberRequired             VerifyError = "number_required"
	VerifyErrorCannotPerformCheck         VerifyError = "cannot_perform_check"
	VerifyErrorInvalidPinCode             VerifyError = "invalid_pin_code"
	VerifyErrorInvalidCodeTooManyTimes    VerifyError = "invalid_code_too_many_times"
	VerifyErrorUserExpired                VerifyError = "user_expired"
	VerifyErrorUserBlacklisted            VerifyError = "user_blacklisted"
	VerifyErrorThrottled                  VerifyError = "throttled"
	VerifyErrorQuotaExceeded              VerifyError = "quota_exceeded"
	VerifyErrorInvalidCredentials         VerifyError = "invalid_credentials"
	VerifyErrorSDKRevisionNotSupported    VerifyError = "sdk_revision_not_supported"
	VerifyErrorOSNotSupported             VerifyError = "os_not_supported"
	VerifyErrorInternal                   VerifyError = "internal_error"
	VerifyErrorAccountBarred              VerifyError = "account_barred"
	VerifyErrorNetwork                    VerifyError = "network_error"
)

var verifyErrorDescriptions = map[VerifyError]string{
	VerifyErrorVerificationAlreadyStarted: "a verification is already in progress",
	VerifyErrorInvalidNumber:              "phone number is invalid or cannot be routed",
	VerifyErrorNumberRequired:             "phone number is required",
	VerifyErrorCannotPerformCheck:         "user must be pending to perform a pin check",
	VerifyErrorInvalidPinCode:             "missing or invalid pin code",
	VerifyErrorInvalidCodeTooManyTimes:    "a wrong pin code was provided too many times",
	VerifyErrorUserExpired:                "verification expired",
	VerifyErrorUserBlacklisted:            "user is blacklisted for verification",
	VerifyErrorThrottled:                  "too many requests",
	VerifyErrorQuotaExceeded:              "account does not have sufficient credit",
	VerifyErrorInvalidCredentials:         "invalid application credentials",
	VerifyErrorSDKRevisionNotSupported:    "sdk revision is no longer supported",
	VerifyErrorOSNotSupported:             "operating system version is not supported",
	VerifyErrorInternal:                   "internal error",
	VerifyErrorAccountBarred:              "account has been barred from sending messages",
	VerifyErrorNetwork:                    "network is unavailable",
}

func (e VerifyError) String() string {
	return string(e)
}

func (e VerifyError) Error() string {
	return "verify: " + e.Description()
}

func (e VerifyError) Description() string {
	if description, ok := verifyErrorDescriptions[e]; ok {
		return description
	}
	return string(e)
}

// TextCode is the stable go-errors text code for the kind, e.g.
// VERIFY_INVALID_PIN_CODE.
func (e VerifyError) TextCode() string {
	kind := strings.TrimSpace(string(e))
	if kind == "" {
		kind = string(VerifyErrorInternal)
	}
	return "VERIFY_" + strings.ToUpper(kind)
}

func (e VerifyError) Category() goerrors.Category {
	switch e {
	case VerifyErrorInvalidNumber,
		VerifyErrorNumberRequired,
		VerifyErrorInvalidPinCode,
		VerifyErrorCannotPerformCheck:
		return goerrors.CategoryBadInput
	case VerifyErrorVerificationAlreadyStarted:
		return goerrors.CategoryConflict
	case VerifyErrorThrottled:
		return goerrors.CategoryRateLimit
	case VerifyErrorInvalidCredentials:
		return goerrors.CategoryAuth
	case VerifyErrorUserBlacklisted, VerifyErrorAccountBarred:
		return goerrors.CategoryAuthz
	case VerifyErrorInvalidCodeTooManyTimes,
		VerifyErrorUserExpired,
		VerifyErrorQuotaExceeded,
		VerifyErrorSDKRevisionNotSupported,
		VerifyErrorOSNotSupported:
		return goerrors.CategoryOperation
	case VerifyErrorNetwork:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

// Err wraps the kind in a go-errors envelope carrying its text code.
func (e VerifyError) Err() *goerrors.Error {
	if _, ok := verifyErrorDescriptions[e]; !ok {
		e = VerifyErrorInternal
	}
	return ensureServiceErrorEnvelope(
		goerrors.New(e.Error(), e.Category()).
			WithTextCode(e.TextCode()).
			WithMetadata(map[string]any{"verify_error": string(e)}),
	)
}

// VerifyErrorFromError recovers the domain kind from an error produced by
// VerifyError.Err or ResultError.
func VerifyErrorFromError(err error) (VerifyError, bool) {
	if err == nil {
		return "", false
	}
	var kind VerifyError
	if errors.As(err, &kind) {
		return kind, true
	}
	var resultErr *ResultError
	if errors.As(err, &resultErr) {
		return resultErr.Kind, true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		code := strings.TrimSpace(richErr.TextCode)
		for candidate := range verifyErrorDescriptions {
			if candidate.TextCode() == code {
				return candidate, true
			}
		}
	}
	return "", false
}

// ResultError reports a non-success wire result code on an operation whose
// completion carries a plain error.
type ResultError struct {
	Code    int
	Message string
	Kind    VerifyError
}

func NewResultError(code int, message string) *ResultError {
	return &ResultError{
		Code:    code,
		Message: strings.TrimSpace(message),
		Kind:    MapResultCode(code),
	}
}

func (e *ResultError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("verify: result code %d (%s): %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("verify: result code %d (%s)", e.Code, e.Kind)
}

func (e *ResultError) ToServiceError() *goerrors.Error {
	if e == nil {
		return nil
	}
	return ensureServiceErrorEnvelope(
		goerrors.New(e.Error(), e.Kind.Category()).
			WithTextCode(e.Kind.TextCode()).
			WithMetadata(map[string]any{
				"verify_error":   string(e.Kind),
				"result_code":    e.Code,
				"result_message": e.Message,
			}),
	)
}
