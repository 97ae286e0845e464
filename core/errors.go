package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput                 = "VERIFY_BAD_INPUT"
	ServiceErrorNoVerificationInProgress = "VERIFY_NO_VERIFICATION_IN_PROGRESS"
	ServiceErrorDeviceProperties         = "VERIFY_DEVICE_PROPERTIES_UNAVAILABLE"
	ServiceErrorUnauthorized             = "VERIFY_UNAUTHORIZED"
	ServiceErrorRateLimited              = "VERIFY_RATE_LIMITED"
	ServiceErrorSignatureInvalid         = "VERIFY_SIGNATURE_INVALID"
	ServiceErrorNetwork                  = "VERIFY_NETWORK_ERROR"
	ServiceErrorExternalFailure          = "VERIFY_EXTERNAL_FAILURE"
	ServiceErrorInternal                 = "VERIFY_INTERNAL_ERROR"
)

var (
	ErrNoVerificationInProgress = errors.New("core: no verification attempt in progress")
	ErrDeviceIdentifierMissing  = errors.New("core: failed to collect device identifier")
	ErrSourceIPAddressMissing   = errors.New("core: failed to collect source ip address")
	ErrGatewayRequired          = errors.New("core: gateway is required")
	ErrDevicePropertiesRequired = errors.New("core: device properties are required")
	ErrInvalidAttemptTransition = errors.New("core: invalid verification attempt transition")
)

// IsNetworkError reports whether err is a transport failure caused by the
// network rather than by the request or the remote service.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && strings.TrimSpace(richErr.TextCode) == ServiceErrorNetwork {
		return true
	}
	var kind VerifyError
	return errors.As(err, &kind) && kind == VerifyErrorNetwork
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}
	var resultErr *ResultError
	if errors.As(err, &resultErr) {
		return resultErr.ToServiceError()
	}
	var kind VerifyError
	if errors.As(err, &kind) {
		return kind.Err()
	}

	switch {
	case errors.Is(err, ErrNoVerificationInProgress):
		return wrapServiceError(err, goerrors.CategoryConflict, ServiceErrorNoVerificationInProgress)
	case errors.Is(err, ErrDeviceIdentifierMissing), errors.Is(err, ErrSourceIPAddressMissing):
		return wrapServiceError(err, goerrors.CategoryInternal, ServiceErrorDeviceProperties)
	case errors.Is(err, ErrGatewayRequired), errors.Is(err, ErrDevicePropertiesRequired):
		return wrapServiceError(err, goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newServiceError(err.Error(), goerrors.CategoryRateLimit, ServiceErrorRateLimited)
	case strings.Contains(msg, "signature"):
		return newServiceError(err.Error(), goerrors.CategoryAuth, ServiceErrorSignatureInvalid)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// wrapServiceError keeps err as the source so errors.Is still matches the
// sentinel.
func wrapServiceError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ServiceErrorUnauthorized
	case goerrors.CategoryRateLimit:
		return ServiceErrorRateLimited
	case goerrors.CategoryExternal:
		return ServiceErrorExternalFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
