package command

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-verify/core"
)

var validate = validator.New()

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ServiceErrorInternal)
}

func commandConflictError(message string) error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(core.ServiceErrorNoVerificationInProgress)
}

func commandValidationError(fields ...goerrors.FieldError) error {
	return goerrors.NewValidation("command: validation failed", fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ServiceErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

// validateStruct runs the struct tags of msg and folds failures into a single
// validation envelope.
func validateStruct(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return commandValidationError(goerrors.FieldError{Field: "message", Message: err.Error()})
	}
	fields := make([]goerrors.FieldError, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		fields = append(fields, goerrors.FieldError{
			Field:   fieldErr.Field(),
			Message: "failed " + fieldErr.Tag() + " validation",
		})
	}
	return commandValidationError(fields...)
}
