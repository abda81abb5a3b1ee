package common

import (
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags on v and returns a VALIDATION_FAILED AppError
// listing the offending fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("VALIDATION_FAILED", "invalid payload", http.StatusBadRequest, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	appErr := NewAppError("VALIDATION_FAILED", "invalid payload", http.StatusBadRequest, nil)
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}
