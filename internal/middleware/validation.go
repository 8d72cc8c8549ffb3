package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "projectpulse/internal/errors"
	"projectpulse/pkg/contracts/domain"
)

// QueryValidator decodes and validates query parameters.
type QueryValidator struct {
	validator    *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewQueryValidator creates a validator reporting fields by their query
// parameter name.
func NewQueryValidator(errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *QueryValidator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	return &QueryValidator{
		validator:    v,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "query_validator")),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (v *QueryValidator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apperrors.NewValidationErrors(out)
}

// ProjectFilter reads person, client and status from the query string. On
// failure the error response is already written and ok is false.
func (v *QueryValidator) ProjectFilter(w http.ResponseWriter, r *http.Request) (f domain.ProjectFilter, ok bool) {
	q := r.URL.Query()
	f = domain.ProjectFilter{
		Person: strings.TrimSpace(q.Get("person")),
		Client: strings.TrimSpace(q.Get("client")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	if err := v.ValidateStruct(f); err != nil {
		v.logger.DebugContext(r.Context(), "rejected filter", slog.String("error", err.Error()))
		v.errorHandler.HandleError(w, r, err)
		return domain.ProjectFilter{}, false
	}
	return f, true
}

// ValidateEnum validates an enum query parameter
func (v *QueryValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	for _, a := range allowed {
		if value == a {
			return value, true
		}
	}
	v.errorHandler.HandleError(w, r, apperrors.ErrValidation(param,
		fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
