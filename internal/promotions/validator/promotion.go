package validator

import (
	"errors"
	"fmt"
	"keja/pkg/logger"
	"keja/pkg/model"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

func (v ValidationErrors) Fields() map[string]any {
	fields := make(map[string]any, len(v))
	for _, e := range v {
		fields[e.Field] = e.Message
	}
	return fields
}

type PromotionValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPromotionValidator(log *logger.Logger) *PromotionValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("not_blank", notBlank); err != nil {
		log.Fatal("Failed to register 'not_blank' validator",
			"error", err,
		)
	}

	return &PromotionValidator{
		validate: v,
		logger:   log,
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (v *PromotionValidator) ValidateSubmission(submission *model.PromotionSubmission) error {
	if err := v.validate.Struct(submission); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *PromotionValidator) ValidateDecision(decision *model.PromotionDecision) error {
	if err := v.validate.Struct(decision); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *PromotionValidator) ValidateFilter(filter *model.PromotionFilter) error {
	if err := v.validate.Struct(filter); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *PromotionValidator) translate(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var out ValidationErrors
	for _, fe := range validationErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: v.getErrorMessage(fe),
		})
	}
	return out
}

func (v *PromotionValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "not_blank":
		return "must not be blank"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", err.Param())
		}
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
