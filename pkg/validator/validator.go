package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"nardeboun-backend/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	// StyleLabels - canonical and localized lesson video styles
	StyleLabels = map[string]string{
		"note":       "note",
		"book":       "book",
		"sample":     "sample",
		"جزوه":       "note",
		"کتاب درسی":  "book",
		"نمونه سوال": "sample",
	}

	EduLevels = []string{"ابتدایی", "متوسط اول", "متوسط دوم"}
	ExamTypes = []string{"first_term", "second_term", "midterm_1", "midterm_2"}
	PDFKinds  = []string{"step_by_step", "provincial_sample"}
)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("edu_level", oneOf(EduLevels))
	validate.RegisterValidation("exam_type", oneOf(ExamTypes))
	validate.RegisterValidation("pdf_kind", oneOf(PDFKinds))
}

// Validate - validates a struct; field errors come back as a validation AppError
func Validate(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// NormalizeStyle maps a style label to note/book/sample, defaulting to note
func NormalizeStyle(style string) string {
	if canonical, ok := StyleLabels[strings.TrimSpace(style)]; ok {
		return canonical
	}
	return "note"
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
		return false
	}
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return apperror.NewValidationError(strings.Join(messages, "; "))
	}
	return err
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "edu_level":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(EduLevels, ", "))
	case "exam_type":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(ExamTypes, ", "))
	case "pdf_kind":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(PDFKinds, ", "))
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
