package core

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"curriculumcore/pkg/domain"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	schoolYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// inputValidator returns the shared validator. Field names in errors use the
// json tag so they match request payloads.
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("schoolyear", func(fl validator.FieldLevel) bool {
			return validSchoolYear(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func validSchoolYear(year string) bool {
	m := schoolYearPattern.FindStringSubmatch(strings.TrimSpace(year))
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// validateInput runs struct validation and reports the first failure as a
// domain.ValidationError.
func validateInput(in any) error {
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.ValidationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return domain.ValidationError{Field: fe.Field(), Reason: describeFieldError(fe)}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be < %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "schoolyear":
		return "must look like 2025-2026"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// checkUserOrder rejects orders in the range reserved for system tabs.
func checkUserOrder(order int) error {
	if order >= domain.ReservedOrderFloor {
		return domain.NewValidationError("order", "values >= %d are reserved for system tabs", domain.ReservedOrderFloor)
	}
	return nil
}
