package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
)

var (
	once     sync.Once
	validate *validator.Validate

	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
	clockPattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	weekLabelTest = func(s string) bool { _, err := isoweek.Parse(s); return err == nil }
)

// Validator returns the shared validator with the mealvote tags registered:
// slug, hhmm and isoweek. Field names in errors follow json tags.
func Validator() *validator.Validate {
	once.Do(func() {
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
		mustRegister(v, "slug", func(fl validator.FieldLevel) bool { return slugPattern.MatchString(fl.Field().String()) })
		mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool { return clockPattern.MatchString(fl.Field().String()) })
		mustRegister(v, "isoweek", func(fl validator.FieldLevel) bool { return weekLabelTest(fl.Field().String()) })
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

// Struct validates s and converts failures into an apperrors validation error keyed by field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := apperrors.FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fieldPath(fe), message(fe))
	}
	return apperrors.Validation(fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date formatted " + fe.Param()
	case "slug":
		return "must be a lowercase slug"
	case "hhmm":
		return "must be a 24h time formatted HH:MM"
	case "isoweek":
		return "must be an ISO week label formatted YYYY-Www"
	case "timezone":
		return "must be an IANA time zone"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
