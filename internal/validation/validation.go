// Package validation holds the field rules shared by every intake form:
// custom validator tags, input normalisers and the mapping of validator
// failures to per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/talent-intake-api/internal/models"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const (
	nationalCodeLength = 10
	minPhoneDigits     = 10
)

// New returns a validator with the intake rules registered.
func New() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

// Register installs JSON field naming and the custom tags on v. It is safe to
// call repeatedly.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("national_code", func(fl validator.FieldLevel) bool {
		return IsNationalCode(NormalizeNationalCode(fl.Field().String()))
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return len(NormalizePhone(fl.Field().String())) >= minPhoneDigits
	})
	_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		return models.Gender(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("staff_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsStaff()
	})
	_ = v.RegisterValidation("peer_standing", func(fl validator.FieldLevel) bool {
		return models.PeerStanding(fl.Field().String()).Valid()
	})
}

// NormalizeNationalCode strips surrounding whitespace and rewrites Persian
// and Arabic-Indic digits as ASCII.
func NormalizeNationalCode(raw string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := asciiDigit(r); ok {
			return d
		}
		return r
	}, strings.TrimSpace(raw))
}

// IsNationalCode reports whether code is exactly ten ASCII digits. Callers
// normalise first.
func IsNationalCode(code string) bool {
	if len(code) != nationalCodeLength {
		return false
	}
	return isDigits(code)
}

// NormalizePhone keeps only the digits of raw, as ASCII.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if d, ok := asciiDigit(r); ok {
			b.WriteRune(d)
		}
	}
	return b.String()
}

// asciiDigit maps ASCII, Persian (U+06F0..U+06F9) and Arabic-Indic
// (U+0660..U+0669) digits to '0'..'9'.
func asciiDigit(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r, true
	case r >= '\u06F0' && r <= '\u06F9':
		return '0' + (r - '\u06F0'), true
	case r >= '\u0660' && r <= '\u0669':
		return '0' + (r - '\u0660'), true
	}
	return 0, false
}

// ParseDate parses a validated YYYY-MM-DD value.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

// FieldErrors converts validator failures into per-field messages keyed by
// JSON field name. It returns nil for other errors.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = message(fe)
	}
	return fields
}

// Rules describes the constraint set of every field of a request struct,
// keyed by JSON field name.
func Rules(form interface{}) map[string]string {
	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	rules := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonFieldName(f)
		if name == "" {
			continue
		}
		rules[name] = f.Tag.Get("validate")
	}
	return rules
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "national_code":
		return "national code must be exactly 10 digits"
	case "phone":
		return "enter a valid phone number with at least 10 digits"
	case "gender":
		return "must be one of F, M, O"
	case "staff_role":
		return "must be one of ADMIN, THERAPIST, ASSESSOR"
	case "peer_standing":
		return "must be one of 1 (below peers), 1.5 (at peers), 2 (above peers)"
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "email":
		return "enter a valid email address"
	case "eqfield":
		return "the two password fields didn't match"
	case "min":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func isLengthKind(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Slice || k == reflect.Map
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
