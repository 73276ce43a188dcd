// Package validate wraps go-playground/validator with the field names and
// messages the API reports back to clients.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

var hexRGB = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error collects every failed field of a struct.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError builds an Error from explicit field/reason pairs.
func NewError(issues ...Issue) *Error {
	return &Error{Issues: issues}
}

// Issues extracts validation issues from err, if it carries any.
func Issues(err error) ([]Issue, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Issues, true
	}
	return nil, false
}

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		if err := v.RegisterValidation("hexrgb", hexColorValidation); err != nil {
			panic(fmt.Sprintf("register hexrgb validator: %v", err))
		}
		instance = v
	})
	return instance
}

func hexColorValidation(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || hexRGB.MatchString(value)
}

// Struct validates v and returns *Error listing each failed field in order.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation error: %w", err)
	}
	issues := make([]Issue, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		issues = append(issues, Issue{Field: fieldErr.Field(), Reason: reason(fieldErr)})
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return &Error{Issues: issues}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "gtfield":
		return "must be greater than " + fe.Param()
	case "hexrgb":
		return "must be a #RRGGBB color"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
