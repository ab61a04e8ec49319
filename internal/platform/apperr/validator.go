package apperr

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldPath turns "Submission.analysis.modules[0].moduleId" into
// "analysis.modules[0].moduleId".
func FieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// FromValidator converts the result of validator.Struct into a validation
// error naming the first failing field. A nil err yields nil.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		path := FieldPath(fe)
		if fe.Param() != "" {
			return Validation(path, "%s failed %s=%s", path, fe.Tag(), fe.Param())
		}
		return Validation(path, "%s is %s", path, fe.Tag())
	}
	return Validation("", "invalid input: %v", err)
}
