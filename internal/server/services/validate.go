package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sidhlee/task-manager-api/internal/common"
	"github.com/sidhlee/task-manager-api/internal/cryptox"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("nopassword", func(fl validator.FieldLevel) bool {
		return !strings.Contains(strings.ToLower(fl.Field().String()), "password")
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= cryptox.MaxPasswordBytes
	}); err != nil {
		panic(err)
	}
	return v
}

// validationMessages maps "field.tag" or "tag" to a client-facing message.
var validationMessages = map[string]string{
	"email.required":       "Email is required",
	"email.email":          "Email is invalid",
	"name.required":        "Name is required",
	"age.gte":              "Age must be a positive number",
	"password.required":    "Password is required",
	"password.min":         "Password must be at least 6 characters",
	"password.bcryptmax":   "Password must be at most 72 bytes",
	"password.nopassword":  `Password cannot contain "password"`,
	"description.required": "Description is required",
	"required":             "is required",
}

// validateStruct runs validator tags on v, skipping the except fields, and
// converts failures into *common.ValidationError.
func validateStruct(v any, except ...string) error {
	var err error
	if len(except) > 0 {
		err = validate.StructExcept(v, except...)
	} else {
		err = validate.Struct(v)
	}
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation setup error: %w", err)
	}

	out := &common.ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), validationMessage(fe.Field(), fe.Tag()))
	}
	return out
}

func validationMessage(field, tag string) string {
	if msg, ok := validationMessages[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "is invalid"
}

// checkAllowedUpdates rejects a patch naming any key outside allowed.
func checkAllowedUpdates(patch map[string]json.RawMessage, allowed ...string) error {
	for key := range patch {
		if !slices.Contains(allowed, key) {
			return common.ErrorInvalidUpdates
		}
	}
	return nil
}

// decodePatch unmarshals the patch entry for field into dst. Type mismatches
// and explicit nulls become validation errors on that field.
func decodePatch(patch map[string]json.RawMessage, field string, dst any) (bool, error) {
	raw, ok := patch[field]
	if !ok {
		return false, nil
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return false, common.NewValidationError(field, "must not be null")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, common.NewValidationError(field, "has the wrong type")
	}
	return true, nil
}

