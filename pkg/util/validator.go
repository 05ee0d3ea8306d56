package util

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// fieldMessages are shown to operators instead of raw validator output
var fieldMessages = map[string]string{
	"product_id": "Please select a product",
	"quantity":   "Please enter a valid quantity",
	"user_id":    "Please enter a valid User ID",
}

func init() {
	validate = validator.New()

	// Report json names so messages match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validation tags
	validate.RegisterValidation("userid", validateUserID)
}

// Validate validates a struct using the validator
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// validateUserID accepts a non-empty string of digits
func validateUserID(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 63)
	return err == nil
}

// ParseUserID converts a validated user id to its numeric form
func ParseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return id, nil
}

// ValidationMessage turns a validation error into an operator facing message
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	field := verrs[0].Field()
	if msg, ok := fieldMessages[field]; ok {
		return msg
	}
	return fmt.Sprintf("Field %s failed on %s", field, verrs[0].Tag())
}
