package service

import (
	"errors"
	"fmt"
	"marketplace-checkout/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct turns the first failed field into a Validation error.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return apperr.Validation(fmt.Sprintf("%s is required", fe.Field()))
		default:
			return apperr.Validation(fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return apperr.Wrap(apperr.KindValidation, err, "Invalid request")
}
