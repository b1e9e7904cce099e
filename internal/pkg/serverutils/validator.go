package serverutils

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateRequest checks a parsed request body against its validate tags.
// The returned validator.ValidationErrors maps to a 400 in the error
// middleware.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
