package imagegen

import (
	"fmt"

	"github.com/clairexuu/SWAG-Golf/internal/entity"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateConfig checks a generation config before any worker is spawned.
// Refine configs are not validated here: their batch size follows the number
// of selected sources, which the request layer bounds separately.
func ValidateConfig(config entity.GenerationConfig) error {
	if err := validate.Struct(config); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("%w: field %s failed %s validation", ErrInvalidConfig, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
