package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"enigma/internal/enigma"
)

// validate is a singleton validator instance
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the field constraints of a description: positive slot
// count, pawls below slots, named and typed rotors, notches exactly on
// moving rotors, and unique rotor names. Wiring is checked by Build.
func (d *Description) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil description", enigma.ErrConfig)
	}
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(d.Rotors))
	for _, r := range d.Rotors {
		key := strings.ToUpper(r.Name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate rotor name %s", enigma.ErrConfig, r.Name)
		}
		seen[key] = true
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", enigma.ErrConfig, err)
	}

	// report the first failure, like the parser does
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Description.")
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", enigma.ErrConfig, field)
	case "required_if":
		return fmt.Errorf("%w: %s: moving rotor has no notches", enigma.ErrConfig, field)
	case "excluded_unless":
		return fmt.Errorf("%w: %s: only moving rotors have notches", enigma.ErrConfig, field)
	case "min":
		return fmt.Errorf("%w: %s must be at least %s", enigma.ErrConfig, field, e.Param())
	case "ltfield":
		return fmt.Errorf("%w: %s must be less than %s", enigma.ErrConfig, field, e.Param())
	case "oneof":
		return fmt.Errorf("%w: %s %q must be one of %s", enigma.ErrConfig, field, e.Value(), e.Param())
	case "excludesall":
		return fmt.Errorf("%w: %s %q cannot contain parentheses", enigma.ErrConfig, field, e.Value())
	default:
		return fmt.Errorf("%w: %s failed %s", enigma.ErrConfig, field, e.Tag())
	}
}
