package auth

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// normalized trims the display name. Passwords are kept verbatim so the
// hash matches what the user types at login.
func (in SignUpInput) normalized() SignUpInput {
	in.Name = strings.TrimSpace(in.Name)
	return in
}
