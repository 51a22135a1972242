package auth

import "github.com/frahmantamala/taktplan/internal/core/common/validation"

// RegisterDTO is the body of POST /api/auth/register. Role defaults to employee when omitted.
type RegisterDTO struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,max=72"`
	Role     *string `json:"role" validate:"omitempty,role"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (d RegisterDTO) Validate() error {
	return validation.Struct(d)
}

func (d LoginDTO) Validate() error {
	return validation.Struct(d)
}
