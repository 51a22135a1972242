package user

import "github.com/frahmantamala/taktplan/internal/core/common/validation"

// ChangeRoleDTO is the body of PUT /api/admin/users/{id}/role.
type ChangeRoleDTO struct {
	Role string `json:"role" validate:"required,role"`
}

func (d ChangeRoleDTO) Validate() error {
	return validation.Struct(d)
}
