package user

import (
	"time"

	"github.com/frahmantamala/taktplan/internal"
	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
)

// User is the listing view of an account: id, email and role only.
type User struct {
	ID        int64         `json:"id"`
	Email     string        `json:"email"`
	Role      internal.Role `json:"role"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (u *User) IsManager() bool {
	return u.Role == internal.RoleManager || u.Role == internal.RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == internal.RoleAdmin
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		Role:      internal.Role(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func FromDataModels(rows []*userDatamodel.User) []*User {
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
