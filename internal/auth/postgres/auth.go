package postgres

import (
	"context"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
	"github.com/frahmantamala/taktplan/internal/dberr"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.CredentialStore {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string, role internal.Role) (*auth.Account, error) {
	row := userDatamodel.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         string(role),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, internal.ErrDuplicateEmail.WithCause(err)
		}
		return nil, internal.NewInternalError("failed to create user", err)
	}
	return &auth.Account{ID: row.ID, Email: row.Email, Role: internal.Role(row.Role)}, nil
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to load credentials", err)
	}
	return &auth.Credentials{
		Account:      auth.Account{ID: row.ID, Email: row.Email, Role: internal.Role(row.Role)},
		PasswordHash: row.PasswordHash,
	}, nil
}
