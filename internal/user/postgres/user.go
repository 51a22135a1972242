package postgres

import (
	"context"

	"github.com/frahmantamala/taktplan/internal"
	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
	"github.com/frahmantamala/taktplan/internal/dberr"
	"github.com/frahmantamala/taktplan/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	err := r.db.WithContext(ctx).Select("id", "email", "role", "created_at").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return rows, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Select("id", "email", "role", "created_at").Where("id = ?", id).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewInternalError("failed to get user", err)
	}
	return &row, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role internal.Role) (*userDatamodel.User, error) {
	var updated userDatamodel.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userDatamodel.User{}).Where("id = ?", id).Update("role", string(role))
		if res.Error != nil {
			return internal.NewInternalError("failed to update role", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return tx.Select("id", "email", "role", "created_at").Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
