package task

import (
	"time"

	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
)

type Task struct {
	ID          int64               `gorm:"primaryKey"`
	Title       string              `gorm:"column:title;not null"`
	Description *string             `gorm:"column:description"`
	Priority    *string             `gorm:"column:priority;type:varchar(255)"`
	Status      string              `gorm:"column:status;type:varchar(32);not null;default:'in_progress'"`
	CreatorID   int64               `gorm:"column:creator_id;not null;index"`
	Creator     *userDatamodel.User `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	AssigneeID  *int64              `gorm:"column:assignee_id;index"`
	Assignee    *userDatamodel.User `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
