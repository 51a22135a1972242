package postgres

import (
	"context"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/attachment"
	attachmentDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/attachment"
	"github.com/frahmantamala/taktplan/internal/dberr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) attachment.RepositoryAPI {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, a *attachmentDatamodel.Attachment) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
	if err != nil {
		// the task disappeared between the access check and the insert
		if dberr.IsForeignKeyViolation(err) {
			return internal.ErrTaskNotFound
		}
		return internal.NewInternalError("failed to create attachment", err)
	}
	return nil
}

func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID int64) ([]*attachmentDatamodel.Attachment, error) {
	var rows []*attachmentDatamodel.Attachment
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list attachments", err)
	}
	return rows, nil
}
