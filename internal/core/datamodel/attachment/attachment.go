package attachment

import (
	"time"

	taskDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/task"
)

type Attachment struct {
	ID          int64               `gorm:"primaryKey"`
	TaskID      int64               `gorm:"column:task_id;not null;index"`
	Task        *taskDatamodel.Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	FileName    string              `gorm:"column:file_name;not null"`
	FilePath    string              `gorm:"column:file_path;not null"`
	ContentType string              `gorm:"column:content_type;not null"`
	SizeBytes   int64               `gorm:"column:size_bytes;not null"`
	UploadedBy  int64               `gorm:"column:uploaded_by;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}
