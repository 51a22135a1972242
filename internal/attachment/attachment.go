package attachment

import (
	"time"

	attachmentDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/attachment"
)

// allowedTypes maps accepted content types to the extension used on disk.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type Attachment struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"taskId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedBy  int64     `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	FilePath    string    `json:"-"`
}

func ToDataModel(a *Attachment) *attachmentDatamodel.Attachment {
	return &attachmentDatamodel.Attachment{
		ID:          a.ID,
		TaskID:      a.TaskID,
		FileName:    a.FileName,
		FilePath:    a.FilePath,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}

func FromDataModel(a *attachmentDatamodel.Attachment) *Attachment {
	return &Attachment{
		ID:          a.ID,
		TaskID:      a.TaskID,
		FileName:    a.FileName,
		FilePath:    a.FilePath,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		UploadedBy:  a.UploadedBy,
		CreatedAt:   a.CreatedAt,
	}
}
