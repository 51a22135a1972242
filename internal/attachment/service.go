package attachment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	attachmentDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/attachment"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const DefaultMaxBytes int64 = 2 << 20

type RepositoryAPI interface {
	Create(ctx context.Context, a *attachmentDatamodel.Attachment) error
	ListByTask(ctx context.Context, taskID int64) ([]*attachmentDatamodel.Attachment, error)
}

// TaskAccess confirms the caller may touch a task before its attachments are read or written.
type TaskAccess interface {
	CheckAccess(ctx context.Context, caller internal.Caller, taskID int64, op auth.Operation) error
}

type Service struct {
	repo     RepositoryAPI
	tasks    TaskAccess
	storage  Storage
	maxBytes int64
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, tasks TaskAccess, storage Storage, maxBytes int64, logger *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		repo:     repo,
		tasks:    tasks,
		storage:  storage,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

func (s *Service) Upload(ctx context.Context, caller internal.Caller, taskID int64, fileName string, r io.Reader) (*Attachment, error) {
	if err := s.tasks.CheckAccess(ctx, caller, taskID, auth.OpUpdateTask); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, internal.NewInternalError("failed to read upload", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, internal.NewValidationError(fmt.Sprintf("file size exceeds the limit of %d bytes", s.maxBytes), internal.ErrCodeFileTooLarge)
	}
	if len(data) == 0 {
		return nil, internal.NewValidationError("file is empty", internal.ErrCodeInvalidFile)
	}

	mime := mimetype.Detect(data)
	contentType := mime.String()
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, internal.NewValidationError("invalid file type, only JPG, PNG and PDF are allowed", internal.ErrCodeInvalidFile)
	}

	path, err := s.storage.Save(ctx, uuid.NewString()+ext, data)
	if err != nil {
		return nil, internal.NewInternalError("failed to store upload", err)
	}

	a := &Attachment{
		TaskID:      taskID,
		FileName:    filepath.Base(fileName),
		FilePath:    path,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedBy:  caller.ID,
	}
	row := ToDataModel(a)
	if err := s.repo.Create(ctx, row); err != nil {
		if rmErr := s.storage.Remove(ctx, path); rmErr != nil {
			s.logger.Error("failed to remove orphaned upload", "path", path, "error", rmErr)
		}
		return nil, err
	}

	s.logger.Info("attachment stored", "task_id", taskID, "attachment_id", row.ID, "content_type", contentType, "size", row.SizeBytes)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, caller internal.Caller, taskID int64) ([]*Attachment, error) {
	if err := s.tasks.CheckAccess(ctx, caller, taskID, auth.OpReadTask); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	out := make([]*Attachment, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}
