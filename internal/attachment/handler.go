package attachment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/transport"
)

// multipart framing allowance on top of the file limit
const formOverheadBytes = 64 << 10

type ServiceAPI interface {
	Upload(ctx context.Context, caller internal.Caller, taskID int64, fileName string, r io.Reader) (*Attachment, error)
	List(ctx context.Context, caller internal.Caller, taskID int64) ([]*Attachment, error)
	MaxBytes() int64
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Upload handles POST /api/tasks/{id}/attachments
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}
	taskID, err := h.PathInt64(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	limit := h.Service.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverheadBytes)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteAppError(w, r, internal.NewValidationError("file size exceeds the upload limit", internal.ErrCodeFileTooLarge))
			return
		}
		h.WriteAppError(w, r, internal.NewValidationError("expected multipart form with a file field", internal.ErrCodeInvalidFile).WithCause(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteAppError(w, r, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeMissingField))
		return
	}
	defer file.Close()

	a, err := h.Service.Upload(r.Context(), caller, taskID, header.Filename, file)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

// List handles GET /api/tasks/{id}/attachments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}
	taskID, err := h.PathInt64(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	items, err := h.Service.List(r.Context(), caller, taskID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, items)
}
