package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	"github.com/frahmantamala/taktplan/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, caller internal.Caller, id int64) (*User, error)
	ListUsers(ctx context.Context, caller internal.Caller, op auth.Operation) ([]*User, error)
	ChangeRole(ctx context.Context, caller internal.Caller, id int64, dto ChangeRoleDTO) (*User, error)
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

// GetCurrentUser handles GET /api/users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.Logger.Error("GetCurrentUser: caller not found in context")
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	u, err := h.Service.GetByID(r.Context(), caller, caller.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", caller.ID, "error", err)
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, auth.OpListUsers)
}

// AdminListUsers handles GET /api/admin/users
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, auth.OpAdminListUsers)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, op auth.Operation) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	users, err := h.Service.ListUsers(r.Context(), caller, op)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

// ChangeRole handles PUT /api/admin/users/{id}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := internal.CallerFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}
	id, err := h.PathInt64(r, "id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto ChangeRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.ChangeRole(r.Context(), caller, id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}
