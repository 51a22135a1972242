package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
)

type Repository interface {
	List(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	UpdateRole(ctx context.Context, id int64, role internal.Role) (*userDatamodel.User, error)
}

type Service struct {
	repo   Repository
	policy *auth.AccessPolicy
	logger *slog.Logger
}

func NewService(repo Repository, policy *auth.AccessPolicy, logger *slog.Logger) *Service {
	if policy == nil {
		policy = auth.NewAccessPolicy()
	}
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, caller internal.Caller, id int64) (*User, error) {
	if !s.policy.Decide(caller, auth.OpReadSelf).Allowed() {
		return nil, internal.ErrInsufficientRole
	}
	if id != caller.ID && !s.policy.Decide(caller, auth.OpListUsers).Allowed() {
		return nil, internal.ErrUserNotFound
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// ListUsers serves both the manager listing and the admin listing; op selects which rule applies.
func (s *Service) ListUsers(ctx context.Context, caller internal.Caller, op auth.Operation) ([]*User, error) {
	if !s.policy.Decide(caller, op).Allowed() {
		s.logger.Warn("user listing denied", "user_id", caller.ID, "role", caller.Role, "operation", op)
		return nil, internal.ErrInsufficientRole
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return FromDataModels(rows), nil
}

func (s *Service) ChangeRole(ctx context.Context, caller internal.Caller, id int64, dto ChangeRoleDTO) (*User, error) {
	if !s.policy.Decide(caller, auth.OpChangeUserRole).Allowed() {
		s.logger.Warn("role change denied", "user_id", caller.ID, "role", caller.Role, "target_id", id)
		return nil, internal.ErrInsufficientRole
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.UpdateRole(ctx, id, internal.Role(dto.Role))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "admin_id", caller.ID, "target_id", id, "role", dto.Role)
	return FromDataModel(row), nil
}
