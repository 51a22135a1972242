package task

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	taskDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/task"
)

type RepositoryAPI interface {
	List(ctx context.Context, p *auth.Predicate) ([]*taskDatamodel.Task, error)
	Get(ctx context.Context, id int64, p *auth.Predicate) (*taskDatamodel.Task, error)
	Create(ctx context.Context, t *taskDatamodel.Task) error
	Update(ctx context.Context, id int64, m Mutation, p *auth.Predicate) (*taskDatamodel.Task, error)
	Delete(ctx context.Context, id int64, p *auth.Predicate) error
}

type Service struct {
	repo   RepositoryAPI
	policy *auth.AccessPolicy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, policy *auth.AccessPolicy, logger *slog.Logger) *Service {
	if policy == nil {
		policy = auth.NewAccessPolicy()
	}
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

func (s *Service) authorize(caller internal.Caller, op auth.Operation) (auth.Decision, error) {
	d := s.policy.Decide(caller, op)
	if !d.Allowed() {
		s.logger.Warn("task operation denied", "user_id", caller.ID, "role", caller.Role, "operation", op)
		return d, internal.ErrInsufficientRole
	}
	return d, nil
}

func (s *Service) ListTasks(ctx context.Context, caller internal.Caller) ([]*Task, error) {
	return s.list(ctx, caller, auth.OpListTasks)
}

// ListMyTasks returns the tasks assigned to the caller regardless of role.
func (s *Service) ListMyTasks(ctx context.Context, caller internal.Caller) ([]*Task, error) {
	return s.list(ctx, caller, auth.OpListOwnTasks)
}

func (s *Service) list(ctx context.Context, caller internal.Caller, op auth.Operation) ([]*Task, error) {
	d, err := s.authorize(caller, op)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, d.Scope())
	if err != nil {
		s.logger.Error("failed to list tasks", "user_id", caller.ID, "operation", op, "error", err)
		return nil, err
	}

	s.logger.Debug("listed tasks", "user_id", caller.ID, "operation", op, "scoped", d.Effect == auth.AllowedScoped, "count", len(rows))
	return FromDataModels(rows), nil
}

func (s *Service) GetTask(ctx context.Context, caller internal.Caller, id int64) (*Task, error) {
	d, err := s.authorize(caller, auth.OpReadTask)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.Get(ctx, id, d.Scope())
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// CheckAccess reports ErrTaskNotFound unless the caller may perform op on task id.
func (s *Service) CheckAccess(ctx context.Context, caller internal.Caller, id int64, op auth.Operation) error {
	d, err := s.authorize(caller, op)
	if err != nil {
		return err
	}
	_, err = s.repo.Get(ctx, id, d.Scope())
	return err
}

func (s *Service) CreateTask(ctx context.Context, caller internal.Caller, dto CreateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.authorize(caller, auth.OpCreateTask); err != nil {
		return nil, err
	}

	status := StatusInProgress
	if dto.Status != nil {
		status = *dto.Status
	}

	t := &Task{
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    dto.Priority,
		Status:      status,
		CreatorID:   caller.ID,
		AssigneeID:  dto.AssigneeID,
	}

	row := ToDataModel(t)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Warn("failed to create task", "user_id", caller.ID, "assignee_id", *dto.AssigneeID, "error", err)
		return nil, err
	}

	s.logger.Info("task created", "task_id", row.ID, "creator_id", row.CreatorID, "assignee_id", *dto.AssigneeID)
	return FromDataModel(row), nil
}

func (s *Service) UpdateTask(ctx context.Context, caller internal.Caller, id int64, dto UpdateTaskDTO) (*Task, error) {
	m, err := BuildMutation(dto)
	if err != nil {
		return nil, err
	}

	d, err := s.authorize(caller, auth.OpUpdateTask)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.Update(ctx, id, m, d.Scope())
	if err != nil {
		s.logger.Warn("failed to update task", "task_id", id, "user_id", caller.ID, "error", err)
		return nil, err
	}

	s.logger.Info("task updated", "task_id", id, "user_id", caller.ID, "fields", len(m))
	return FromDataModel(row), nil
}

func (s *Service) DeleteTask(ctx context.Context, caller internal.Caller, id int64) error {
	d, err := s.authorize(caller, auth.OpDeleteTask)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, d.Scope()); err != nil {
		s.logger.Warn("failed to delete task", "task_id", id, "user_id", caller.ID, "error", err)
		return err
	}

	s.logger.Info("task deleted", "task_id", id, "user_id", caller.ID)
	return nil
}
