package postgres

import (
	"context"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	taskDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/task"
	"github.com/frahmantamala/taktplan/internal/dberr"
	"github.com/frahmantamala/taktplan/internal/task"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.RepositoryAPI {
	return &TaskRepository{db: db}
}

// scope narrows q to the rows the predicate admits; nil leaves q unscoped.
func scope(q *gorm.DB, p *auth.Predicate) *gorm.DB {
	if p == nil {
		return q
	}
	switch p.Relation {
	case auth.RelationAssignee:
		return q.Where("assignee_id = ?", p.UserID)
	case auth.RelationCreator:
		return q.Where("creator_id = ?", p.UserID)
	case auth.RelationCreatorOrAssignee:
		return q.Where("(creator_id = ? OR assignee_id = ?)", p.UserID, p.UserID)
	}
	return q.Where("1 = 0")
}

func (r *TaskRepository) List(ctx context.Context, p *auth.Predicate) ([]*taskDatamodel.Task, error) {
	var rows []*taskDatamodel.Task
	err := scope(r.db.WithContext(ctx), p).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list tasks", err)
	}
	return rows, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64, p *auth.Predicate) (*taskDatamodel.Task, error) {
	var row taskDatamodel.Task
	err := scope(r.db.WithContext(ctx).Where("id = ?", id), p).First(&row).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, internal.ErrTaskNotFound
		}
		return nil, internal.NewInternalError("failed to get task", err)
	}
	return &row, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *taskDatamodel.Task) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
	if err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return internal.ErrReferencedNotFound.WithCause(err)
		}
		return internal.NewInternalError("failed to create task", err)
	}
	return nil
}

// Update applies m to the row matching both id and p inside one transaction and returns the stored row.
func (r *TaskRepository) Update(ctx context.Context, id int64, m task.Mutation, p *auth.Predicate) (*taskDatamodel.Task, error) {
	var updated taskDatamodel.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := scope(tx.Model(&taskDatamodel.Task{}).Where("id = ?", id), p).Updates(m.Columns())
		if res.Error != nil {
			if dberr.IsForeignKeyViolation(res.Error) {
				return internal.ErrReferencedNotFound.WithCause(res.Error)
			}
			return internal.NewInternalError("failed to update task", res.Error)
		}
		if res.RowsAffected == 0 {
			return internal.ErrTaskNotFound
		}
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return internal.NewInternalError("failed to reload task", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64, p *auth.Predicate) error {
	res := scope(r.db.WithContext(ctx).Where("id = ?", id), p).Delete(&taskDatamodel.Task{})
	if res.Error != nil {
		return internal.NewInternalError("failed to delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrTaskNotFound
	}
	return nil
}
