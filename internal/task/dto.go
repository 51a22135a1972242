package task

import (
	"encoding/json"

	"github.com/frahmantamala/taktplan/internal/core/common/validation"
)

// Optional tells an absent JSON field apart from an explicit null.
// Absent leaves the column unchanged; null clears it.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

type CreateTaskDTO struct {
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority" validate:"omitempty,max=255"`
	Status      *Status   `json:"status" validate:"omitempty,oneof=in_progress done later"`
	AssigneeID  *int64    `json:"assigneeId" validate:"required,gt=0"`
}

func (d CreateTaskDTO) Validate() error {
	return validation.Struct(d)
}

// UpdateTaskDTO is the sparse body of PUT /api/tasks/{id}.
type UpdateTaskDTO struct {
	Title       Optional[string]   `json:"title"`
	Description Optional[string]   `json:"description"`
	Priority    Optional[Priority] `json:"priority"`
	Status      Optional[Status]   `json:"status"`
	AssigneeID  Optional[int64]    `json:"assigneeId"`
}

// MarshalJSON emits only the fields that are set, so a client can send the
// same sparse body the server expects.
func (d UpdateTaskDTO) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 5)
	putOptional(body, "title", d.Title)
	putOptional(body, "description", d.Description)
	putOptional(body, "priority", d.Priority)
	putOptional(body, "status", d.Status)
	putOptional(body, "assigneeId", d.AssigneeID)
	return json.Marshal(body)
}

func putOptional[T any](body map[string]any, key string, o Optional[T]) {
	if o.Set {
		body[key] = o
	}
}
