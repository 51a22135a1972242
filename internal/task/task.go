package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	taskDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/task"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusLater      Status = "later"
)

// Statuses lists the board lanes in display order.
var Statuses = []Status{StatusInProgress, StatusDone, StatusLater}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusDone, StatusLater:
		return true
	}
	return false
}

// Priority is a free-form label. Clients may send it as a JSON string or a small integer.
type Priority string

func (p *Priority) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Priority(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("priority must be a string or a number")
	}
	*p = Priority(n.String())
	return nil
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority"`
	Status      Status    `json:"status"`
	CreatorID   int64     `json:"creatorId"`
	AssigneeID  *int64    `json:"assigneeId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func ToDataModel(t *Task) *taskDatamodel.Task {
	var priority *string
	if t.Priority != nil {
		p := string(*t.Priority)
		priority = &p
	}
	return &taskDatamodel.Task{
		ID:          t.ID,
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		Priority:    priority,
		Status:      string(t.Status),
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModel(t *taskDatamodel.Task) *Task {
	var priority *Priority
	if t.Priority != nil {
		p := Priority(*t.Priority)
		priority = &p
	}
	return &Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    priority,
		Status:      Status(t.Status),
		CreatorID:   t.CreatorID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModels(rows []*taskDatamodel.Task) []*Task {
	out := make([]*Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
