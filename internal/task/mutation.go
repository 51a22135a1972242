package task

import (
	"strings"

	"github.com/frahmantamala/taktplan/internal"
)

// Field is a task column that a sparse update may assign.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPriority    Field = "priority"
	FieldStatus      Field = "status"
	FieldAssigneeID  Field = "assignee_id"
)

// Assignment sets one column. A nil Value clears the column.
type Assignment struct {
	Field Field
	Value interface{}
}

// Mutation is the ordered set of assignments a partial update applies.
type Mutation []Assignment

func (m Mutation) Has(f Field) bool {
	for _, a := range m {
		if a.Field == f {
			return true
		}
	}
	return false
}

// Columns returns the assignments keyed by column name for the store's update call.
func (m Mutation) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, len(m))
	for _, a := range m {
		cols[string(a.Field)] = a.Value
	}
	return cols
}

// BuildMutation keeps only the fields present in dto, in column order.
// It fails with ErrNoFieldsProvided when nothing was sent.
func BuildMutation(dto UpdateTaskDTO) (Mutation, error) {
	var (
		m    Mutation
		errs []internal.ValidationError
	)

	if dto.Title.Set {
		title := strings.TrimSpace(dto.Title.Value)
		if dto.Title.Null || title == "" {
			errs = append(errs, internal.ValidationError{Field: "title", Message: "title cannot be empty", Code: string(internal.ErrCodeMissingField)})
		} else {
			m = append(m, Assignment{Field: FieldTitle, Value: title})
		}
	}

	if dto.Description.Set {
		m = append(m, Assignment{Field: FieldDescription, Value: nullable(dto.Description.Null, dto.Description.Value)})
	}

	if dto.Priority.Set {
		m = append(m, Assignment{Field: FieldPriority, Value: nullable(dto.Priority.Null, string(dto.Priority.Value))})
	}

	if dto.Status.Set {
		switch {
		case dto.Status.Null:
			errs = append(errs, internal.ValidationError{Field: "status", Message: "status cannot be null", Code: string(internal.ErrCodeInvalidStatus)})
		case !dto.Status.Value.Valid():
			errs = append(errs, internal.ValidationError{Field: "status", Message: "status must be one of in_progress, done, later", Code: string(internal.ErrCodeInvalidStatus)})
		default:
			m = append(m, Assignment{Field: FieldStatus, Value: string(dto.Status.Value)})
		}
	}

	if dto.AssigneeID.Set {
		if !dto.AssigneeID.Null && dto.AssigneeID.Value <= 0 {
			errs = append(errs, internal.ValidationError{Field: "assigneeId", Message: "assigneeId must be a positive integer", Code: string(internal.ErrCodeValidationFailed)})
		} else {
			m = append(m, Assignment{Field: FieldAssigneeID, Value: nullable(dto.AssigneeID.Null, dto.AssigneeID.Value)})
		}
	}

	if len(errs) > 0 {
		return nil, internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: errs})
	}
	if len(m) == 0 {
		return nil, internal.ErrNoFieldsProvided
	}
	return m, nil
}

func nullable[T any](isNull bool, v T) interface{} {
	if isNull {
		return nil
	}
	return v
}
