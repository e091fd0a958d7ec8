package domain

import (
	"sort"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCompleted   = "completed"
)

// TodoFields lists the fields a client may write, in display order.
var TodoFields = []string{FieldTitle, FieldDescription, FieldCompleted}

type Todo struct {
	ID          string
	Title       string `validate:"required"`
	Description string
	Completed   bool
}

// TodoPatch holds the raw field values of a partial update. Values are kept
// untyped so the store decides whether they fit the todo schema.
type TodoPatch map[string]any

func IsTodoField(name string) bool {
	for _, field := range TodoFields {
		if field == name {
			return true
		}
	}

	return false
}

// UnknownFields returns the patch keys that are not todo fields, sorted.
func (p TodoPatch) UnknownFields() []string {
	var unknown []string

	for key := range p {
		if !IsTodoField(key) {
			unknown = append(unknown, key)
		}
	}

	sort.Strings(unknown)

	return unknown
}

func (p TodoPatch) IsEmpty() bool {
	return len(p) == 0
}

// ToMap is the document form of a todo without its identifier.
func (t *Todo) ToMap() map[string]any {
	return map[string]any{
		FieldTitle:       t.Title,
		FieldDescription: t.Description,
		FieldCompleted:   t.Completed,
	}
}
