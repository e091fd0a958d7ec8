package request

import (
	"strings"

	"github.com/lutheralien/to-do-api/internal/core/domain"
)

const (
	MsgMissingFields = "Missing required fields. Required fields are: title, description"
	MsgStringFields  = "Title and description must be strings"
	MsgBooleanField  = "Completed status must be a boolean"
	MsgNoFields      = "No fields to update"
	msgUnknownFields = "Unknown fields: %s. Allowed fields are: %s"
	fieldSeparator   = ", "
)

type CreateTodoRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func (r CreateTodoRequest) ToDomain() domain.Todo {
	return domain.Todo{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

// ParseCreateTodo maps a decoded JSON object onto a create request. Keys other
// than title, description and completed are dropped.
func ParseCreateTodo(body map[string]any) (CreateTodoRequest, error) {
	_, hasTitle := body[domain.FieldTitle]
	_, hasDescription := body[domain.FieldDescription]

	if !hasTitle || !hasDescription {
		return CreateTodoRequest{}, domain.NewInputError(MsgMissingFields)
	}

	title, titleOK := body[domain.FieldTitle].(string)
	description, descriptionOK := body[domain.FieldDescription].(string)

	if !titleOK || !descriptionOK {
		return CreateTodoRequest{}, domain.NewInputError(MsgStringFields)
	}

	req := CreateTodoRequest{
		Title:       title,
		Description: description,
	}

	if raw, ok := body[domain.FieldCompleted]; ok {
		completed, isBool := raw.(bool)
		if !isBool {
			return CreateTodoRequest{}, domain.NewInputError(MsgBooleanField)
		}

		req.Completed = completed
	}

	return req, nil
}

// ParseUpdateTodo turns a decoded JSON object into a patch. Unknown keys are
// refused; value types are left for the store's schema to judge.
func ParseUpdateTodo(body map[string]any) (domain.TodoPatch, error) {
	patch := domain.TodoPatch(body)

	if patch.IsEmpty() {
		return nil, domain.NewInputError(MsgNoFields)
	}

	if unknown := patch.UnknownFields(); len(unknown) > 0 {
		return nil, domain.NewInputError(msgUnknownFields,
			strings.Join(unknown, fieldSeparator),
			strings.Join(domain.TodoFields, fieldSeparator))
	}

	return patch, nil
}
