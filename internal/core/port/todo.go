package port

import (
	"context"

	"github.com/lutheralien/to-do-api/internal/core/domain"
)

// TodoRepository is the document store capability set. Implementations
// report domain.ErrInvalidID for malformed identifiers, domain.ErrNotFound
// for missing documents and *domain.ValidationError for schema rejections.
type TodoRepository interface {
	Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	FindAll(ctx context.Context) ([]domain.Todo, error)
	FindByID(ctx context.Context, id string) (domain.Todo, error)
	UpdateByID(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error)
	DeleteByID(ctx context.Context, id string) error
}

type TodoService interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error)
	Delete(ctx context.Context, id string) error
}
