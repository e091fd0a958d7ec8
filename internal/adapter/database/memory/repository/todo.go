package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lutheralien/to-do-api/internal/core/domain"
)

// TodoRepository keeps todos in process memory. Identifiers are ObjectIDs and
// writes pass the same schema rules as the todos collection validator, so
// handlers observe identical outcomes against either store.
type TodoRepository struct {
	items *cache.Cache
	mutex sync.Mutex
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{
		items: cache.New(cache.NoExpiration, 0),
	}
}

func (tr *TodoRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func parseID(id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", domain.ErrInvalidID
	}

	return oid.Hex(), nil
}

// validateDocument mirrors the $jsonSchema installed on the todos collection.
func validateDocument(doc map[string]any) error {
	if title, ok := doc[domain.FieldTitle].(string); !ok || title == "" {
		return domain.NewValidationError("Document failed validation: title must be a non-empty string")
	}

	if _, ok := doc[domain.FieldDescription].(string); !ok {
		return domain.NewValidationError("Document failed validation: description must be a string")
	}

	if _, ok := doc[domain.FieldCompleted].(bool); !ok {
		return domain.NewValidationError("Document failed validation: completed must be a boolean")
	}

	return nil
}

func (tr *TodoRepository) Insert(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return domain.Todo{}, err
	}

	if err := validateDocument(todo.ToMap()); err != nil {
		return domain.Todo{}, err
	}

	todo.ID = primitive.NewObjectID().Hex()
	tr.items.Set(todo.ID, todo, cache.NoExpiration)

	return todo, nil
}

func (tr *TodoRepository) FindAll(ctx context.Context) ([]domain.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := tr.items.Items()
	todos := make([]domain.Todo, 0, len(items))

	for _, item := range items {
		todos = append(todos, item.Object.(domain.Todo))
	}

	// ObjectIDs lead with their creation time, matching a collection scan.
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].ID < todos[j].ID
	})

	return todos, nil
}

func (tr *TodoRepository) FindByID(ctx context.Context, id string) (domain.Todo, error) {
	key, err := parseID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	item, found := tr.items.Get(key)
	if !found {
		return domain.Todo{}, domain.ErrNotFound
	}

	return item.(domain.Todo), nil
}

func (tr *TodoRepository) UpdateByID(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	key, err := parseID(id)
	if err != nil {
		return domain.Todo{}, err
	}

	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	item, found := tr.items.Get(key)
	if !found {
		return domain.Todo{}, domain.ErrNotFound
	}

	current := item.(domain.Todo)
	doc := current.ToMap()

	for field, value := range patch {
		doc[field] = value
	}

	if err := validateDocument(doc); err != nil {
		return domain.Todo{}, err
	}

	updated := domain.Todo{
		ID:          current.ID,
		Title:       doc[domain.FieldTitle].(string),
		Description: doc[domain.FieldDescription].(string),
		Completed:   doc[domain.FieldCompleted].(bool),
	}

	tr.items.Set(key, updated, cache.NoExpiration)

	return updated, nil
}

func (tr *TodoRepository) DeleteByID(ctx context.Context, id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	tr.mutex.Lock()
	defer tr.mutex.Unlock()

	if _, found := tr.items.Get(key); !found {
		return fmt.Errorf("delete %s: %w", key, domain.ErrNotFound)
	}

	tr.items.Delete(key)

	return nil
}
