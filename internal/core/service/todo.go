package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lutheralien/to-do-api/internal/core/domain"
	"github.com/lutheralien/to-do-api/internal/core/port"
	tel "github.com/lutheralien/to-do-api/internal/core/telemetry"
)

const serviceName = "todo"

type TodoService struct {
	repo      port.TodoRepository
	telemetry port.Telemetry
}

func NewTodoService(repo port.TodoRepository, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{
		repo:      repo,
		telemetry: telemetry,
	}
}

// observe wraps a single store call in a service span and records its outcome.
func (ts *TodoService) observe(ctx context.Context, operation string, attrs map[string]interface{}, fn func(context.Context) error) error {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, operation, attrs)
	defer span.End()

	startTime := time.Now()
	err := fn(ctx)

	ts.telemetry.RecordServiceOperation(ctx, serviceName, operation, time.Since(startTime), err)

	if err != nil && !isClientError(err) {
		ts.telemetry.RecordError(ctx, serviceName+"."+operation, err, attrs)
	}

	return err
}

// isClientError reports failures caused by the request rather than the store.
func isClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrValidation)
}

func (ts *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	var todos []domain.Todo

	err := ts.observe(ctx, "list", nil, func(ctx context.Context) error {
		rows, err := ts.repo.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("listing todos: %w", err)
		}

		todos = rows
		return nil
	})

	if todos == nil {
		todos = []domain.Todo{}
	}

	return todos, err
}

func (ts *TodoService) Get(ctx context.Context, id string) (domain.Todo, error) {
	var todo domain.Todo

	err := ts.observe(ctx, "get", map[string]interface{}{"todo.id": id}, func(ctx context.Context) error {
		found, err := ts.repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("getting todo %q: %w", id, err)
		}

		todo = found
		return nil
	})

	return todo, err
}

func (ts *TodoService) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	newTodo := domain.Todo{
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
	}

	var created domain.Todo

	err := ts.observe(ctx, "create", map[string]interface{}{"todo.title": todo.Title}, func(ctx context.Context) error {
		stored, err := ts.repo.Insert(ctx, newTodo)
		if err != nil {
			return fmt.Errorf("creating todo: %w", err)
		}

		created = stored
		return nil
	})

	if err != nil {
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "todo.created", "todo", created.ID, map[string]interface{}{
		"completed": created.Completed,
	})

	return created, nil
}

func (ts *TodoService) Update(ctx context.Context, id string, patch domain.TodoPatch) (domain.Todo, error) {
	var updated domain.Todo

	err := ts.observe(ctx, "update", map[string]interface{}{"todo.id": id, "patch.fields": len(patch)}, func(ctx context.Context) error {
		stored, err := ts.repo.UpdateByID(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("updating todo %q: %w", id, err)
		}

		updated = stored
		return nil
	})

	if err != nil {
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "todo.updated", "todo", updated.ID, nil)

	return updated, nil
}

func (ts *TodoService) Delete(ctx context.Context, id string) error {
	err := ts.observe(ctx, "delete", map[string]interface{}{"todo.id": id}, func(ctx context.Context) error {
		if err := ts.repo.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("deleting todo %q: %w", id, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "todo.deleted", "todo", id, nil)

	return nil
}
