package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	. "github.com/lutheralien/to-do-api/internal/adapter/http/helper"
	. "github.com/lutheralien/to-do-api/internal/adapter/http/validation"
	"github.com/lutheralien/to-do-api/internal/core/domain"
	"github.com/lutheralien/to-do-api/internal/core/model/request"
	"github.com/lutheralien/to-do-api/internal/core/model/response"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/util"
	"github.com/lutheralien/to-do-api/pkg/config"
	. "github.com/lutheralien/to-do-api/pkg/tracing"
)

const (
	MsgTodoCreated     = "Todo created successfully"
	MsgTodosRetrieved  = "%d todos retrieved successfully"
	MsgTodoRetrieved   = "Todo retrieved successfully"
	MsgTodoUpdated     = "Todo updated successfully"
	MsgTodoDeleted     = "Todo deleted successfully"
	MsgTodoNotFound    = "Todo not found"
	MsgInvalidTodoID   = "Invalid todo ID"
	MsgRequestNotJSON  = "Request must be JSON"
	MsgBodyNotAnObject = "Request body must be a valid JSON object"
)

type TodoHandler struct {
	svc    port.TodoService
	Logger *config.LokiLogger
}

func NewTodoHandler(todoService port.TodoService, logger *config.LokiLogger) *TodoHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &TodoHandler{
		svc:    todoService,
		Logger: logger,
	}
}

func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.todo.GetAllTodos", []attribute.KeyValue{
		attribute.String("handler.operation", "GetAllTodos"),
		attribute.String("handler.method", c.Request.Method),
		attribute.String("handler.path", c.FullPath()),
	})
	defer span.End()

	todos, err := t.svc.List(ctx)
	if err != nil {
		AddSpanError(span, err)
		t.handleError(c, ctx, "GetAllTodos", err)
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))

	SendSuccess(c, http.StatusOK, response.NewTodoListResponse(todos), fmt.Sprintf(MsgTodosRetrieved, len(todos)))
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	ctx := c.Request.Context()

	todo, err := t.svc.Get(ctx, c.Param("id"))
	if err != nil {
		t.handleError(c, ctx, "GetTodo", err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo), MsgTodoRetrieved)
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	ctx := c.Request.Context()

	body, ok := t.readObject(c)
	if !ok {
		return
	}

	params, err := request.ParseCreateTodo(body)
	if err != nil {
		t.handleError(c, ctx, "CreateTodo", err)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	todo, err := t.svc.Create(ctx, params.ToDomain())
	if err != nil {
		t.handleError(c, ctx, "CreateTodo", err)
		return
	}

	SendSuccess(c, http.StatusCreated, response.NewTodoResponse(todo), MsgTodoCreated)
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	ctx := c.Request.Context()

	body, ok := t.readObject(c)
	if !ok {
		return
	}

	patch, err := request.ParseUpdateTodo(body)
	if err != nil {
		t.handleError(c, ctx, "UpdateTodo", err)
		return
	}

	todo, err := t.svc.Update(ctx, c.Param("id"), patch)
	if err != nil {
		t.handleError(c, ctx, "UpdateTodo", err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo), MsgTodoUpdated)
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	ctx := c.Request.Context()

	if err := t.svc.Delete(ctx, c.Param("id")); err != nil {
		t.handleError(c, ctx, "DeleteTodo", err)
		return
	}

	SendSuccess(c, http.StatusOK, nil, MsgTodoDeleted)
}

// NotFound answers the root path and every unmatched route.
func (t *TodoHandler) NotFound(c *gin.Context) {
	SendNotFoundError(c, MsgResourceNotFound)
}

// readObject enforces a JSON content type and a JSON object body. It writes
// the error envelope itself and reports false when the request is refused.
func (t *TodoHandler) readObject(c *gin.Context) (map[string]any, bool) {
	if !isJSON(c.ContentType()) {
		SendBadRequestError(c, MsgRequestNotJSON)
		return nil, false
	}

	body, err := util.BodyToObject(c)
	if err != nil {
		SendBadRequestError(c, MsgBodyNotAnObject)
		return nil, false
	}

	return body, true
}

func isJSON(contentType string) bool {
	return contentType == "application/json" ||
		(strings.HasPrefix(contentType, "application/") && strings.HasSuffix(contentType, "+json"))
}

func (t *TodoHandler) handleError(c *gin.Context, ctx context.Context, operation string, err error) {
	var inputErr *domain.InputError

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		SendBadRequestError(c, MsgInvalidTodoID)
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, MsgTodoNotFound)
	case errors.Is(err, domain.ErrValidation):
		SendValidationError(c, err)
	case errors.As(err, &inputErr):
		SendBadRequestError(c, inputErr.Message)
	default:
		t.Logger.ErrorWithTrace(ctx, "Unexpected todo failure",
			zap.String("operation", operation),
			zap.String("todo_id", c.Param("id")),
			zap.Error(err))
		SendInternalError(c)
	}
}
