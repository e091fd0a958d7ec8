package response

import "github.com/lutheralien/to-do-api/internal/core/domain"

// Envelope is the body of every response the API writes.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
}

func NewEnvelope(success bool, data any, statusCode int, message string) Envelope {
	return Envelope{
		Success:    success,
		Data:       data,
		StatusCode: statusCode,
		Message:    message,
	}
}

type TodoResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
	}
}

func NewTodoListResponse(todos []domain.Todo) []TodoResponse {
	data := make([]TodoResponse, 0, len(todos))

	for _, todo := range todos {
		data = append(data, NewTodoResponse(todo))
	}

	return data
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}
