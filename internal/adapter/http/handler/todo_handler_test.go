package handler_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	. "github.com/lutheralien/to-do-api/pkg/test"

	"github.com/lutheralien/to-do-api/internal/adapter/http/handler"
	"github.com/lutheralien/to-do-api/internal/adapter/http/routes"
	"github.com/lutheralien/to-do-api/internal/core/domain"
	"github.com/lutheralien/to-do-api/internal/core/model/request"
	"github.com/lutheralien/to-do-api/internal/core/model/response"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/service"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
)

const jsonContentType = "application/json"

type TodoHandlerSuite struct {
	suite.Suite
	TodoRepo port.TodoRepository
	Router   *gin.Engine
}

func (s *TodoHandlerSuite) SetupTest() {
	probe := telemetry.NewNoOpProbe()

	s.TodoRepo = InitTestRepo()
	todoService := service.NewTodoService(s.TodoRepo, probe)

	s.Router = routes.SetupRouterForTests(routes.HandlersConfig{
		TodoHandler: handler.NewTodoHandler(todoService, nil),
	})
}

func TestTodoHandlerSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoHandlerSuite))
}

func (s *TodoHandlerSuite) request(method, path, contentType, body string) (*httptest.ResponseRecorder, Envelope) {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w, DecodeEnvelope(s.T(), w.Body.Bytes())
}

func (s *TodoHandlerSuite) seed(title, description string, completed bool) domain.Todo {
	todo, err := s.TodoRepo.Insert(context.Background(), domain.Todo{
		Title:       title,
		Description: description,
		Completed:   completed,
	})
	s.Require().NoError(err)

	return todo
}

func (s *TodoHandlerSuite) expectError(w *httptest.ResponseRecorder, envelope Envelope, status int, message string) {
	Expect(w.Code).To(Equal(status))
	Expect(envelope.Success).To(BeFalse())
	Expect(envelope.StatusCode).To(Equal(status))
	Expect(string(envelope.Data)).To(Equal("null"))
	Expect(envelope.Message).ToNot(BeNil())
	Expect(*envelope.Message).To(Equal(message))
}

func (s *TodoHandlerSuite) TestHandler_GetAllTodos_Empty() {
	w, envelope := s.request("GET", "/todos", "", "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(envelope.Success).To(BeTrue())
	Expect(envelope.StatusCode).To(Equal(http.StatusOK))
	Expect(string(envelope.Data)).To(Equal("[]"))
	Expect(*envelope.Message).To(Equal("0 todos retrieved successfully"))
}

func (s *TodoHandlerSuite) TestHandler_GetAllTodos_InsertionOrder() {
	first := s.seed("first", "a", false)
	second := s.seed("second", "b", true)

	w, envelope := s.request("GET", "/todos", "", "")
	todos := DecodeData[[]response.TodoResponse](s.T(), envelope)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(*envelope.Message).To(Equal("2 todos retrieved successfully"))
	Expect(todos).To(HaveLen(2))
	Expect(todos[0].ID).To(Equal(first.ID))
	Expect(todos[1].ID).To(Equal(second.ID))
	Expect(todos[1].Completed).To(BeTrue())
}

func (s *TodoHandlerSuite) TestHandler_CreateTodo_Success() {
	w, envelope := s.request("POST", "/todos", jsonContentType, `{"title":"Buy milk","description":"2 litres"}`)
	todo := DecodeTodo(s.T(), envelope)

	Expect(w.Code).To(Equal(http.StatusCreated))
	Expect(envelope.Success).To(BeTrue())
	Expect(envelope.StatusCode).To(Equal(http.StatusCreated))
	Expect(*envelope.Message).To(Equal(handler.MsgTodoCreated))
	Expect(primitive.IsValidObjectID(todo.ID)).To(BeTrue())
	Expect(todo.Title).To(Equal("Buy milk"))
	Expect(todo.Description).To(Equal("2 litres"))
	Expect(todo.Completed).To(BeFalse())

	stored, err := s.TodoRepo.FindByID(context.Background(), todo.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(stored.Title).To(Equal("Buy milk"))
}

func (s *TodoHandlerSuite) TestHandler_CreateTodo_ExactEnvelope() {
	w, envelope := s.request("POST", "/todos", jsonContentType, `{"title":"a","description":"b"}`)
	id := DecodeTodo(s.T(), envelope).ID

	Expect(w.Body.String()).To(MatchJSON(fmt.Sprintf(
		`{"success":true,"data":{"id":%q,"title":"a","description":"b","completed":false},"status_code":201,"message":"Todo created successfully"}`,
		id,
	)))
}

func (s *TodoHandlerSuite) TestHandler_CreateTodo_DropsUnknownFields() {
	w, envelope := s.request("POST", "/todos", jsonContentType,
		`{"title":"a","description":"b","completed":true,"priority":5,"_id":"x"}`)

	Expect(w.Code).To(Equal(http.StatusCreated))

	data := DecodeData[map[string]any](s.T(), envelope)
	Expect(data).To(HaveLen(4))
	Expect(data).ToNot(HaveKey("priority"))
	Expect(data).To(HaveKeyWithValue("completed", true))
	Expect(data["id"]).ToNot(Equal("x"))
}

func (s *TodoHandlerSuite) TestHandler_CreateTodo_AcceptsJSONSuffixAndCharset() {
	w, _ := s.request("POST", "/todos", "application/json; charset=utf-8", `{"title":"a","description":"b"}`)
	Expect(w.Code).To(Equal(http.StatusCreated))

	w, _ = s.request("POST", "/todos", "application/merge-patch+json", `{"title":"a","description":"b"}`)
	Expect(w.Code).To(Equal(http.StatusCreated))
}

func (s *TodoHandlerSuite) TestHandler_CreateTodo_Refusals() {
	cases := []struct {
		name        string
		contentType string
		body        string
		message     string
	}{
		{"missing description", jsonContentType, `{"title":"a"}`, request.MsgMissingFields},
		{"missing title", jsonContentType, `{"description":"b"}`, request.MsgMissingFields},
		{"numeric title", jsonContentType, `{"title":1,"description":"b"}`, request.MsgStringFields},
		{"string completed", jsonContentType, `{"title":"a","description":"b","completed":"yes"}`, request.MsgBooleanField},
		{"empty title", jsonContentType, `{"title":"","description":"b"}`, "Validation failed: title must not be empty"},
		{"plain text", "text/plain", `{"title":"a","description":"b"}`, handler.MsgRequestNotJSON},
		{"no content type", "", `{"title":"a","description":"b"}`, handler.MsgRequestNotJSON},
		{"array body", jsonContentType, `[1,2]`, handler.MsgBodyNotAnObject},
		{"null body", jsonContentType, `null`, handler.MsgBodyNotAnObject},
		{"malformed body", jsonContentType, `{"title":`, handler.MsgBodyNotAnObject},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w, envelope := s.request("POST", "/todos", tc.contentType, tc.body)
			s.expectError(w, envelope, http.StatusBadRequest, tc.message)
		})
	}

	todos, err := s.TodoRepo.FindAll(context.Background())
	Expect(err).ToNot(HaveOccurred())
	Expect(todos).To(BeEmpty())
}

func (s *TodoHandlerSuite) TestHandler_GetTodo() {
	todo := s.seed("read", "me", false)

	w, envelope := s.request("GET", "/todos/"+todo.ID, "", "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(*envelope.Message).To(Equal(handler.MsgTodoRetrieved))
	Expect(DecodeTodo(s.T(), envelope)).To(Equal(response.NewTodoResponse(todo)))
}

func (s *TodoHandlerSuite) TestHandler_GetTodo_InvalidID() {
	w, envelope := s.request("GET", "/todos/not-an-id", "", "")
	s.expectError(w, envelope, http.StatusBadRequest, handler.MsgInvalidTodoID)
}

func (s *TodoHandlerSuite) TestHandler_GetTodo_NotFound() {
	w, envelope := s.request("GET", "/todos/"+primitive.NewObjectID().Hex(), "", "")
	s.expectError(w, envelope, http.StatusNotFound, handler.MsgTodoNotFound)
}

func (s *TodoHandlerSuite) TestHandler_UpdateTodo_MergesFields() {
	todo := s.seed("keep", "old", false)

	w, envelope := s.request("PUT", "/todos/"+todo.ID, jsonContentType, `{"completed":true,"description":"new"}`)
	updated := DecodeTodo(s.T(), envelope)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(*envelope.Message).To(Equal(handler.MsgTodoUpdated))
	Expect(updated).To(Equal(response.TodoResponse{
		ID:          todo.ID,
		Title:       "keep",
		Description: "new",
		Completed:   true,
	}))

	_, envelope = s.request("GET", "/todos/"+todo.ID, "", "")
	Expect(DecodeTodo(s.T(), envelope)).To(Equal(updated))
}

func (s *TodoHandlerSuite) TestHandler_UpdateTodo_SchemaRejection() {
	todo := s.seed("typed", "fields", false)

	w, envelope := s.request("PUT", "/todos/"+todo.ID, jsonContentType, `{"completed":"yes"}`)

	Expect(w.Code).To(Equal(http.StatusBadRequest))
	Expect(envelope.Success).To(BeFalse())
	Expect(*envelope.Message).To(HavePrefix("Validation failed: "))
	Expect(*envelope.Message).To(ContainSubstring("completed"))

	stored, err := s.TodoRepo.FindByID(context.Background(), todo.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(stored.Completed).To(BeFalse())
}

func (s *TodoHandlerSuite) TestHandler_UpdateTodo_Refusals() {
	todo := s.seed("a", "b", false)
	path := "/todos/" + todo.ID

	cases := []struct {
		name        string
		contentType string
		body        string
		message     string
	}{
		{"empty object", jsonContentType, `{}`, request.MsgNoFields},
		{"unknown field", jsonContentType, `{"title":"x","owner":"me"}`, "Unknown fields: owner. Allowed fields are: title, description, completed"},
		{"not json", "text/plain", `{"title":"x"}`, handler.MsgRequestNotJSON},
		{"array body", jsonContentType, `["title"]`, handler.MsgBodyNotAnObject},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w, envelope := s.request("PUT", path, tc.contentType, tc.body)
			s.expectError(w, envelope, http.StatusBadRequest, tc.message)
		})
	}

	stored, err := s.TodoRepo.FindByID(context.Background(), todo.ID)
	Expect(err).ToNot(HaveOccurred())
	Expect(stored).To(Equal(todo))
}

func (s *TodoHandlerSuite) TestHandler_UpdateTodo_MissingAndInvalid() {
	w, envelope := s.request("PUT", "/todos/"+primitive.NewObjectID().Hex(), jsonContentType, `{"completed":true}`)
	s.expectError(w, envelope, http.StatusNotFound, handler.MsgTodoNotFound)

	w, envelope = s.request("PUT", "/todos/123", jsonContentType, `{"completed":true}`)
	s.expectError(w, envelope, http.StatusBadRequest, handler.MsgInvalidTodoID)
}

func (s *TodoHandlerSuite) TestHandler_DeleteTodo() {
	todo := s.seed("gone", "soon", false)

	w, envelope := s.request("DELETE", "/todos/"+todo.ID, "", "")

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(envelope.Success).To(BeTrue())
	Expect(string(envelope.Data)).To(Equal("null"))
	Expect(*envelope.Message).To(Equal(handler.MsgTodoDeleted))

	w, envelope = s.request("GET", "/todos/"+todo.ID, "", "")
	s.expectError(w, envelope, http.StatusNotFound, handler.MsgTodoNotFound)

	w, envelope = s.request("DELETE", "/todos/"+todo.ID, "", "")
	s.expectError(w, envelope, http.StatusNotFound, handler.MsgTodoNotFound)
}

func (s *TodoHandlerSuite) TestHandler_DeleteTodo_InvalidID() {
	w, envelope := s.request("DELETE", "/todos/zzz", "", "")
	s.expectError(w, envelope, http.StatusBadRequest, handler.MsgInvalidTodoID)
}

func (s *TodoHandlerSuite) TestHandler_UnknownRoutes() {
	for _, path := range []string{"/", "/nope", "/todos/a/b"} {
		w, envelope := s.request("GET", path, "", "")
		s.expectError(w, envelope, http.StatusNotFound, "Resource not found")
	}

	w, envelope := s.request("PATCH", "/todos", jsonContentType, `{}`)
	s.expectError(w, envelope, http.StatusNotFound, "Resource not found")
}

func (s *TodoHandlerSuite) TestHandler_Lifecycle() {
	w, envelope := s.request("POST", "/todos", jsonContentType, `{"title":"cycle","description":"d"}`)
	Expect(w.Code).To(Equal(http.StatusCreated))
	id := DecodeTodo(s.T(), envelope).ID

	_, envelope = s.request("GET", "/todos", "", "")
	Expect(DecodeData[[]response.TodoResponse](s.T(), envelope)).To(HaveLen(1))

	w, _ = s.request("PUT", "/todos/"+id, jsonContentType, `{"title":"renamed"}`)
	Expect(w.Code).To(Equal(http.StatusOK))

	w, _ = s.request("DELETE", "/todos/"+id, "", "")
	Expect(w.Code).To(Equal(http.StatusOK))

	_, envelope = s.request("GET", "/todos", "", "")
	Expect(string(envelope.Data)).To(Equal("[]"))
}

func (s *TodoHandlerSuite) TestHandler_ListAfterCreatesAndDeletes() {
	var ids []string
	for i := range 5 {
		w, envelope := s.request("POST", "/todos", jsonContentType, fmt.Sprintf(`{"title":"todo %d","description":"batch"}`, i))
		Expect(w.Code).To(Equal(http.StatusCreated))
		ids = append(ids, DecodeTodo(s.T(), envelope).ID)
	}

	for _, id := range []string{ids[1], ids[3]} {
		w, _ := s.request("DELETE", "/todos/"+id, "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
	}

	w, envelope := s.request("GET", "/todos", "", "")
	todos := DecodeData[[]response.TodoResponse](s.T(), envelope)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(*envelope.Message).To(Equal("3 todos retrieved successfully"))

	var listed []string
	for _, todo := range todos {
		listed = append(listed, todo.ID)
	}
	Expect(listed).To(Equal([]string{ids[0], ids[2], ids[4]}))
}
