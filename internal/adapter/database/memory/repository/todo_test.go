package repository_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lutheralien/to-do-api/internal/adapter/database/memory/repository"
	"github.com/lutheralien/to-do-api/internal/core/domain"
	factory "github.com/lutheralien/to-do-api/pkg/test/factory"
)

type TodoRepositoryTestSuite struct {
	suite.Suite
	TodoRepo *repository.TodoRepository
}

var ctx = context.Background()

func (s *TodoRepositoryTestSuite) SetupTest() {
	s.TodoRepo = repository.NewTodoRepository()
}

func TestTodoRepositoryTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoRepositoryTestSuite))
}

func (s *TodoRepositoryTestSuite) createTodo(title string) domain.Todo {
	todo, err := s.TodoRepo.Insert(ctx, factory.NewTodo[domain.Todo](map[string]any{
		"Title":       title,
		"Description": "description of " + title,
		"Completed":   false,
	}))
	s.Require().NoError(err)

	return todo
}

func (s *TodoRepositoryTestSuite) TestRepository_FindAll_Empty() {
	todos, err := s.TodoRepo.FindAll(ctx)

	Expect(err).To(BeNil())
	Expect(todos).To(BeEmpty())
	Expect(todos).ToNot(BeNil())
}

func (s *TodoRepositoryTestSuite) TestRepository_Insert_AssignsObjectID() {
	todo := s.createTodo("Write tests")

	Expect(primitive.IsValidObjectID(todo.ID)).To(BeTrue())
	Expect(todo.Title).To(Equal("Write tests"))
	Expect(todo.Completed).To(BeFalse())
}

func (s *TodoRepositoryTestSuite) TestRepository_Insert_RejectsEmptyTitle() {
	_, err := s.TodoRepo.Insert(ctx, domain.Todo{Title: "", Description: "x"})

	var verr *domain.ValidationError
	Expect(errors.As(err, &verr)).To(BeTrue())
	Expect(verr.Detail).To(Equal("Document failed validation: title must be a non-empty string"))

	todos, _ := s.TodoRepo.FindAll(ctx)
	Expect(todos).To(BeEmpty())
}

func (s *TodoRepositoryTestSuite) TestRepository_FindAll_InsertionOrder() {
	first := s.createTodo("first")
	second := s.createTodo("second")
	third := s.createTodo("third")

	todos, err := s.TodoRepo.FindAll(ctx)

	Expect(err).To(BeNil())
	Expect(todos).To(Equal([]domain.Todo{first, second, third}))
}

func (s *TodoRepositoryTestSuite) TestRepository_FindByID() {
	todo := s.createTodo("find me")

	found, err := s.TodoRepo.FindByID(ctx, todo.ID)
	Expect(err).To(BeNil())
	Expect(found).To(Equal(todo))

	_, err = s.TodoRepo.FindByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.TodoRepo.FindByID(ctx, "not-an-id")
	assert.ErrorIs(s.T(), err, domain.ErrInvalidID)
}

func (s *TodoRepositoryTestSuite) TestRepository_UpdateByID_MergesFields() {
	todo := s.createTodo("original")

	updated, err := s.TodoRepo.UpdateByID(ctx, todo.ID, domain.TodoPatch{"completed": true})

	Expect(err).To(BeNil())
	Expect(updated.ID).To(Equal(todo.ID))
	Expect(updated.Title).To(Equal("original"))
	Expect(updated.Description).To(Equal(todo.Description))
	Expect(updated.Completed).To(BeTrue())

	found, _ := s.TodoRepo.FindByID(ctx, todo.ID)
	Expect(found).To(Equal(updated))
}

func (s *TodoRepositoryTestSuite) TestRepository_UpdateByID_SchemaRejection() {
	todo := s.createTodo("typed")

	_, err := s.TodoRepo.UpdateByID(ctx, todo.ID, domain.TodoPatch{"completed": "yes"})

	assert.ErrorIs(s.T(), err, domain.ErrValidation)

	found, _ := s.TodoRepo.FindByID(ctx, todo.ID)
	Expect(found).To(Equal(todo))
}

func (s *TodoRepositoryTestSuite) TestRepository_UpdateByID_Missing() {
	_, err := s.TodoRepo.UpdateByID(ctx, primitive.NewObjectID().Hex(), domain.TodoPatch{"title": "x"})
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	_, err = s.TodoRepo.UpdateByID(ctx, "123", domain.TodoPatch{"title": "x"})
	assert.ErrorIs(s.T(), err, domain.ErrInvalidID)
}

func (s *TodoRepositoryTestSuite) TestRepository_DeleteByID_Success() {
	todo := s.createTodo("doomed")

	err := s.TodoRepo.DeleteByID(ctx, todo.ID)
	assert.NoError(s.T(), err)

	_, err = s.TodoRepo.FindByID(ctx, todo.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)

	err = s.TodoRepo.DeleteByID(ctx, todo.ID)
	assert.ErrorIs(s.T(), err, domain.ErrNotFound)
}

func (s *TodoRepositoryTestSuite) TestRepository_Ping() {
	Expect(s.TodoRepo.Ping(ctx)).To(Succeed())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	Expect(s.TodoRepo.Ping(cancelled)).To(MatchError(context.Canceled))
}
