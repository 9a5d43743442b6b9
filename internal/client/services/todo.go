package services

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
)

type TodoSource interface {
	FetchTodos(ctx context.Context) (*apicall.Response[[]models.Todo], error)
}

// TodoService lists todos straight from the remote source.
type TodoService interface {
	List(ctx context.Context) (apicall.Result[[]models.Todo], error)
}

type todoService struct {
	exec   *apicall.Executor
	source TodoSource
}

func NewTodoService(exec *apicall.Executor, source TodoSource) TodoService {
	return &todoService{exec: exec, source: source}
}

func (s *todoService) List(ctx context.Context) (apicall.Result[[]models.Todo], error) {
	return apicall.Call(ctx, s.exec, "todos.list", s.source.FetchTodos)
}
