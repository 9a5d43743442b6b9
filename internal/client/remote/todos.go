package remote

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
)

const DefaultTodosURL = "https://jsonplaceholder.typicode.com/todos"

type TodoRemote struct {
	client *http.Client
	base   string
}

func NewTodoRemote(c *http.Client, baseURL string) (*TodoRemote, error) {
	if _, err := parseBase(baseURL); err != nil {
		return nil, err
	}
	return &TodoRemote{client: c, base: baseURL}, nil
}

func (r *TodoRemote) FetchTodos(ctx context.Context) (*apicall.Response[[]models.Todo], error) {
	u, _ := parseBase(r.base)
	return getJSON[[]models.Todo](ctx, r.client, u)
}
