package remote

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
)

const (
	DefaultUsersURL = "https://randomuser.me/api/"
	DefaultPageSize = 25
)

type UsersRemote struct {
	client *http.Client
	base   string
	seed   string
}

// NewUsersRemote builds a client for the randomuser.me API at baseURL. A
// non-empty seed makes the generated pages reproducible.
func NewUsersRemote(c *http.Client, baseURL, seed string) (*UsersRemote, error) {
	if _, err := parseBase(baseURL); err != nil {
		return nil, err
	}
	return &UsersRemote{client: c, base: baseURL, seed: seed}, nil
}

// FetchPage requests ?results=<pageSize>&page=<page>.
func (r *UsersRemote) FetchPage(ctx context.Context, page, pageSize int) (*apicall.Response[models.UsersPage], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	u, _ := parseBase(r.base)
	q := u.Query()
	q.Set("results", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	if r.seed != "" {
		q.Set("seed", r.seed)
	}
	u.RawQuery = q.Encode()

	return getJSON[models.UsersPage](ctx, r.client, u)
}
