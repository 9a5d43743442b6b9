package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
)

// getJSON issues a GET and decodes a 2xx body into T. Other statuses are
// returned as-is with an empty body.
func getJSON[T any](ctx context.Context, c *http.Client, u *url.URL) (*apicall.Response[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &apicall.Response[T]{StatusCode: resp.StatusCode}
	if !out.OK() {
		_, _ = io.Copy(io.Discard, resp.Body)
		return out, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(&out.Body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u.Path, err)
	}
	return out, nil
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q must be absolute", raw)
	}
	return u, nil
}
