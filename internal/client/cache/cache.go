// Package cache is the local source of truth for directory users. It keeps
// the durable store and an observable snapshot stream in step: every
// committed mutation is followed by exactly one published snapshot.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/client/repositories/users"
	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/metrics"
	"github.com/dmitrijs2005/usersync/internal/pubsub"
)

const (
	mutationReplaceAll = "replace_all"
	mutationUpsertAll  = "upsert_all"
)

type UserCache struct {
	repo    users.Repository
	log     logging.Logger
	metrics *metrics.Metrics

	// serializes writers so snapshots are published in commit order
	mu     sync.Mutex
	stream *pubsub.Broadcaster[[]models.User]
}

// New loads the stored users and returns a cache whose stream starts from
// them. m may be nil.
func New(ctx context.Context, repo users.Repository, log logging.Logger, m *metrics.Metrics) (*UserCache, error) {
	initial, err := repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cached users: %w", err)
	}

	m.SetCacheEntities(len(initial))

	return &UserCache{
		repo:    repo,
		log:     log.With("component", "cache"),
		metrics: m,
		stream:  pubsub.New(initial, pubsub.WithCopy(cloneUsers)),
	}, nil
}

func cloneUsers(us []models.User) []models.User {
	return slices.Clone(us)
}

// ReplaceAll makes users the entire collection. Observers see the new
// collection in a single emission.
func (c *UserCache) ReplaceAll(ctx context.Context, us []models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.ReplaceAll(ctx, us); err != nil {
		return fmt.Errorf("replace cached users: %w", err)
	}

	c.publish(ctx, mutationReplaceAll, func() []models.User { return merge(nil, us) })
	return nil
}

// UpsertAll inserts new users and overwrites existing ones by email. New
// users are appended after the existing ones.
func (c *UserCache) UpsertAll(ctx context.Context, us []models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.repo.UpsertAll(ctx, us); err != nil {
		return fmt.Errorf("upsert cached users: %w", err)
	}

	c.publish(ctx, mutationUpsertAll, func() []models.User { return merge(c.stream.Current(), us) })
	return nil
}

// publish reloads the committed collection and emits it. If the reload
// fails the snapshot is derived from the previous one instead.
func (c *UserCache) publish(ctx context.Context, kind string, derive func() []models.User) {
	snapshot, err := c.repo.GetAll(context.WithoutCancel(ctx))
	if err != nil {
		c.log.Warn(ctx, "reload after commit failed, deriving snapshot", "kind", kind, "error", err)
		snapshot = derive()
	}

	c.metrics.IncCacheMutation(kind)
	c.metrics.SetCacheEntities(len(snapshot))
	c.log.Debug(ctx, "cache mutated", "kind", kind, "entities", len(snapshot))

	c.stream.Publish(snapshot)
}

func (c *UserCache) GetAll(ctx context.Context) ([]models.User, error) {
	return c.repo.GetAll(ctx)
}

// GetByKey looks a user up by email. A missing user is (zero, false, nil).
func (c *UserCache) GetByKey(ctx context.Context, email string) (models.User, bool, error) {
	u, err := c.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, err
	}
	return *u, true, nil
}

// Observe emits the current collection, then one collection per committed
// mutation. The channel is closed when ctx is done.
func (c *UserCache) Observe(ctx context.Context) <-chan []models.User {
	return c.stream.Subscribe(ctx)
}

// merge applies upsert semantics in memory: existing emails keep their
// position and take the new value, unknown emails are appended.
func merge(base, us []models.User) []models.User {
	out := slices.Clone(base)
	if out == nil {
		out = []models.User{}
	}
	idx := make(map[string]int, len(out)+len(us))
	for i, u := range out {
		idx[u.Email] = i
	}
	for _, u := range us {
		if i, ok := idx[u.Email]; ok {
			out[i] = u
			continue
		}
		idx[u.Email] = len(out)
		out = append(out, u)
	}
	return out
}
