package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"golang.org/x/sync/semaphore"
)

const firstPage = 1

// UsersSource fetches one page of the remote directory.
type UsersSource interface {
	FetchPage(ctx context.Context, page, pageSize int) (*apicall.Response[models.UsersPage], error)
}

type WeatherSource interface {
	FetchWeather(ctx context.Context, lat, lon float64) (*apicall.Response[models.Weather], error)
}

// UserStore is the local cache as seen by the sync service.
type UserStore interface {
	ReplaceAll(ctx context.Context, users []models.User) error
	UpsertAll(ctx context.Context, users []models.User) error
	GetByKey(ctx context.Context, email string) (models.User, bool, error)
	Observe(ctx context.Context) <-chan []models.User
}

// SyncService mirrors the remote user directory into the local cache.
//
// Refresh and NextPage are serialized per instance: the page request, the
// cache write and the cursor update happen under one lock, so concurrent
// NextPage calls fetch consecutive pages.
type SyncService interface {
	// Refresh fetches page 1 and replaces the cache with it.
	Refresh(ctx context.Context) (apicall.Result[models.UsersPage], error)
	// NextPage fetches the page at the cursor and merges it into the cache.
	// A failed fetch leaves the cursor where it was.
	NextPage(ctx context.Context) (apicall.Result[models.UsersPage], error)
	ObserveAll(ctx context.Context) <-chan []models.User
	// Lookup reads the cache only.
	Lookup(ctx context.Context, email string) (models.User, bool, error)
	// FetchWeather is a plain remote call; nothing is cached.
	FetchWeather(ctx context.Context, lat, lon float64) (apicall.Result[models.Weather], error)
	// Cursor is the page NextPage will request.
	Cursor() int
}

type syncService struct {
	exec     *apicall.Executor
	users    UsersSource
	weather  WeatherSource
	store    UserStore
	pageSize int
	log      logging.Logger

	sem    *semaphore.Weighted
	cursor atomic.Int64
}

func NewSyncService(exec *apicall.Executor, users UsersSource, weather WeatherSource, store UserStore, pageSize int, log logging.Logger) SyncService {
	s := &syncService{
		exec:     exec,
		users:    users,
		weather:  weather,
		store:    store,
		pageSize: pageSize,
		log:      log.With("component", "sync"),
		sem:      semaphore.NewWeighted(1),
	}
	s.cursor.Store(firstPage)
	return s
}

func (s *syncService) Refresh(ctx context.Context) (apicall.Result[models.UsersPage], error) {
	return s.sync(ctx, "users.refresh", firstPage, s.store.ReplaceAll, func(int) int { return firstPage + 1 })
}

func (s *syncService) NextPage(ctx context.Context) (apicall.Result[models.UsersPage], error) {
	return s.sync(ctx, "users.next_page", 0, s.store.UpsertAll, func(page int) int { return page + 1 })
}

// sync runs one fetch-and-store step. page 0 means "the current cursor".
func (s *syncService) sync(
	ctx context.Context,
	operation string,
	page int,
	write func(context.Context, []models.User) error,
	advance func(page int) int,
) (apicall.Result[models.UsersPage], error) {
	var zero apicall.Result[models.UsersPage]

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer s.sem.Release(1)

	if page == 0 {
		page = int(s.cursor.Load())
	}

	res, err := apicall.Call(ctx, s.exec, operation, func(ctx context.Context) (*apicall.Response[models.UsersPage], error) {
		return s.users.FetchPage(ctx, page, s.pageSize)
	})
	if err != nil {
		return zero, err
	}

	data, ok := res.Data()
	if !ok {
		return res, nil
	}

	// the caller went away while the response was in flight
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if err := write(ctx, data.Results); err != nil {
		return zero, fmt.Errorf("store page %d: %w", page, err)
	}

	s.cursor.Store(int64(advance(page)))
	s.log.Debug(ctx, "page synced", "operation", operation, "page", page, "users", len(data.Results))

	return res, nil
}

func (s *syncService) ObserveAll(ctx context.Context) <-chan []models.User {
	return s.store.Observe(ctx)
}

func (s *syncService) Lookup(ctx context.Context, email string) (models.User, bool, error) {
	return s.store.GetByKey(ctx, email)
}

func (s *syncService) FetchWeather(ctx context.Context, lat, lon float64) (apicall.Result[models.Weather], error) {
	return apicall.Call(ctx, s.exec, "weather.current", func(ctx context.Context) (*apicall.Response[models.Weather], error) {
		return s.weather.FetchWeather(ctx, lat, lon)
	})
}

func (s *syncService) Cursor() int {
	return int(s.cursor.Load())
}
