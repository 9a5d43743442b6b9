package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/cache"
	"github.com/dmitrijs2005/usersync/internal/client/client"
	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/client/repositories/users"
	"github.com/dmitrijs2005/usersync/internal/dbx"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeConn struct{ online atomic.Bool }

func (f *fakeConn) Available() bool { return f.online.Load() }

type pageReply struct {
	status int
	users  []models.User
	err    error
}

// fakeUsers replies from a per-page script and records requested pages.
type fakeUsers struct {
	mu        sync.Mutex
	script    map[int]pageReply
	requested []int
	sizes     []int
	hook      func(page int)
}

func (f *fakeUsers) FetchPage(ctx context.Context, page, pageSize int) (*apicall.Response[models.UsersPage], error) {
	f.mu.Lock()
	f.requested = append(f.requested, page)
	f.sizes = append(f.sizes, pageSize)
	reply, ok := f.script[page]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(page)
	}
	if !ok {
		return &apicall.Response[models.UsersPage]{StatusCode: http.StatusOK}, nil
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &apicall.Response[models.UsersPage]{
		StatusCode: reply.status,
		Body:       models.UsersPage{Results: reply.users, Info: &models.PageInfo{Page: page}},
	}, nil
}

func (f *fakeUsers) set(page int, r pageReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[page] = r
}

func (f *fakeUsers) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requested...)
}

type fakeWeather struct {
	calls int
	resp  *apicall.Response[models.Weather]
}

func (f *fakeWeather) FetchWeather(ctx context.Context, lat, lon float64) (*apicall.Response[models.Weather], error) {
	f.calls++
	return f.resp, nil
}

// ---- helpers ----

type env struct {
	svc     SyncService
	remote  *fakeUsers
	weather *fakeWeather
	cache   *cache.UserCache
	conn    *fakeConn
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db, err := client.InitDatabase(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	uc, err := cache.New(ctx, users.NewSQLRepository(db, dbx.DialectSQLite), logging.Discard(), nil)
	require.NoError(t, err)

	conn := &fakeConn{}
	conn.online.Store(true)

	exec := apicall.NewExecutor(conn, logging.Discard(), nil, nil)
	remote := &fakeUsers{script: map[int]pageReply{}}
	weather := &fakeWeather{}

	return &env{
		svc:     NewSyncService(exec, remote, weather, uc, 25, logging.Discard()),
		remote:  remote,
		weather: weather,
		cache:   uc,
		conn:    conn,
	}
}

func person(email, first string) models.User {
	return models.User{
		Email:  email,
		Gender: "female",
		Name:   models.Name{Title: "Dr", First: first, Last: "Smith"},
		Location: models.Location{
			Street:      models.Street{Number: 42, Name: "Elm"},
			City:        "Oslo",
			Country:     "Norway",
			Postcode:    "0150",
			Coordinates: models.Coordinates{Latitude: "59.91", Longitude: "10.75"},
		},
		Phone:   "1",
		Cell:    "2",
		Picture: models.Picture{Large: "L", Medium: "M", Thumbnail: "T"},
	}
}

func cached(t *testing.T, c *cache.UserCache) []string {
	t.Helper()
	all, err := c.GetAll(context.Background())
	require.NoError(t, err)
	out := make([]string, len(all))
	for i, u := range all {
		out[i] = u.Email
	}
	return out
}

// ---- tests ----

func TestRefreshThenNextPage(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A"), person("b", "B")}})
	e.remote.set(2, pageReply{status: 200, users: []models.User{person("c", "C")}})

	res, err := e.svc.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 2, e.svc.Cursor())

	res, err = e.svc.NextPage(ctx)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())
	assert.Equal(t, 3, e.svc.Cursor())

	assert.Equal(t, []string{"a", "b", "c"}, cached(t, e.cache))
	assert.Equal(t, []int{1, 2}, e.remote.pages())
	assert.Equal(t, []int{25, 25}, e.remote.sizes)
}

func TestNextPageFailure_KeepsCacheAndRetriesSamePage(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A"), person("b", "B")}})
	e.remote.set(2, pageReply{status: http.StatusInternalServerError})

	_, err := e.svc.Refresh(ctx)
	require.NoError(t, err)

	res, err := e.svc.NextPage(ctx)
	require.NoError(t, err)
	f, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, apicall.KindHTTP, f.Kind)
	assert.Equal(t, 500, f.StatusCode)

	assert.Equal(t, []string{"a", "b"}, cached(t, e.cache))
	assert.Equal(t, 2, e.svc.Cursor())

	e.remote.set(2, pageReply{err: errors.New("connection reset")})
	res, err = e.svc.NextPage(ctx)
	require.NoError(t, err)
	f, _ = res.Failure()
	assert.Equal(t, apicall.KindTransport, f.Kind)

	e.remote.set(2, pageReply{status: 200, users: []models.User{person("c", "C")}})
	res, err = e.svc.NextPage(ctx)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())

	assert.Equal(t, []int{1, 2, 2, 2}, e.remote.pages())
	assert.Equal(t, []string{"a", "b", "c"}, cached(t, e.cache))
}

func TestRefreshFailure_LeavesCacheUntouched(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A")}})
	e.remote.set(2, pageReply{status: 200, users: []models.User{person("b", "B")}})
	_, err := e.svc.Refresh(ctx)
	require.NoError(t, err)
	_, err = e.svc.NextPage(ctx)
	require.NoError(t, err)

	e.remote.set(1, pageReply{status: http.StatusServiceUnavailable})
	res, err := e.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.IsSuccess())

	assert.Equal(t, []string{"a", "b"}, cached(t, e.cache))
	assert.Equal(t, 3, e.svc.Cursor())
}

func TestRefreshResetsCursorAndReplaces(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A")}})
	e.remote.set(2, pageReply{status: 200, users: []models.User{person("b", "B")}})
	e.remote.set(3, pageReply{status: 200, users: []models.User{person("c", "C")}})

	_, _ = e.svc.Refresh(ctx)
	_, _ = e.svc.NextPage(ctx)
	_, _ = e.svc.NextPage(ctx)
	require.Equal(t, 4, e.svc.Cursor())

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("z", "Z")}})
	_, err := e.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, e.svc.Cursor())
	assert.Equal(t, []string{"z"}, cached(t, e.cache))
}

func TestPartialPageAdvancesCursor(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.NextPage(ctx) // unscripted page: 200 with no results
	require.NoError(t, err)
	assert.Equal(t, 2, e.svc.Cursor())
}

func TestOffline_NoRequestNoMutation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.conn.online.Store(false)

	res, err := e.svc.Refresh(ctx)
	require.NoError(t, err)
	f, ok := res.Failure()
	require.True(t, ok)
	assert.Equal(t, apicall.KindNoConnectivity, f.Kind)

	res, err = e.svc.NextPage(ctx)
	require.NoError(t, err)
	assert.False(t, res.IsSuccess())

	assert.Empty(t, e.remote.pages())
	assert.Equal(t, 1, e.svc.Cursor())
}

func TestCancelledAfterResponse_SkipsMutation(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A")}})
	e.remote.hook = func(int) { cancel() }

	_, err := e.svc.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, cached(t, e.cache))
	assert.Equal(t, 1, e.svc.Cursor())
}

func TestCancelledBeforeLock(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.svc.NextPage(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.remote.pages())
}

func TestConcurrentNextPage_RequestsConsecutivePages(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	var inFlight, maxInFlight atomic.Int32
	e.remote.hook = func(int) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	}

	const calls = 5
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.NextPage(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, e.remote.pages())
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, 6, e.svc.Cursor())
}

func TestLookup_CacheOnlyRoundTrip(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, ok, err := e.svc.Lookup(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	want := person("ada@example.com", "Ada")
	e.remote.set(1, pageReply{status: 200, users: []models.User{want}})
	_, err = e.svc.Refresh(ctx)
	require.NoError(t, err)

	before := len(e.remote.pages())
	got, ok, err := e.svc.Lookup(ctx, "ada@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lookup mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, before, len(e.remote.pages()), "lookup must not hit the network")
}

func TestObserveAll_FollowsSync(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := e.svc.ObserveAll(ctx)
	require.Empty(t, <-stream)

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A")}})
	_, err := e.svc.Refresh(ctx)
	require.NoError(t, err)

	select {
	case snap := <-stream:
		require.Len(t, snap, 1)
		assert.Equal(t, "a", snap[0].Email)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after refresh")
	}
}

func TestFetchWeather_NeverTouchesCache(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	e.weather.resp = &apicall.Response[models.Weather]{
		StatusCode: 200,
		Body:       models.Weather{Main: models.WeatherMain{Temp: 21.5}},
	}

	res, err := e.svc.FetchWeather(ctx, 59.91, 10.75)
	require.NoError(t, err)
	w, ok := res.Data()
	require.True(t, ok)
	assert.Equal(t, 21.5, w.Temperature())
	assert.Empty(t, cached(t, e.cache))

	e.conn.online.Store(false)
	res, err = e.svc.FetchWeather(ctx, 0, 0)
	require.NoError(t, err)
	assert.False(t, res.IsSuccess())
	assert.Equal(t, 1, e.weather.calls)
}

// storeFailing fails every write.
type storeFailing struct {
	UserStore
}

func (storeFailing) ReplaceAll(context.Context, []models.User) error {
	return errors.New("disk full")
}

func TestStoreFailure_IsAnErrorAndCursorStays(t *testing.T) {
	e := setup(t)
	conn := &fakeConn{}
	conn.online.Store(true)
	exec := apicall.NewExecutor(conn, logging.Discard(), nil, nil)

	e.remote.set(1, pageReply{status: 200, users: []models.User{person("a", "A")}})
	svc := NewSyncService(exec, e.remote, e.weather, storeFailing{UserStore: e.cache}, 10, logging.Discard())

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, svc.Cursor())
}
