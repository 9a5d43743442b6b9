package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/usersync/internal/client/apicall"
	"github.com/dmitrijs2005/usersync/internal/client/cache"
	"github.com/dmitrijs2005/usersync/internal/client/client"
	"github.com/dmitrijs2005/usersync/internal/client/config"
	"github.com/dmitrijs2005/usersync/internal/client/connectivity"
	"github.com/dmitrijs2005/usersync/internal/client/remote"
	"github.com/dmitrijs2005/usersync/internal/client/repositories/users"
	"github.com/dmitrijs2005/usersync/internal/client/services"
	"github.com/dmitrijs2005/usersync/internal/client/snapshot"
	"github.com/dmitrijs2005/usersync/internal/dbx"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App wires storage, connectivity and services for one CLI invocation.
type App struct {
	config *config.Config
	log    logging.Logger
	out    io.Writer

	db       *sql.DB
	registry *prometheus.Registry
	monitor  *connectivity.Monitor
	closers  []func() error

	syncService services.SyncService
	todoService services.TodoService
	exporters   map[string]func(ctx context.Context) (snapshot.Exporter, error)
	now         func() time.Time

	mu   sync.Mutex
	Mode Mode
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger, out io.Writer) (*App, error) {
	a := &App{config: c, log: log, out: out, registry: prometheus.NewRegistry(), now: time.Now}

	m, err := metrics.New(a.registry)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DBDriver, c.DBDSN)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	uc, err := cache.New(ctx, users.NewSQLRepository(db, dbx.Dialect(c.DBDriver)), log, m)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}

	prober, err := a.buildProber(httpClient)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.monitor = connectivity.NewMonitor(prober, log,
		connectivity.WithCheckInterval(c.OnlineCheckInterval),
		connectivity.WithMetrics(m),
	)

	usersRemote, err := remote.NewUsersRemote(httpClient, c.UsersURL, c.Seed)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	weatherRemote, err := remote.NewWeatherRemote(httpClient, c.WeatherURL, c.WeatherAPIKey, c.WeatherUnits)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	todoRemote, err := remote.NewTodoRemote(httpClient, c.TodosURL)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	exec := apicall.NewExecutor(a.monitor, log, m, apicall.DefaultMessages)
	a.syncService = services.NewSyncService(exec, usersRemote, weatherRemote, uc, c.PageSize, log)
	a.todoService = services.NewTodoService(exec, todoRemote)

	a.exporters = map[string]func(ctx context.Context) (snapshot.Exporter, error){
		"file": func(context.Context) (snapshot.Exporter, error) {
			return snapshot.NewFileExporter(c.ExportDir), nil
		},
		"s3": func(ctx context.Context) (snapshot.Exporter, error) {
			return snapshot.NewS3Exporter(ctx, snapshot.S3Config{
				Bucket:       c.S3Bucket,
				Region:       c.S3Region,
				BaseEndpoint: c.S3BaseEndpoint,
				AccessKey:    c.S3AccessKey,
				SecretKey:    c.S3SecretKey,
			})
		},
	}

	return a, nil
}

// buildProber probes the configured endpoints; with none configured it
// falls back to checking local interfaces.
func (a *App) buildProber(httpClient *http.Client) (connectivity.Prober, error) {
	var probers connectivity.AnyProber
	if a.config.ProbeURL != "" {
		probers = append(probers, connectivity.NewHTTPProber(a.config.ProbeURL, httpClient))
	}
	if a.config.ProbeGRPCAddr != "" {
		p, err := connectivity.NewGRPCHealthProber(a.config.ProbeGRPCAddr, "")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		probers = append(probers, p)
	}
	if len(probers) == 0 {
		return connectivity.NewInterfaceProber(), nil
	}
	return probers, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// StartConnectivity starts the monitor and waits (bounded by the probe
// timeout) for the first probe so one-shot commands see a real state.
func (a *App) StartConnectivity(ctx context.Context) {
	a.monitor.Start(ctx)

	select {
	case <-a.monitor.Probed():
	case <-time.After(connectivity.DefaultProbeTimeout + time.Second):
		a.log.Warn(ctx, "connectivity probe is slow, assuming online")
	case <-ctx.Done():
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// StartOnlineStatusWatcher follows the connectivity stream and reports each
// mode change once. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context) {
	for s := range a.monitor.Observe(ctx) {
		if s == connectivity.Available {
			a.setMode(ModeOnline)
		} else {
			a.setMode(ModeOffline)
		}
	}
}

func (a *App) getStatus() string {
	s := fmt.Sprintf("page %d", a.syncService.Cursor())
	if m := a.mode(); m != "" {
		s = string(m) + ", " + s
	}
	return fmt.Sprintf("(%s)", s)
}
