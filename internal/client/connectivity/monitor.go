package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/metrics"
	"github.com/dmitrijs2005/usersync/internal/pubsub"
)

type State int

const (
	Available State = iota
	Unavailable
)

func (s State) String() string {
	if s == Available {
		return "online"
	}
	return "offline"
}

const (
	DefaultCheckInterval = 5 * time.Second
	DefaultProbeTimeout  = 3 * time.Second
)

type Option func(*Monitor)

func WithCheckInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithNotifier replaces the platform notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Monitor) { m.notifier = n }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mt }
}

type Monitor struct {
	prober       Prober
	notifier     Notifier
	interval     time.Duration
	probeTimeout time.Duration
	log          logging.Logger
	metrics      *metrics.Metrics

	state   *pubsub.Broadcaster[State]
	started atomic.Bool

	probed    chan struct{}
	probeOnce sync.Once
}

// NewMonitor creates a monitor in the Available state. Nothing is probed
// until Start is called.
func NewMonitor(prober Prober, log logging.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		prober:       prober,
		notifier:     PlatformNotifier(),
		interval:     DefaultCheckInterval,
		probeTimeout: DefaultProbeTimeout,
		log:          log.With("component", "connectivity"),
		state:        pubsub.New(Available),
		probed:       make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	m.metrics.SetConnectivity(true)
	return m
}

// Start launches the probe loop; it returns immediately. Only the first
// call has an effect. The loop stops when ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}

	var events <-chan struct{}
	if m.notifier != nil {
		ch, err := m.notifier.Notify(ctx)
		if err != nil {
			m.log.Warn(ctx, "network change notifications unavailable, relying on polling", "error", err)
		} else {
			events = ch
		}
	}

	go m.run(ctx, events)
}

func (m *Monitor) run(ctx context.Context, events <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.log.Debug(ctx, "network change reported")
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	ok, err := m.prober.Probe(pctx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	defer m.probeOnce.Do(func() { close(m.probed) })

	next := Unavailable
	switch {
	case err != nil:
		// keep reporting the network as usable when it cannot be checked
		m.log.Warn(ctx, "connectivity probe failed", "error", err)
		next = Available
	case ok:
		next = Available
	}

	m.set(ctx, next)
}

// set is only called from the loop goroutine.
func (m *Monitor) set(ctx context.Context, s State) {
	if m.state.Current() == s {
		return
	}
	m.log.Info(ctx, "connectivity changed", "state", s.String())
	m.metrics.SetConnectivity(s == Available)
	m.state.Publish(s)
}

// Probed is closed once the first probe has completed and its result has
// been published.
func (m *Monitor) Probed() <-chan struct{} {
	return m.probed
}

// Observe returns the current state followed by every transition. The
// channel is closed when ctx is done.
func (m *Monitor) Observe(ctx context.Context) <-chan State {
	return m.state.Subscribe(ctx)
}

func (m *Monitor) Current() State {
	return m.state.Current()
}

func (m *Monitor) Available() bool {
	return m.Current() == Available
}
