package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// lockedWriter serializes writes from the watch goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func newWatchCommand(s *rootState) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream connectivity and cache changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &lockedWriter{w: cmd.OutOrStdout()}
			a, err := NewApp(cmd.Context(), s.config, s.log, out)
			if err != nil {
				return err
			}
			defer a.Close()

			var ln net.Listener
			if metricsAddr != "" {
				if ln, err = net.Listen("tcp", metricsAddr); err != nil {
					return err
				}
				fmt.Fprintf(out, "Serving metrics on http://%s/metrics\n", ln.Addr())
			}
			return a.Watch(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

// Watch prints every connectivity state and cache snapshot until ctx is done.
// With a non-nil listener it also serves /metrics from the app registry.
func (a *App) Watch(ctx context.Context, metrics net.Listener) error {
	a.monitor.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for st := range a.monitor.Observe(ctx) {
			fmt.Fprintf(a.out, "connectivity: %s\n", st)
		}
		return nil
	})

	g.Go(func() error {
		for all := range a.syncService.ObserveAll(ctx) {
			fmt.Fprintf(a.out, "cache: %d users\n", len(all))
		}
		return nil
	})

	if metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			if err := srv.Serve(metrics); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
