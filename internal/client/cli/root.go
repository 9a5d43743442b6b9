package cli

import (
	"context"

	"github.com/dmitrijs2005/usersync/internal/client/config"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/spf13/cobra"
)

// rootState is filled by the persistent pre-run and shared by subcommands.
type rootState struct {
	configPath string
	dbDriver   string
	dbDSN      string
	logLevel   string
	logFormat  string

	config *config.Config
	log    logging.Logger
}

// overrides maps explicitly set flags onto config keys.
func (s *rootState) overrides(cmd *cobra.Command) map[string]any {
	flags := map[string]struct {
		key   string
		value string
	}{
		"db-driver":  {"db_driver", s.dbDriver},
		"db-dsn":     {"db_dsn", s.dbDSN},
		"log-level":  {"log_level", s.logLevel},
		"log-format": {"log_format", s.logFormat},
	}

	out := map[string]any{}
	for name, f := range flags {
		if cmd.Flags().Changed(name) {
			out[f.key] = f.value
		}
	}
	return out
}

// withApp builds an App writing to the command's output, waits for the first
// connectivity probe and runs fn.
func (s *rootState) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := NewApp(ctx, s.config, s.log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	a.StartConnectivity(ctx)
	return fn(ctx, a)
}

// NewRootCommand assembles the usersync command tree.
func NewRootCommand() *cobra.Command {
	s := &rootState{}

	root := &cobra.Command{
		Use:          "usersync",
		Short:        "Offline-first browser for randomuser.me profiles",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(s.configPath, s.overrides(cmd))
			if err != nil {
				return err
			}
			l, err := logging.New(c.LogLevel, c.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s.config, s.log = c, l
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&s.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&s.dbDriver, "db-driver", "", "database driver: sqlite or pgx")
	pf.StringVar(&s.dbDSN, "db-dsn", "", "database DSN or sqlite file path")
	pf.StringVar(&s.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&s.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(
		newRefreshCommand(s),
		newNextCommand(s),
		newListCommand(s),
		newShowCommand(s),
		newWeatherCommand(s),
		newTodosCommand(s),
		newExportCommand(s),
		newWatchCommand(s),
		newREPLCommand(s),
	)
	return root
}

func newRefreshCommand(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the first page and replace the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Refresh(ctx) })
		},
	}
}

// The cursor lives in memory, so a one-shot "next" starts from page 1 and
// merges instead of replacing.
func newNextCommand(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Fetch the next page and merge it into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Next(ctx) })
		},
	}
}

func newListCommand(s *rootState) *cobra.Command {
	var (
		search string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.List(ctx, search, asJSON) })
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive filter on name and email")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func newShowCommand(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show one cached user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Show(ctx, args[0]) })
		},
	}
}

func newWeatherCommand(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "weather <email> | weather <lat> <lon>",
		Short: "Current weather at a cached user's location or at coordinates",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Weather(ctx, args) })
		},
	}
}

func newTodosCommand(s *rootState) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "List todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Todos(ctx, asJSON) })
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func newExportCommand(s *rootState) *cobra.Command {
	var to, name string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export cached users as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withApp(cmd, func(ctx context.Context, a *App) error { return a.Export(ctx, to, name) })
		},
	}
	cmd.Flags().StringVar(&to, "to", "file", "export target: file or s3")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name (default users-<timestamp>)")
	return cmd
}

func newREPLCommand(s *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := NewApp(cmd.Context(), s.config, s.log, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			a.Root(cmd.Context(), cmd.InOrStdin())
			return nil
		},
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
