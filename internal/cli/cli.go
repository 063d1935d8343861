package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/buildinfo"
	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/config"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/observability"
	"github.com/matzehuels/chartpad/pkg/pipeline"
	"github.com/matzehuels/chartpad/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config     config.Config
	configPath string
	configFrom string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Chartpad turns small tables into charts",
		Long:         `Chartpad edits a table (rename, hide and reorder columns and rows) and keeps a chart mapping over it valid after every edit.`,
		Version:      buildinfo.Resolved(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			if c.Logger.GetLevel() <= log.DebugLevel {
				observability.NewLogHooks(c.Logger).Install()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/chartpad/config.toml)")

	root.AddCommand(c.specCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, from, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config, c.configFrom = cfg, from
	if from != "" {
		c.Logger.Debug("loaded config", "path", from)
	}
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Config.Cache.Prefix), c.Logger)
	if ttl := c.Config.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

// newCache picks the dataset cache: Redis when configured, the file cache
// otherwise. A cache directory that cannot be created disables caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.Config.Cache
	if noCache || cc.Disabled {
		return cache.NewNullCache(), nil
	}
	if cc.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cc.RedisURL, cc.Prefix)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(c.Config.CacheDir())
	if err != nil {
		c.Logger.Warn("dataset cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the configured session store.
func (c *CLI) newStore(ctx context.Context) (session.Store, error) {
	sc := c.Config.Store
	ttl := sc.TTL.Duration
	switch sc.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(ttl), nil
	case config.BackendRedis:
		s, err := session.NewRedisStore(ctx, sc.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMongo:
		s, err := session.NewMongoStore(ctx, sc.MongoURI, sc.Database, sc.Collection, ttl)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		s, err := session.NewFileStore(c.Config.SessionDir(), ttl)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// chartFlags are the session defaults shared by spec, apply and edit.
type chartFlags struct {
	chartType string
	bins      int
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.chartType, "chart", "t", "", "chart type (line, bar, stackedBar, area, radar, pie, donut, histogram, scatter)")
	cmd.Flags().IntVar(&f.bins, "bins", 0, "histogram bin count (1-50)")
}

// pipelineOptions merges flags over the configured chart defaults.
func (c *CLI) pipelineOptions(f chartFlags) pipeline.Options {
	opts := pipeline.Options{
		ChartType: mapping.ChartType(c.Config.Chart.Type),
		Bins:      c.Config.Chart.Bins,
		Palette:   c.Config.Chart.Palette,
		Logger:    c.Logger,
	}
	if f.chartType != "" {
		opts.ChartType = mapping.ChartType(f.chartType)
	}
	if f.bins != 0 {
		opts.Bins = f.bins
	}
	return opts
}

// sessionOptions returns the defaults for sessions restored from a store.
func (c *CLI) sessionOptions() session.Options {
	o := c.pipelineOptions(chartFlags{})
	return session.Options{ChartType: o.ChartType, Bins: o.Bins, Palette: o.Palette, Logger: c.Logger}
}
