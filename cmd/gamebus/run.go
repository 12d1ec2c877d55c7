package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/gamebus/internal/config"
	"github.com/dshills/gamebus/internal/logging"
	"github.com/dshills/gamebus/internal/metrics"
	"github.com/dshills/gamebus/internal/scene"
)

// runOptions holds the run command flags. Flags only override the file when
// set explicitly.
type runOptions struct {
	configPath  string
	ticks       int
	realtime    bool
	metricsAddr string
	watch       bool
	logLevel    string
	logFormat   string
	debug       bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a scene file and run its tick loop",
		Example: "  gamebus run --config scenes/arena.toml --ticks 600\n" +
			"  gamebus run -c scenes/arena.toml --realtime --watch --metrics-addr :9090",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScene(ctx, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Scene file (.toml, .yaml, .yml or .json)")
	f.IntVar(&opts.ticks, "ticks", 0, "Number of ticks to run (0 runs until interrupted)")
	f.BoolVar(&opts.realtime, "realtime", false, "Pace ticks with the wall clock")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	f.BoolVar(&opts.watch, "watch", false, "Reload the scene file when it changes")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error|off")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format: console|json")
	f.BoolVarP(&opts.debug, "debug", "d", false, "Log every dispatch on the bus")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// apply copies explicitly set flags onto cfg.
func (o runOptions) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("ticks") {
		cfg.Tick.Count = o.ticks
	}
	if flags.Changed("realtime") {
		cfg.Tick.Realtime = o.realtime
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("debug") {
		cfg.Bus.Debug = o.debug
	}
	// An unbounded loop is always paced.
	if cfg.Tick.Count == 0 {
		cfg.Tick.Realtime = true
	}
}

func runScene(ctx context.Context, cmd *cobra.Command, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), &cfg)

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  logging.Format(cfg.Log.Format),
		Output:  cmd.ErrOrStderr(),
		Service: "gamebus",
	})

	obs := metrics.New()
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := obs.Register(reg); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		srv, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	sc := scene.New(cfg,
		scene.WithLogger(logger),
		scene.WithObserver(obs),
		scene.WithGauges(obs),
	)
	defer sc.Close()

	if err := sc.Load(); err != nil {
		return err
	}

	if opts.watch {
		flags := cmd.Flags()
		go func() {
			err := config.Watch(ctx, opts.configPath, config.DefaultDebounce,
				func(next config.Config) {
					opts.apply(flags, &next)
					logger.Info().Str("path", opts.configPath).Msg("config changed")
					sc.QueueReload(next)
				},
				func(err error) {
					logger.Warn().Err(err).Msg("config reload failed")
				},
			)
			if err != nil {
				logger.Error().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	err = sc.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("interrupted")
		err = nil
	}
	if err != nil {
		return err
	}

	stats := sc.Bus().Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "ran %d ticks (%s game time), %d events published\n",
		sc.Ticks(), sc.Now(), stats.EventsPublished)
	return nil
}

// serveMetrics starts the Prometheus endpoint. The listener is bound before
// returning so address errors surface immediately.
func serveMetrics(addr string, g prometheus.Gatherer, logger zerolog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("metrics listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()
	return srv, nil
}
