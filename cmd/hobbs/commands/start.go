package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hobbsbbs/hobbs/internal/chat"
	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/internal/metrics"
	"github.com/hobbsbbs/hobbs/internal/ops"
	"github.com/hobbsbbs/hobbs/internal/render"
	"github.com/hobbsbbs/hobbs/internal/screen"
	"github.com/hobbsbbs/hobbs/internal/session"
	"github.com/hobbsbbs/hobbs/internal/telemetry"
	"github.com/hobbsbbs/hobbs/internal/throttle"
	"github.com/hobbsbbs/hobbs/pkg/blob"
	"github.com/hobbsbbs/hobbs/pkg/config"
	"github.com/hobbsbbs/hobbs/pkg/server"
	"github.com/hobbsbbs/hobbs/pkg/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HOBBS server",
	Long: `Start the HOBBS telnet server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/hobbs/config.yaml.

Examples:
  # Start with default config location
  hobbs start

  # Start with custom config file
  hobbs start --config /etc/hobbs/config.yaml

  # Start with environment variable overrides
  HOBBS_LOG_LEVEL=DEBUG hobbs start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "hobbs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "hobbs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("starting", "name", cfg.BBS.Name, "version", Version)
	logger.Info("configuration loaded", "source", configSource(GetConfigFile()))

	if cfg.Metrics.Enabled {
		metrics.Init()
		logger.Info("metrics enabled", "listen", cfg.Metrics.Listen)
	}

	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()
	logger.Info("store ready", "driver", string(cfg.Database.Driver))

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	defer func() { _ = blobs.Close() }()
	logger.Info("blob store ready", "driver", string(cfg.Blob.Driver))

	renderer, err := render.New()
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}

	srv := server.New(cfg, screen.Deps{
		Store:    st,
		Blobs:    blobs,
		Config:   cfg,
		Renderer: renderer,
		Registry: session.NewRegistry(),
		Chat:     chat.NewManager(),
		MailGate: throttle.NewRateLimiter(cfg.RateLimits.Mail.Capacity, cfg.RateLimits.Mail.Refill()),
		PostGate: throttle.NewRateLimiter(cfg.RateLimits.Post.Capacity, cfg.RateLimits.Post.Refill()),
		Login:    throttle.NewLoginThrottler(0, 0, 0),
		Metrics:  metrics.New(),
		Version:  Version,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	g.Go(func() error {
		return server.NewMailSweeper(st, 0).Run(gctx)
	})

	if cfg.Metrics.Enabled {
		opsSrv := ops.New(cfg.Metrics.Listen, func(ctx context.Context) error {
			_, err := st.CountUsers(ctx)
			return err
		})
		g.Go(func() error {
			return opsSrv.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			return opsSrv.Shutdown(shutdownCtx)
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverDone := make(chan error, 1)
	go func() { serverDone <- g.Wait() }()

	logger.Info("server is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		logger.Info("shutdown signal received, draining sessions")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("shutdown error", "error", err)
			return err
		}
		logger.Info("server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("server stopped")
	}

	return nil
}

// configSource describes where the configuration was loaded from.
func configSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
