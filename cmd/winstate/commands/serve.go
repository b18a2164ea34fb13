package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/winstate/internal/api"
	"github.com/bryanchriswhite/winstate/internal/backend"
	"github.com/bryanchriswhite/winstate/internal/config"
	"github.com/bryanchriswhite/winstate/internal/logger"
	"github.com/bryanchriswhite/winstate/internal/window"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the primary window and serve the API",
	Long: `Open the primary window on the configured backend, apply queued
commands every tick and serve the REST/WebSocket API.

The window section of the config file is watched; edits are turned into
the same commands the API would queue.`,
	Example: `  # Headless, in-memory backend on the default port (8080)
  winstate serve

  # Drive an existing X11 window (id from xwininfo)
  winstate serve --backend x11 --x11-window 0x3a00007

  # Start with debug logging
  winstate serve --log-level debug --pretty`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("backend", "", "window backend (recorder or x11)")
	serveCmd.Flags().String("x11-window", "", "id of the X11 window to drive")

	viper.BindPFlag("backend.kind", serveCmd.Flags().Lookup("backend"))
	viper.BindPFlag("backend.x11_window", serveCmd.Flags().Lookup("x11-window"))
}

// applyOverrides copies flag and environment values over the file config
func applyOverrides(cfg *config.Config) {
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			cfg.ServerPort = port
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			cfg.LogLevel = level
		}
	}
	if viper.IsSet("backend.kind") {
		if kind := viper.GetString("backend.kind"); kind != "" {
			cfg.Backend.Kind = kind
		}
	}
	if viper.IsSet("backend.x11_window") {
		if id := viper.GetString("backend.x11_window"); id != "" {
			cfg.Backend.X11Window = id
		}
	}
}

func newBackend(cfg config.BackendConfig) (backend.Backend, error) {
	switch cfg.Kind {
	case config.BackendX11:
		return backend.NewX11(cfg.X11Window)
	case config.BackendRecorder:
		return backend.NewRecorder(cfg.MonitorWidth, cfg.MonitorHeight, cfg.ScaleFactor), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	cfg := configMgr.Get()
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.LogLevel, viper.GetBool("pretty"))
	log := logger.WithComponent("serve")
	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("log_level", cfg.LogLevel).
		Str("backend", cfg.Backend.Kind).
		Msg("Configuration loaded")

	b, err := newBackend(cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to initialize backend: %w", err)
	}

	adapter, err := backend.NewAdapter(b, cfg.Window,
		backend.WithInterval(time.Duration(cfg.Backend.TickMS)*time.Millisecond))
	if err != nil {
		b.Close()
		return err
	}
	defer adapter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go adapter.Run(ctx)

	go func() {
		err := configMgr.Watch(ctx, func(prev, next *config.Config) {
			var queued int
			adapter.Update(func(s *window.State) {
				queued = window.ApplyDescriptor(s, prev.Window, next.Window)
			})
			if prev.LogLevel != next.LogLevel {
				zerolog.SetGlobalLevel(logger.ParseLevel(next.LogLevel))
			}
			log.Info().Int("queued", queued).Msg("Applied config changes to window")
		})
		if err != nil {
			log.Warn().Err(err).Msg("Config watching disabled")
		}
	}()

	server := api.NewServer(adapter)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Str("window", adapter.ID().String()).
		Str("api", fmt.Sprintf("http://localhost:%d/api", cfg.ServerPort)).
		Msg("winstate is running, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
