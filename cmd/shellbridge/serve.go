package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/shellbridge"
	"github.com/aretw0/shellbridge/internal/listener"
	httpAdapter "github.com/aretw0/shellbridge/pkg/adapters/http"
	"github.com/aretw0/shellbridge/pkg/domain"
	"github.com/aretw0/shellbridge/pkg/observability"
	"github.com/aretw0/shellbridge/pkg/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge until interrupted",
	Long: `Binds the loopback listener, publishes its port and serves messages until SIGINT or
SIGTERM. SIGHUP closes the listener and binds a fresh port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("admin"); addr != "" {
			cfg.Admin.Addr = addr
		}
		logger := newLogger(cfg.Log)

		registry, closeRegistry, err := openRegistry(cfg.Registry)
		if err != nil {
			return fmt.Errorf("failed to open registry: %w", err)
		}
		defer func() {
			if err := closeRegistry(); err != nil {
				logger.Warn("failed to close registry", "err", err)
			}
		}()

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err := metrics.Register(); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}

		r := router.New()
		ctrl := shellbridge.New(
			shellbridge.WithLogger(logger),
			shellbridge.WithRegistry(registry),
			shellbridge.WithHandler(r),
			shellbridge.WithMetrics(metrics),
			shellbridge.WithTracer(observability.NewTracer("")),
			shellbridge.WithPoolSize(cfg.Pool.MaxWorkers),
			shellbridge.WithQueueSize(cfg.Pool.QueueSize),
			shellbridge.WithDrainTimeout(cfg.Pool.DrainTimeout),
			shellbridge.WithReadTimeout(cfg.Handler.ReadTimeout),
			shellbridge.WithMaxMessageBytes(cfg.Handler.MaxMessageBytes),
			shellbridge.WithMaxBindAttempts(cfg.Listener.MaxBindAttempts),
			shellbridge.WithBindTimeout(cfg.Listener.BindTimeout),
			shellbridge.WithListenerOptions(listener.WithBacklog(cfg.Listener.Backlog)),
		)
		registerCommands(r, ctrl)

		ctrl.OnSocketOpen(func(ev domain.SocketEvent) {
			logger.Info("socket open", "port", ev.Port, "generation", ev.Generation)
		})
		ctrl.OnSocketClose(func(ev domain.SocketEvent) {
			if ev.Err != nil {
				logger.Error("socket closed unexpectedly", "port", ev.Port, "generation", ev.Generation, "err", ev.Err)
				return
			}
			logger.Info("socket closed", "port", ev.Port, "generation", ev.Generation)
		})

		if !ctrl.Connect() {
			return fmt.Errorf("failed to start bridge: %w", ctrl.LastError())
		}
		defer ctrl.Disconnect()

		serverErrors := make(chan error, 1)
		var srv *http.Server
		if cfg.Admin.Addr != "" {
			srv = &http.Server{
				Addr:              cfg.Admin.Addr,
				Handler:           httpAdapter.NewHandler(ctrl, httpAdapter.WithLogger(logger)),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				logger.Info("admin server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErrors <- err
				}
			}()
		}

		err = waitForShutdown(ctrl, serverErrors, logger)

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(ctx); serr != nil {
				logger.Warn("admin server did not stop gracefully", "err", serr)
				_ = srv.Close()
			}
		}
		return err
	},
}

// waitForShutdown blocks until SIGINT/SIGTERM or an admin server failure.
// SIGHUP rebinds the bridge on a fresh port.
func waitForShutdown(ctrl *shellbridge.Controller, serverErrors <-chan error, logger *slog.Logger) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for {
		select {
		case err := <-serverErrors:
			return fmt.Errorf("admin server: %w", err)

		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				logger.Info("rebinding bridge", "signal", sig.String())
				ctrl.Disconnect()
				if !ctrl.Connect() {
					return fmt.Errorf("failed to rebind bridge: %w", ctrl.LastError())
				}
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			return nil
		}
	}
}

// registerCommands installs the commands the bridge answers out of the box.
func registerCommands(r *router.Router, ctrl *shellbridge.Controller) {
	r.Handle("ping", router.Pong)
	r.Handle("echo", router.Echo)
	r.Handle("status", func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		return domain.NewMessage("status", ctrl.Status()), nil
	})
	r.Handle("getFilterFolders", func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		folders, err := ctrl.FilterFolders(ctx)
		if err != nil {
			return nil, err
		}
		return domain.NewMessage("filterFolders", folders), nil
	})
	r.Handle("setFilterFolders", func(ctx context.Context, msg domain.Message) (*domain.Message, error) {
		folders, err := stringList(msg.Value)
		if err != nil {
			return nil, err
		}
		if err := ctrl.SetFilterFolders(ctx, folders...); err != nil {
			return nil, err
		}
		return domain.NewMessage("filterFolders", folders), nil
	})
}

func stringList(v any) ([]string, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{value}, nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("folder must be a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value must be a string or a list of strings, got %T", v)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("admin", "", "Override admin.addr (e.g. 127.0.0.1:9090)")
}
