package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/patabol/internal/adapters/http/api"
	"github.com/okian/patabol/internal/adapters/notify"
	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/config"
	"github.com/okian/patabol/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	hub := notify.NewHub(notify.WithHubLogger(log.Named("hub")))
	defer hub.Close()

	notifier, closeNotifier, err := buildNotifier(cfg, hub, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	opts := append(service.ConfigOptions(cfg),
		service.WithNotifier(notifier),
		service.WithLogger(log.Named("service")),
	)
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(ctx, cfg.Addr, svc, hub, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildNotifier fans notifications out to the log, the websocket hub and,
// when configured, NATS. The returned func releases the NATS connection.
func buildNotifier(cfg *config.Config, hub *notify.Hub, log logger.Logger) (notify.Notifier, func(), error) {
	sinks := notify.Multi{notify.NewLogNotifier(log.Named("notify")), hub}
	if cfg.NATSURL == "" {
		return sinks, func() {}, nil
	}
	nc, err := notify.NewNATSNotifier(cfg.NATSURL,
		notify.WithSubjectPrefix(cfg.NATSSubjectPrefix),
		notify.WithNATSLogger(log.Named("nats")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	return append(sinks, nc), func() { _ = nc.Close() }, nil
}

func newHTTPServer(ctx context.Context, addr string, svc *service.Service, hub *notify.Hub, log logger.Logger) *http.Server {
	apiServer := api.NewServer(svc, hub, log.Named("api"))
	return &http.Server{
		Addr:              addr,
		Handler:           apiServer.Routes(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startServiceMetricsUpdater refreshes the service gauges periodically.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
