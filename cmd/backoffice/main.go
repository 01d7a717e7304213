package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/augbriz/desarrollo-FE-tp/internal/app"
	"github.com/augbriz/desarrollo-FE-tp/internal/config"
	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		slog.Error("backoffice exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run blocks until ctx is canceled or the HTTP server fails.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Tracing.ServiceVersion == "" {
		cfg.Tracing.ServiceVersion = version
	}

	log := logger.New("backoffice", cfg.Log)
	slog.SetDefault(log)
	log.Info("backoffice starting",
		slog.String("version", version),
		slog.String("go", runtime.Version()),
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("store_api", cfg.StoreAPIURL),
		slog.String("snapshot_store", cfg.SnapshotStore),
		slog.String("timezone", cfg.Timezone),
		slog.Bool("events", cfg.KafkaEnabled()),
	)

	backoffice, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("wire backoffice: %w", err)
	}
	if err := backoffice.Run(ctx); err != nil {
		return err
	}

	log.Info("backoffice stopped")
	return nil
}
