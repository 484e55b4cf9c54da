// Command frontgrid rasterizes a front observation file onto the global
// 0.75 degree grid.
//
// Usage:
//
//	frontgrid [input.nc [output.nc]]
//
// Arguments override INPUT_PATH and OUTPUT_PATH.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-front-grid/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-front-grid/internal/adapter/kafka"
	"github.com/couchcryptid/storm-front-grid/internal/adapter/netcdf"
	"github.com/couchcryptid/storm-front-grid/internal/config"
	"github.com/couchcryptid/storm-front-grid/internal/domain"
	"github.com/couchcryptid/storm-front-grid/internal/grid"
	"github.com/couchcryptid/storm-front-grid/internal/observability"
	"github.com/couchcryptid/storm-front-grid/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyArgs(os.Args[1:]); err != nil {
		slog.Error("invalid arguments", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("job failed", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("job complete", "output", cfg.OutputPath)
}

// run rasterizes cfg.InputPath into cfg.OutputPath. The output is finalized
// and closed on every return path, including cancellation.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (err error) {
	src, err := netcdf.OpenSource(cfg.InputPath)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, src.Close()) }()

	timeAxis, err := src.TimeAxis()
	if err != nil {
		return err
	}

	g := grid.Default()
	r, err := domain.NewRasterizer(g)
	if err != nil {
		return err
	}

	sink, err := netcdf.CreateSink(cfg.OutputPath, g, timeAxis, src.Name())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sink.Close()) }()

	var notifier pipeline.Notifier
	if cfg.NotifyEnabled() {
		n := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if cerr := n.Close(); cerr != nil {
				logger.Error("kafka notifier close error", "error", cerr)
			}
		}()
		notifier = n
		logger.Info("step summaries enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(src, sink, r, notifier, logger, metrics)

	if cfg.StatusEnabled() {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	return p.Run(ctx)
}
