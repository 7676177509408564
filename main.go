package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/booking"
	"github.com/tournevent/carrierlink/internal/server"
	"github.com/tournevent/carrierlink/internal/telemetry"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "carrierlink",
	Short:   "Carrierlink - freight and courier carrier integration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	backend, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.close(context.Background())

	recorder, closeRecorder, err := initRecorder(ctx, cfg, backend.store, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	registry, err := initShipperRegistry(cfg, logger, tracer)
	if err != nil {
		return err
	}

	svc := booking.NewService(booking.Deps{
		Resolver: backend.resolver,
		Registry: registry,
		Store:    backend.store,
		Recorder: recorder,
		Logger:   logger,
		Metrics:  telemetry.NewMetrics(nil),
	})

	logger.Info("Starting carrierlink",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("store", cfg.StoreDriver),
		zap.Strings("carriers", registry.Names()),
	)

	srv := server.New(server.Config{Port: cfg.Port, Version: cfg.Version}, svc, registry, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
