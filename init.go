package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tournevent/carrierlink/internal/config"
	"github.com/tournevent/carrierlink/internal/events"
	"github.com/tournevent/carrierlink/internal/store"
	"github.com/tournevent/carrierlink/internal/telemetry"
	"github.com/tournevent/carrierlink/pkg/shipper"
	"github.com/tournevent/carrierlink/pkg/shipper/canpar"
	"github.com/tournevent/carrierlink/pkg/shipper/carrierconfig"
	"github.com/tournevent/carrierlink/pkg/shipper/eshipplus"
	"github.com/tournevent/carrierlink/pkg/shipper/mock"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, cfg.ServiceName)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Attributes()...)
}

type storage struct {
	store    store.Store
	resolver *carrierconfig.Resolver
	close    func(context.Context) error
}

func initStorage(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*storage, error) {
	if strings.EqualFold(cfg.StoreDriver, config.StoreMemory) {
		logger.Warn("Using in-memory storage, records are lost on restart")
		return &storage{
			store:    store.NewMemory(),
			resolver: carrierconfig.NewResolver(carrierconfig.NewMemoryStore(localCarriers(cfg)...)),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	client, db, err := store.Connect(ctx, store.MongoConfig{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, err
	}

	carriers := store.NewCarrierStore(db)
	if err := carriers.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure carrier indexes", zap.Error(err))
	}

	return &storage{
		store:    store.NewMongo(db),
		resolver: carrierconfig.NewResolver(carriers),
		close:    client.Disconnect,
	}, nil
}

// localCarriers seeds the in-memory credential store with one record per
// enabled carrier so mock runs resolve without a database.
func localCarriers(cfg *config.Config) []carrierconfig.CarrierRecord {
	endpoints := map[string]string{}
	for _, op := range []shipper.Operation{shipper.OpRate, shipper.OpBook, shipper.OpCancel, shipper.OpLabel, shipper.OpHistory} {
		endpoints[op.EndpointKey()] = "/" + string(op)
	}

	var records []carrierconfig.CarrierRecord
	add := func(id, name string) {
		records = append(records, carrierconfig.CarrierRecord{
			ID:      id,
			Name:    name,
			Enabled: true,
			Status:  carrierconfig.StatusActive,
			APICredentials: shipper.CarrierCredentials{
				Username:  "local",
				Password:  "local",
				AccessKey: "local",
				HostURL:   "http://localhost",
				Endpoints: endpoints,
			},
		})
	}
	if cfg.CanparEnabled {
		add("local-canpar", "Canpar")
	}
	if cfg.EShipPlusEnabled {
		add("local-eshipplus", "eShipPlus")
	}
	return records
}

func initRecorder(ctx context.Context, cfg *config.Config, s store.Store, logger *otelzap.Logger) (events.Recorder, func(), error) {
	var closers []func() error
	var primary events.Recorder = events.NewStoreRecorder(s)

	if cfg.RedisEnabled {
		client, err := events.ConnectRedis(ctx, events.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, client.Close)
		primary = events.NewDeduper(client, primary, 0)
	}

	recorders := events.Multi{primary}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		closers = append(closers, publisher.Close)
		recorders = append(recorders, publisher)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close event sink", zap.Error(err))
			}
		}
	}
	return recorders, closeAll, nil
}

func initShipperRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*shipper.Registry, error) {
	policy, err := cfg.CancelPolicy()
	if err != nil {
		return nil, fmt.Errorf("cancel policy: %w", err)
	}

	registry := shipper.NewRegistry()

	if cfg.CanparEnabled {
		var client shipper.Shipper = canpar.New(canpar.Config{
			Timeout:      cfg.CarrierTimeout,
			Thermal:      cfg.CanparThermalLabels,
			CancelPolicy: policy,
		}, logger, tracer)
		if cfg.CanparUseMock {
			client = mock.New(client.Name())
		}
		registry.Register(client, canpar.Aliases...)
	}

	if cfg.EShipPlusEnabled {
		var client shipper.Shipper = eshipplus.New(eshipplus.Config{
			Timeout:      cfg.CarrierTimeout,
			CancelPolicy: policy,
		}, logger, tracer)
		if cfg.EShipPlusUseMock {
			client = mock.NewWithMode(client.Name(), shipper.ModeFreight)
		}
		registry.Register(client, eshipplus.Aliases...)
	}

	return registry, nil
}
