package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tournevent/carrierlink/pkg/shipper"
)

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"carrierlink"`

	// Status events
	RedisEnabled bool     `envconfig:"REDIS_ENABLED" default:"false"`
	RedisAddr    string   `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"shipment-status"`

	// Carriers
	CarrierTimeout        time.Duration `envconfig:"CARRIER_TIMEOUT" default:"30s"`
	CancelAmbiguousPolicy string        `envconfig:"CANCEL_AMBIGUOUS_POLICY" default:"assume_cancelled"`

	CanparEnabled       bool `envconfig:"CANPAR_ENABLED" default:"true"`
	CanparThermalLabels bool `envconfig:"CANPAR_THERMAL_LABELS" default:"false"`
	CanparUseMock       bool `envconfig:"CANPAR_USE_MOCK" default:"false"`

	EShipPlusEnabled bool `envconfig:"ESHIPPLUS_ENABLED" default:"true"`
	EShipPlusUseMock bool `envconfig:"ESHIPPLUS_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"carrierlink"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("loading config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.CarrierTimeout <= 0 {
		return fmt.Errorf("loading config: CARRIER_TIMEOUT must be positive")
	}
	if _, err := c.CancelPolicy(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return nil
}

// CancelPolicy returns the parsed CANCEL_AMBIGUOUS_POLICY.
func (c *Config) CancelPolicy() (shipper.AmbiguousCancelPolicy, error) {
	return shipper.ParseCancelPolicy(c.CancelAmbiguousPolicy)
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("store.driver", c.StoreDriver),
		attribute.Bool("canpar.enabled", c.CanparEnabled),
		attribute.Bool("eshipplus.enabled", c.EShipPlusEnabled),
	}
}
