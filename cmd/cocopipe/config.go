package main

import (
	"fmt"
	"time"

	"github.com/kbukum/datasets/coco"
	"github.com/kbukum/datasets/config"
	"github.com/kbukum/datasets/observability"
	"github.com/kbukum/datasets/resilience"
	"github.com/kbukum/datasets/server"
	"github.com/kbukum/datasets/validation"
	"github.com/kbukum/datasets/version"
)

const serviceName = "cocopipe"

// Config is the cocopipe configuration file. See config.example.yml.
//
//	name: cocopipe
//	logging:
//	  level: info
//	  components:
//	    coco: debug
//	dataset:
//	  split: val
//	  year: "2017"
//	  kinds: [instances, captions]
//	  images: /data/coco/val2017.zip
//	  annotations: /data/coco/annotations_trainval2017.zip
//	server:
//	  port: 8080
//	telemetry:
//	  metrics: true
//	  endpoint: localhost:4318
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Dataset              coco.Config     `yaml:"dataset" mapstructure:"dataset"`
	Server               server.Config   `yaml:"server" mapstructure:"server"`
	Telemetry            TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	// Retry applies to archive reads outside a pass: checksum verification
	// and building the vocabulary.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Dataset.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Telemetry.ApplyDefaults()

	defaults := resilience.DefaultRetryConfig()
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaults.MaxAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = defaults.InitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = defaults.MaxBackoff
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry.BackoffFactor = defaults.BackoffFactor
	}
	c.Retry.RetryIf = resilience.IsRetryable
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("config.dataset: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config.retry.max_attempts must be at least 1 (got: %d)", c.Retry.MaxAttempts)
	}
	return nil
}

// TelemetryConfig enables the OTLP exporters.
type TelemetryConfig struct {
	Metrics    bool          `yaml:"metrics" mapstructure:"metrics"`
	Tracing    bool          `yaml:"tracing" mapstructure:"tracing"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Metrics true,required_if=Tracing true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults applies default values to the telemetry configuration.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
	if (c.Metrics || c.Tracing) && c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate validates the telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	return validation.Validate(c)
}

func (c *Config) meterConfig() *observability.MeterConfig {
	mc := observability.DefaultMeterConfig(c.Name)
	mc.ServiceVersion = c.Version
	mc.Environment = c.Environment
	mc.Endpoint = c.Telemetry.Endpoint
	mc.Insecure = c.Telemetry.Insecure
	mc.Interval = c.Telemetry.Interval
	return &mc
}

func (c *Config) tracerConfig() *observability.TracerConfig {
	tc := observability.DefaultTracerConfig(c.Name)
	tc.ServiceVersion = c.Version
	tc.Environment = c.Environment
	tc.Endpoint = c.Telemetry.Endpoint
	tc.Insecure = c.Telemetry.Insecure
	tc.SampleRate = c.Telemetry.SampleRate
	return &tc
}

func (c *Config) source() coco.Source {
	return coco.Source{Images: c.Dataset.Images, Annotations: c.Dataset.Annotations}
}
