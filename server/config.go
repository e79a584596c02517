package server

import (
	"fmt"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds, 0 disables the limit for long sample streams
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxLimit     int    `yaml:"max_limit" mapstructure:"max_limit"`         // cap on ?limit=, 0 means none
	MaxPasses    int    `yaml:"max_passes" mapstructure:"max_passes"`       // concurrent sample streams, 0 means unbounded
	PassWait     int    `yaml:"pass_wait" mapstructure:"pass_wait"`         // seconds to wait for a pass slot
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.MaxPasses < 0 {
		return fmt.Errorf("server.max_passes must be non-negative (got: %d)", c.MaxPasses)
	}
	if c.PassWait < 0 {
		return fmt.Errorf("server.pass_wait must be non-negative (got: %d)", c.PassWait)
	}
	if c.MaxLimit < 0 {
		return fmt.Errorf("server.max_limit must be non-negative (got: %d)", c.MaxLimit)
	}
	return nil
}
