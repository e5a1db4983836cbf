package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/stemstr/lnmock/internal/clock"
	"github.com/stemstr/lnmock/internal/invoice/encoder/bolt11"
)

const (
	defaultPort                 = 9737
	defaultNetwork              = bolt11.DefaultNetwork
	defaultEncoder              = "bolt11"
	defaultStore                = "memory"
	defaultDefaultExpirySeconds = 3600
)

type Config struct {
	Port                 int      `yaml:"port" envconfig:"PORT"`
	Debug                bool     `yaml:"debug" envconfig:"DEBUG"`
	Network              string   `yaml:"network" envconfig:"NETWORK"`
	Encoder              string   `yaml:"encoder" envconfig:"ENCODER"`
	Store                string   `yaml:"store" envconfig:"STORE"`
	NodeKey              string   `yaml:"node_key" envconfig:"NODE_KEY"`
	DefaultExpirySeconds int      `yaml:"default_expiry_seconds" envconfig:"DEFAULT_EXPIRY_SECONDS"`
	ClockStart           string   `yaml:"clock_start" envconfig:"CLOCK_START"`
	ClockWall            bool     `yaml:"clock_wall" envconfig:"CLOCK_WALL"`
	AllowedOrigins       []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// Load Config from a yaml file at path.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return err
	}

	c.applyDefaults()
	return c.validate()
}

// Load Config from the environment.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return err
	}

	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Network == "" {
		c.Network = defaultNetwork
	}
	if c.Encoder == "" {
		c.Encoder = defaultEncoder
	}
	if c.Store == "" {
		c.Store = defaultStore
	}
	if c.DefaultExpirySeconds == 0 {
		c.DefaultExpirySeconds = defaultDefaultExpirySeconds
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

func (c *Config) validate() error {
	switch c.Encoder {
	case "bolt11", "mock":
	default:
		return fmt.Errorf("unknown encoder %q. must be 'bolt11' or 'mock'", c.Encoder)
	}

	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store %q. must be 'memory' or 'sqlite'", c.Store)
	}

	if c.DefaultExpirySeconds < 0 {
		return fmt.Errorf("default_expiry_seconds must not be negative")
	}

	if c.ClockStart != "" && c.ClockWall {
		return fmt.Errorf("clock_start and clock_wall are mutually exclusive")
	}

	if _, err := c.clockStart(); err != nil {
		return err
	}

	return nil
}

func (c *Config) defaultExpiry() time.Duration {
	return time.Duration(c.DefaultExpirySeconds) * time.Second
}

// clockStart resolves where virtual time begins. clock_start takes RFC 3339
// or unix seconds.
func (c *Config) clockStart() (time.Time, error) {
	switch {
	case c.ClockWall:
		return time.Now().UTC(), nil
	case c.ClockStart == "":
		return clock.DefaultEpoch, nil
	}

	if t, err := time.Parse(time.RFC3339, c.ClockStart); err == nil {
		return t.UTC(), nil
	}

	if unix, err := strconv.ParseInt(c.ClockStart, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("clock_start %q must be RFC 3339 or unix seconds", c.ClockStart)
}
