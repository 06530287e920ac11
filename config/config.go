package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/voltmesh/bessopt/core/metrics"
	"github.com/voltmesh/bessopt/infra/mqtt"
	"github.com/voltmesh/bessopt/infra/resultstore"
)

type Config struct {
	Server   ServerConfig       `json:"server"`
	Battery  BatteryConfig      `json:"battery"`
	Prices   PricesConfig       `json:"prices"`
	Forecast ForecastConfig     `json:"forecast"`
	Solver   SolverConfig       `json:"solver"`
	Results  resultstore.Config `json:"results"`
	MQTT     mqtt.Config        `json:"mqtt"`
	Metrics  coremetrics.Config `json:"metrics"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section at its defaults, used
// when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset section.
func (c *Config) ApplyDefaults() {
	c.Server.SetDefaults()
	c.Battery.SetDefaults()
	c.Prices.SetDefaults()
	c.Forecast.SetDefaults()
	c.Solver.SetDefaults()
	c.Results.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Battery.Validate(); err != nil {
		return err
	}
	if err := c.Prices.Validate(); err != nil {
		return err
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	return c.MQTT.Validate()
}
