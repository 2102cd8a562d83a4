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

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/core/runlog"
	"github.com/kilianp07/fleetplan/core/search"
)

// EnvPrefix marks environment overrides, e.g. FP_SEARCH__SEED=7.
const EnvPrefix = "FP_"

type Config struct {
	Data      DataConfig      `json:"data"`
	Search    search.Config   `json:"search"`
	Evaluator evaluate.Config `json:"evaluator"`
	Metrics   metrics.Config  `json:"metrics"`
	RunLog    runlog.Config   `json:"runlog"`
	Export    ExportConfig    `json:"export"`
}

// Load reads the configuration file at path, applies FP_ environment
// overrides, then defaults and validates every section. An empty path
// loads defaults and environment overrides only. The search and evaluator
// sections start from their defaults and are decoded over them, so an
// explicit zero in the file or environment is kept.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{
		Search:    search.DefaultConfig(),
		Evaluator: evaluate.DefaultConfig(),
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Data.SetDefaults()
	cfg.RunLog.SetDefaults()
	cfg.Export.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section. Zero search and
// evaluator fields count as unset here.
func (c *Config) SetDefaults() {
	c.Data.SetDefaults()
	c.Search.SetDefaults()
	c.Evaluator.SetDefaults()
	c.RunLog.SetDefaults()
	c.Export.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	for name, v := range map[string]interface{ Validate() error }{
		"data":      c.Data,
		"search":    c.Search,
		"evaluator": c.Evaluator,
		"metrics":   c.Metrics,
		"runlog":    c.RunLog,
		"export":    c.Export,
	} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
