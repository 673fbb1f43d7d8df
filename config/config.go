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

	"github.com/matriforce/dispatch/core/dispatch"
	"github.com/matriforce/dispatch/core/metrics"
	"github.com/matriforce/dispatch/infra/mqtt"
)

type Config struct {
	MQTT      mqtt.Config     `json:"mqtt"`
	Dispatch  dispatch.Config `json:"dispatch"`
	Metrics   metrics.Config  `json:"metrics"`
	Intake    IntakeConfig    `json:"intake"`
	Lifecycle LifecycleConfig `json:"lifecycle"`
	Audit     AuditConfig     `json:"audit"`
	API       APIConfig       `json:"api"`
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
	cfg.Dispatch.SetDefaults()
	cfg.Intake.SetDefaults()
	cfg.Lifecycle.SetDefaults()
	cfg.Audit.SetDefaults()
	if err := cfg.Intake.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Lifecycle.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
