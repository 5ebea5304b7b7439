package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/simmap/simmap/qmap"
	"github.com/simmap/simmap/qmap/bench"
	"github.com/simmap/simmap/qmap/optimize"
	"github.com/simmap/simmap/qmap/store"
)

// StoreConfig locates the donor database.
type StoreConfig struct {
	DSN        string `yaml:"dsn"`
	Table      string `yaml:"table"`
	Dimensions int    `yaml:"dimensions"` // embedding vector length, used when creating the table
}

// EmbeddingConfig locates the embedding service.
type EmbeddingConfig struct {
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // environment variable holding the API key (optional)
}

// GenerateConfig bounds random circuit generation.
type GenerateConfig struct {
	MinQubits int `yaml:"min_qubits"`
	MaxQubits int `yaml:"max_qubits"`
	Length    int `yaml:"length"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version   string          `yaml:"version"`
	Layout    string          `yaml:"layout"`
	Optimize  optimize.Config `yaml:"optimize"`
	Bench     bench.Config    `yaml:"bench"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Generate  GenerateConfig  `yaml:"generate"`
}

// builtinConfig holds the values used for anything defaults.yaml leaves out.
func builtinConfig() Config {
	return Config{
		Layout:   string(qmap.LayoutCompact),
		Optimize: optimize.DefaultConfig(),
		Bench:    bench.DefaultConfig(),
		Store:    StoreConfig{Table: store.DefaultTable, Dimensions: 768},
		Generate: GenerateConfig{MinQubits: 3, MaxQubits: 30, Length: 100},
	}
}

// parseDefaultsConfig decodes defaults.yaml with strict field checking: typos
// must cause errors. Sections and fields left out of the file keep the
// built-in defaults.
func parseDefaultsConfig(data []byte) (Config, error) {
	cfg := builtinConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	if err := cfg.Optimize.Validate(); err != nil {
		return Config{}, err
	}
	if err := cfg.Bench.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Generate.MinQubits < 2 || cfg.Generate.MaxQubits < cfg.Generate.MinQubits {
		return Config{}, fmt.Errorf("generate: need 2 <= min_qubits <= max_qubits, got %d..%d",
			cfg.Generate.MinQubits, cfg.Generate.MaxQubits)
	}
	return cfg, nil
}

// loadDefaultsConfig reads and parses defaults.yaml; any error is fatal.
func loadDefaultsConfig(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("Failed to read defaults file: %v", err)
	}
	cfg, err := parseDefaultsConfig(data)
	if err != nil {
		logrus.Fatalf("Invalid defaults file %s: %v", path, err)
	}
	return cfg
}
