package gamedata

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/internal/textenc"
)

// Config is the project file, binkit.yaml by convention.
type Config struct {
	SchemaDir  string     `yaml:"schema_dir"`
	DataDir    string     `yaml:"data_dir"`
	OutputDir  string     `yaml:"output_dir"`
	Encoding   string     `yaml:"encoding"`
	References References `yaml:"references"`
	Logging    Logging    `yaml:"logging"`
}

// References selects the resolution policy.
type References struct {
	StrictRead          bool `yaml:"strict_read"`
	StrictWritePointers bool `yaml:"strict_write_pointers"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		SchemaDir: "./schema",
		DataDir:   "./data",
		OutputDir: "./out",
		Encoding:  textenc.Default,
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their defaults, and relative directories are taken relative
// to the file.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if _, err := textenc.Lookup(config.Encoding); err != nil {
		return nil, fmt.Errorf("config encoding: %w", err)
	}

	base := filepath.Dir(configPath)
	for _, dir := range []*string{&config.SchemaDir, &config.DataDir, &config.OutputDir} {
		if !filepath.IsAbs(*dir) {
			*dir = filepath.Join(base, *dir)
		}
	}
	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Policy returns the engine resolution policy the config selects.
func (c *Config) Policy() engine.Policy {
	return engine.Policy{
		StrictReadReferences: c.References.StrictRead,
		StrictWritePointers:  c.References.StrictWritePointers,
	}
}
