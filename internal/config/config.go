// Manages the ghostbody configuration stored as YAML.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/pinned"
)

// Storage modes.
const (
	ModeVolatile = "volatile"
	ModeJSONL    = "jsonl"
)

// Config is the repository configuration.
// Loaded from a YAML file, created with defaults if missing.
type Config struct {
	Storage Storage `yaml:"storage" jsonschema:"description=Where committed bodies are kept"`
	Arena   Arena   `yaml:"arena" jsonschema:"description=Body buffer allocation"`
	Log     Log     `yaml:"log" jsonschema:"description=Logging"`
}

// Storage selects the repository backend.
type Storage struct {
	// Mode is "volatile" (in memory) or "jsonl" (persistent).
	Mode string `yaml:"mode" jsonschema:"enum=volatile,enum=jsonl,description=Storage backend"`
	// Path is the JSONL file. Relative paths are relative to the config
	// file. Required for the jsonl mode.
	Path string `yaml:"path,omitempty" jsonschema:"description=JSONL file for the jsonl mode"`
}

// Validate checks the storage mode and path.
func (s *Storage) Validate() error {
	switch s.Mode {
	case ModeVolatile:
	case ModeJSONL:
		if s.Path == "" {
			return errors.New("path is required for the jsonl mode")
		}
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	return nil
}

// Arena configures the body buffer allocator.
type Arena struct {
	// ChunkSize is the size of the chunks regions are carved from.
	ChunkSize int `yaml:"chunk_size" jsonschema:"minimum=4096,description=Chunk size in bytes"`
}

// Validate checks that the chunk size is reasonable.
func (a *Arena) Validate() error {
	if a.ChunkSize < 4096 {
		return errors.New("chunk_size must be at least 4096")
	}
	return nil
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Minimum level"`
}

// Validate checks the level name.
func (l *Log) Validate() error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("invalid level %q", l.Level)
	}
	return nil
}

// SlogLevel returns the configured level, Info when invalid.
func (l *Log) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Storage: Storage{Mode: ModeVolatile},
		Arena:   Arena{ChunkSize: pinned.DefaultChunkSize},
		Log:     Log{Level: "info"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Arena.Validate(); err != nil {
		return fmt.Errorf("arena: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// StoragePath resolves Storage.Path against the directory of the config
// file at cfgPath.
func (c *Config) StoragePath(cfgPath string) string {
	if c.Storage.Path == "" || filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(filepath.Dir(cfgPath), c.Storage.Path)
}

// Load loads the configuration from path.
// Creates the file with defaults if it doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// JSONSchema returns the JSON schema of the configuration file, for editor
// completion.
func JSONSchema() ([]byte, error) {
	r := jsonschema.Reflector{FieldNameTag: "yaml", DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "ghostbody configuration"
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
