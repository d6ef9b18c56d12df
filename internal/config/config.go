// Package config handles loading and validation of the enigma settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds the command's settings. Command-line flags override it.
type Config struct {
	// Machine is the description used when no machine argument is given.
	Machine string `toml:"machine" json:"machine" yaml:"machine"`

	Output  OutputConfig  `toml:"output" json:"output" yaml:"output"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`
	Watch   WatchConfig   `toml:"watch" json:"watch" yaml:"watch"`

	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// OutputConfig controls how converted messages are written.
type OutputConfig struct {
	// GroupSize is the number of symbols per output group. A negative
	// size disables grouping.
	GroupSize int `toml:"group_size" json:"group_size" yaml:"group_size"`
}

// LoggingConfig configures the logging package.
type LoggingConfig struct {
	Level    string `toml:"level" json:"level" yaml:"level"`
	Format   string `toml:"format" json:"format" yaml:"format"`
	Output   string `toml:"output" json:"output" yaml:"output"`
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// JournalConfig configures the session journal. The journal stores
// plaintext, so it is off unless asked for.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			GroupSize: 5,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(PlatformDataDir(), "journal.db"),
		},
		Watch: WatchConfig{
			DebounceMs: 250,
		},
	}
}

// ConfigPath returns the default settings file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads settings from path, or from ConfigPath when path is empty.
// A missing file yields the defaults. Environment overrides are applied
// and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies ENIGMA_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("ENIGMA_MACHINE"); v != "" {
		c.Machine = v
	}
	if v := os.Getenv("ENIGMA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENIGMA_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ENIGMA_GROUP_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Field: "ENIGMA_GROUP_SIZE", Message: fmt.Sprintf("not a number: %q", v)}
		}
		c.Output.GroupSize = n
	}
	if v := os.Getenv("ENIGMA_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
		c.Journal.Enabled = true
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Machine: c.Machine,
		Output:  c.Output,
		Logging: c.Logging,
		Journal: c.Journal,
		Watch:   c.Watch,
	}
}
