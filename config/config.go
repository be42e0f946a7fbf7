// Package config loads and saves the simulator's TOML configuration:
// core count, memory and cache geometry, the address translator, and
// cycle limits.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the simulator's full configuration.
type Config struct {
	// Execution settings.
	Execution struct {
		NumCores    int    `toml:"num_cores"`
		MaxCycles   uint64 `toml:"max_cycles"`
		MemoryWords int    `toml:"memory_words"`
		EntryPoint  uint32 `toml:"entry_point"`
		EnableTrace bool   `toml:"enable_trace"`
	} `toml:"execution"`

	// Cache geometry, shared by every core's L1.
	Cache struct {
		NumSets    uint32 `toml:"num_sets"`
		BlockWords uint32 `toml:"block_words"`
	} `toml:"cache"`

	// Translator selects the address translation scheme applied by
	// every core before issuing a memory request.
	Translator struct {
		Mode string `toml:"mode"` // "identity" or "reverse"
	} `toml:"translator"`

	// Statistics settings.
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, csv
	} `toml:"statistics"`
}

// DefaultConfig returns a configuration with default values: a single
// core, a 100-cycle-latency 64K-word backing store, a 4-set,
// 4-word-block cache, and the identity translator.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.NumCores = 1
	cfg.Execution.MaxCycles = 1_000_000
	cfg.Execution.MemoryWords = 65536
	cfg.Execution.EntryPoint = 0x1000
	cfg.Execution.EnableTrace = false

	cfg.Cache.NumSets = 4
	cfg.Cache.BlockWords = 4

	cfg.Translator.Mode = "identity"

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "rustv")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "rustv")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: the defaults are returned instead.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
