package config

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/javanhut/treestream/internal/treestream"
)

// Config represents treestream configuration
type Config struct {
	Decode DecodeConfig `json:"decode"`
	Export ExportConfig `json:"export"`
	Color  ColorConfig  `json:"color"`
}

// DecodeConfig holds stream decoding settings
type DecodeConfig struct {
	ByteOrder  string `json:"byte_order"`  // "little" or "big"
	ForkPolicy string `json:"fork_policy"` // "overwrite" or "reject"
}

// ExportConfig holds artifact export settings
type ExportConfig struct {
	MakeDirs bool `json:"make_dirs"`
}

// ColorConfig holds color settings
type ColorConfig struct {
	UI bool `json:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Decode: DecodeConfig{
			ByteOrder:  "little",
			ForkPolicy: "overwrite",
		},
		Export: ExportConfig{
			MakeDirs: false,
		},
		Color: ColorConfig{
			UI: true,
		},
	}
}

// GlobalPath returns the path to the global config file
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".treestreamconfig"), nil
}

// LocalPath returns the path to the working directory config file
func LocalPath() string {
	return ".treestream.json"
}

// LoadConfig loads configuration from both global and local config files
// Local config takes precedence over global config
func LoadConfig() (*Config, error) {
	globalPath, err := GlobalPath()
	if err != nil {
		globalPath = ""
	}
	return LoadFrom(globalPath, LocalPath())
}

// LoadFrom layers the given files over the defaults. Missing files are
// skipped; empty paths are ignored.
func LoadFrom(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", p, err)
		}
		// Fields present in the file override earlier layers.
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", p, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path
func Save(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	if _, err := ParseByteOrder(c.Decode.ByteOrder); err != nil {
		return err
	}
	if _, err := ParseForkPolicy(c.Decode.ForkPolicy); err != nil {
		return err
	}
	return nil
}

// DecodeOptions converts the decode section into decoder options
func (c *Config) DecodeOptions() (treestream.Options, error) {
	order, err := ParseByteOrder(c.Decode.ByteOrder)
	if err != nil {
		return treestream.Options{}, err
	}
	policy, err := ParseForkPolicy(c.Decode.ForkPolicy)
	if err != nil {
		return treestream.Options{}, err
	}
	return treestream.Options{ByteOrder: order, ForkPolicy: policy}, nil
}

// ParseByteOrder maps "little"/"big" to a byte order
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("invalid byte order: %s (expected little or big)", s)
	}
}

// ParseForkPolicy maps "overwrite"/"reject" to a fork policy
func ParseForkPolicy(s string) (treestream.ForkPolicy, error) {
	switch strings.ToLower(s) {
	case "", "overwrite":
		return treestream.ForkOverwrite, nil
	case "reject":
		return treestream.ForkReject, nil
	default:
		return 0, fmt.Errorf("invalid fork policy: %s (expected overwrite or reject)", s)
	}
}

// Get retrieves a configuration value by key (e.g., "decode.byte_order")
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "decode":
		switch field {
		case "byte_order":
			return c.Decode.ByteOrder, nil
		case "fork_policy":
			return c.Decode.ForkPolicy, nil
		default:
			return "", fmt.Errorf("unknown decode config field: %s", field)
		}
	case "export":
		switch field {
		case "make_dirs":
			return strconv.FormatBool(c.Export.MakeDirs), nil
		default:
			return "", fmt.Errorf("unknown export config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			return strconv.FormatBool(c.Color.UI), nil
		default:
			return "", fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return "", fmt.Errorf("unknown config section: %s", section)
	}
}

// Set sets a configuration value by key (e.g., "decode.byte_order", "big")
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "decode":
		switch field {
		case "byte_order":
			if _, err := ParseByteOrder(value); err != nil {
				return err
			}
			c.Decode.ByteOrder = strings.ToLower(value)
		case "fork_policy":
			if _, err := ParseForkPolicy(value); err != nil {
				return err
			}
			c.Decode.ForkPolicy = strings.ToLower(value)
		default:
			return fmt.Errorf("unknown decode config field: %s", field)
		}
	case "export":
		switch field {
		case "make_dirs":
			b, err := parseBool(key, value)
			if err != nil {
				return err
			}
			c.Export.MakeDirs = b
		default:
			return fmt.Errorf("unknown export config field: %s", field)
		}
	case "color":
		switch field {
		case "ui":
			b, err := parseBool(key, value)
			if err != nil {
				return err
			}
			c.Color.UI = b
		default:
			return fmt.Errorf("unknown color config field: %s", field)
		}
	default:
		return fmt.Errorf("unknown config section: %s", section)
	}
	return nil
}

// SetValue loads the file at path (or defaults), sets key and saves it back
func SetValue(path, key, value string) error {
	cfg := DefaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return Save(cfg, path)
}

// Keys lists every supported configuration key
func Keys() []string {
	return []string{"decode.byte_order", "decode.fork_policy", "export.make_dirs", "color.ui"}
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %s (expected true or false)", key, value)
	}
	return b, nil
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid config key: %s (expected format: section.key)", key)
	}
	return parts[0], parts[1], nil
}
