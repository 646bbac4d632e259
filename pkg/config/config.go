package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "tasktimer"
	configFile = "config.yaml"

	// StoreEnv overrides StorePath when set.
	StoreEnv = "TASKTIMER_STORE"

	DefaultStorePath = "task_list.csv"
	DefaultLogLevel  = "warn"
)

type Config struct {
	StorePath   string `json:"store_path" yaml:"store_path" toml:"store_path"`
	ExportDir   string `json:"export_dir" yaml:"export_dir" toml:"export_dir"`
	CreateStore *bool  `json:"create_store,omitempty" yaml:"create_store,omitempty" toml:"create_store,omitempty"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
	if c.CreateStore == nil {
		create := true
		c.CreateStore = &create
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ShouldCreateStore reports whether a missing task list is created on startup.
func (c *Config) ShouldCreateStore() bool {
	return c.CreateStore == nil || *c.CreateStore
}

func GetConfigPath() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName, configFile), nil
}

// Load reads the default config file. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

// LoadFile reads a YAML, TOML or JSON config file, chosen by extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(StoreEnv); v != "" {
		c.StorePath = v
	}
}

// Save writes cfg to path in the format matching its extension.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewEncoder(f).Encode(cfg)
	case ".json":
		encoder := json.NewEncoder(f)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	default:
		encoder := yaml.NewEncoder(f)
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return err
		}
		return encoder.Close()
	}
}
