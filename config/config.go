// ABOUTME: Application configuration loaded from .env, an XDG JSON file, and the environment
// ABOUTME: Covers the store backend, HTTP address, logging, sampling seed, OpenAI, and Google OAuth settings

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG directories.
	AppName = "outbound"

	// ConfigFileName is where we store local config.
	ConfigFileName = "config.json"

	DefaultAddr        = ":8080"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultParallelism = 4

	envPrefix = "OUTBOUND_"
)

// Config holds every setting the binaries read.
type Config struct {
	// Store is the backend: "sqlite" (default) or "badger".
	Store     string `json:"store,omitempty"`
	DBPath    string `json:"db_path,omitempty"`
	BadgerDir string `json:"badger_dir,omitempty"`

	Addr    string `json:"addr,omitempty"`
	LogMode string `json:"log_mode,omitempty"`

	// Seed fixes the sampling source; 0 seeds from the clock.
	Seed int64 `json:"seed,omitempty"`

	OpenAIKey   string `json:"openai_key,omitempty"`
	OpenAIModel string `json:"openai_model,omitempty"`
	Parallelism int    `json:"parallelism,omitempty"`

	GoogleClientID     string `json:"google_client_id,omitempty"`
	GoogleClientSecret string `json:"google_client_secret,omitempty"`
	Sender             string `json:"sender,omitempty"`

	path string
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store:       "sqlite",
		DBPath:      filepath.Join(xdg.DataHome, AppName, AppName+".db"),
		BadgerDir:   filepath.Join(xdg.DataHome, AppName, "badger"),
		Addr:        DefaultAddr,
		LogMode:     "dev",
		OpenAIModel: DefaultOpenAIModel,
		Parallelism: DefaultParallelism,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/outbound/config.json.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// Load reads .env from the working directory (if present), then the config
// file at path (DefaultPath when empty; a missing file gives defaults), then
// OUTBOUND_* environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}
	cfg.path = path

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("STORE", &c.Store)
	str("DB_PATH", &c.DBPath)
	str("BADGER_DIR", &c.BadgerDir)
	str("ADDR", &c.Addr)
	str("LOG_MODE", &c.LogMode)
	str("OPENAI_MODEL", &c.OpenAIModel)
	str("GOOGLE_CLIENT_ID", &c.GoogleClientID)
	str("GOOGLE_CLIENT_SECRET", &c.GoogleClientSecret)
	str("SENDER", &c.Sender)

	// The OpenAI key is usually exported without our prefix.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	str("OPENAI_KEY", &c.OpenAIKey)

	if v, ok := os.LookupEnv(envPrefix + "SEED"); ok {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSEED: %w", envPrefix, err)
		}
		c.Seed = seed
	}
	if v, ok := os.LookupEnv(envPrefix + "PARALLELISM"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sPARALLELISM: %w", envPrefix, err)
		}
		c.Parallelism = n
	}
	return nil
}

// Apply defaults for missing fields
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Store == "" {
		c.Store = d.Store
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.BadgerDir == "" {
		c.BadgerDir = d.BadgerDir
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = d.OpenAIModel
	}
	if c.Parallelism < 1 {
		c.Parallelism = d.Parallelism
	}
}

// StoreLocation is the file or directory the configured backend opens.
func (c *Config) StoreLocation() string {
	if c.Store == "badger" {
		return c.BadgerDir
	}
	return c.DBPath
}

// Path is the file Save writes to.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save persists the config to disk.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
