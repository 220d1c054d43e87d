package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds connection details for the search backend.
type ServerConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// MonitorConfig configures re-index progress polling.
type MonitorConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs"`
}

// CacheConfig configures the settings cache.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs"`
}

// WizardConfig configures the settings wizard.
type WizardConfig struct {
	LowQualityMarkers []string `yaml:"low_quality_markers"`
}

// SearchConfig configures the search screen.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// LoggingConfig configures the log file. An empty File disables file logging.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Monitor MonitorConfig `yaml:"monitor"`
	Cache   CacheConfig   `yaml:"cache"`
	Wizard  WizardConfig  `yaml:"wizard"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIKey resolves the backend API key from the configured environment variable.
func (c *AppConfig) APIKey() string {
	if c.Server.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.APIKeyEnv)
}

func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalSecs) * time.Second
}

func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSecs) * time.Second
}

// Validate reports configuration that cannot work.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url %q must be an absolute URL", c.Server.BaseURL)
	}
	if c.Monitor.PollIntervalSecs < 0 {
		return errors.New("monitor.poll_interval_secs must not be negative")
	}
	if c.Search.TopK < 0 {
		return errors.New("search.top_k must not be negative")
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./searchadmin.yaml first, then ~/.config/searchadmin/config.yaml.
// If neither exists, it writes defaults to ~/.config/searchadmin/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "searchadmin.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "searchadmin", "config.yaml"), nil
}

// DefaultLogPath is where logs go when logging.file is "default".
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "searchadmin.log")
	}
	return filepath.Join(home, ".local", "state", "searchadmin", "searchadmin.log")
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:  ServerConfig{BaseURL: "http://localhost:8080", APIKeyEnv: "SEARCHADMIN_API_KEY", TimeoutSecs: 30},
		Monitor: MonitorConfig{PollIntervalSecs: 5},
		Cache:   CacheConfig{TTLSecs: 30},
		Wizard:  WizardConfig{LowQualityMarkers: []string{"e5"}},
		Search:  SearchConfig{TopK: 10},
		Logging: LoggingConfig{Level: "info", File: "default", MaxSizeMB: 10, MaxBackups: 3},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Server.BaseURL), "/")
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = def.Server.BaseURL
	}
	if cfg.Server.APIKeyEnv == "" {
		cfg.Server.APIKeyEnv = def.Server.APIKeyEnv
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = def.Server.TimeoutSecs
	}
	if cfg.Monitor.PollIntervalSecs == 0 {
		cfg.Monitor.PollIntervalSecs = def.Monitor.PollIntervalSecs
	}
	if cfg.Cache.TTLSecs == 0 {
		cfg.Cache.TTLSecs = def.Cache.TTLSecs
	}
	if cfg.Wizard.LowQualityMarkers == nil {
		cfg.Wizard.LowQualityMarkers = def.Wizard.LowQualityMarkers
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = def.Search.TopK
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = def.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = def.Logging.MaxBackups
	}
}
