package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// BaseURLEnv overrides [APIConfig.BaseURL] when set.
const BaseURLEnv = "EQUIPX_API_BASE_URL"

// DefaultBaseURL is the development fallback for the lending backend.
const DefaultBaseURL = "http://localhost:8080/api"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API           APIConfig          `toml:"api"`
	Session       SessionConfig      `toml:"session"`
	Database      DatabaseConfig     `toml:"database"`
	Server        ServerConfig       `toml:"server"`
	Notifications NotificationConfig `toml:"notifications"`
	Export        ExportConfig       `toml:"export"`
	Log           LogConfig          `toml:"log"`
}

// APIConfig contains settings for the lending backend client.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"`
}

// SessionConfig selects which stored token is used.
type SessionConfig struct {
	Profile string `toml:"profile"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local web front.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	CSRFKey       string `toml:"csrf_key"`
	SecureCookies bool   `toml:"secure_cookies"`
}

// NotificationConfig controls toast lifetime and queue size.
type NotificationConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
	Max        int `toml:"max"`
}

// ExportConfig holds defaults for the export commands.
type ExportConfig struct {
	Format  string `toml:"format"`
	Dir     string `toml:"dir"`
	Workers int    `toml:"workers"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveBaseURL picks the backend URL: explicit value, then [BaseURLEnv], then config, then [DefaultBaseURL].
//
// Trailing slashes are removed.
func (c *Config) ResolveBaseURL(explicit string) string {
	candidates := []string{explicit, os.Getenv(BaseURLEnv), c.API.BaseURL, DefaultBaseURL}
	for _, u := range candidates {
		if u = strings.TrimSpace(u); u != "" {
			return strings.TrimRight(u, "/")
		}
	}
	return DefaultBaseURL
}

// Profile returns the key under which the session token is stored.
func (c *Config) Profile(baseURL string) string {
	if c.Session.Profile != "" {
		return c.Session.Profile
	}
	return baseURL
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ToastTTL returns how long a notification stays visible.
func (c *Config) ToastTTL() time.Duration {
	if c.Notifications.TTLSeconds <= 0 {
		return 4 * time.Second
	}
	return time.Duration(c.Notifications.TTLSeconds) * time.Second
}

// Addr returns host:port for the local web front.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
