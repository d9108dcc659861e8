package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Auth     AuthConfig     `toml:"auth"`
	Player   PlayerConfig   `toml:"player"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig points at the music backend.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	ThumbnailTemplate string  `toml:"thumbnail_template"` // fmt template applied to the external media id
}

// AuthConfig contains sign-in provider settings.
type AuthConfig struct {
	Google GoogleConfig `toml:"google"`
}

// GoogleConfig contains Google OAuth2 client credentials.
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// PlayerConfig tunes the player and its feedback.
type PlayerConfig struct {
	UserID       string `toml:"user_id"`
	PageSize     int    `toml:"page_size"`
	ToastSeconds int    `toml:"toast_seconds"`
}

// ToastDuration returns how long success and error toasts stay visible.
func (p PlayerConfig) ToastDuration() time.Duration {
	if p.ToastSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(p.ToastSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls log output.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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
