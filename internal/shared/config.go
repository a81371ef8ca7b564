package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "sp2yt"

// Environment variables that override file-based settings.
const (
	EnvSpotifyClientID      = "SPOTIPY_CLIENT_ID"
	EnvSpotifyClientSecret  = "SPOTIPY_CLIENT_SECRET"
	EnvYouTubeClientSecrets = "YOUTUBE_CLIENT_SECRETS_FILE"
	EnvTokenFile            = "SP2YT_TOKEN_FILE"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Search      SearchConfig      `toml:"search"`
	Conversion  ConversionConfig  `toml:"conversion"`
	Spotify     SpotifyAPIConfig  `toml:"spotify"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify application (client credentials) settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// YouTubeConfig points at the OAuth client secrets and the cached user token.
type YouTubeConfig struct {
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
	CallbackPort      int    `toml:"callback_port"`
}

// SearchConfig controls the video query ladder.
type SearchConfig struct {
	Modifiers         []string `toml:"modifiers"`
	MaxResults        int64    `toml:"max_results"`
	RelevanceLanguage string   `toml:"relevance_language"`
	CategoryID        string   `toml:"category_id"`
}

// ConversionConfig contains per-run conversion settings.
type ConversionConfig struct {
	TrackDelayMS      int    `toml:"track_delay_ms"`
	DefaultVisibility string `toml:"default_visibility"`
}

// TrackDelay is the throttle applied after each track.
func (c ConversionConfig) TrackDelay() time.Duration {
	return time.Duration(c.TrackDelayMS) * time.Millisecond
}

// SpotifyAPIConfig tunes the Spotify Web API client.
type SpotifyAPIConfig struct {
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	OpenBrowser bool   `toml:"open_browser"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
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
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
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

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials with values from the environment, as loaded from a .env file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	set(&c.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	set(&c.Credentials.YouTube.ClientSecretsFile, EnvYouTubeClientSecrets)
	set(&c.Credentials.YouTube.TokenFile, EnvTokenFile)
}

// TokenPath resolves where the YouTube OAuth token is cached.
func (c *Config) TokenPath() string {
	if c.Credentials.YouTube.TokenFile != "" {
		return c.Credentials.YouTube.TokenFile
	}
	return filepath.Join(xdg.DataHome, appName, "youtube_token.json")
}

// LogPath resolves where log output is written.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(xdg.StateHome, appName, "converter.log")
}

// ValidateSpotify reports whether the Spotify application credentials are usable.
func (c *Config) ValidateSpotify() error {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" || s.ClientID == "your_spotify_client_id" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set (or %s/%s)",
			ErrMissingCredentials, EnvSpotifyClientID, EnvSpotifyClientSecret)
	}
	return nil
}

// ValidateYouTube reports whether the YouTube client secrets file is present.
func (c *Config) ValidateYouTube() error {
	p := c.Credentials.YouTube.ClientSecretsFile
	if p == "" {
		return fmt.Errorf("%w: youtube client_secrets_file must be set (or %s)", ErrMissingCredentials, EnvYouTubeClientSecrets)
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("%w: youtube client secrets file %s: %w", ErrMissingCredentials, p, err)
	}
	return nil
}

// Validate checks every credential and the tunables a conversion depends on.
func (c *Config) Validate() error {
	if err := c.ValidateSpotify(); err != nil {
		return err
	}
	if err := c.ValidateYouTube(); err != nil {
		return err
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("%w: search.max_results must be positive", ErrInvalidConfig)
	}
	if c.Spotify.PageSize < 1 || c.Spotify.PageSize > 100 {
		return fmt.Errorf("%w: spotify.page_size must be between 1 and 100", ErrInvalidConfig)
	}
	return nil
}
