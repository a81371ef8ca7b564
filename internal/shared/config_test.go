package shared

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 5000 {
			t.Errorf("expected server port 5000, got %d", config.Server.Port)
		}
		if config.Server.Addr() != "127.0.0.1:5000" {
			t.Errorf("expected addr 127.0.0.1:5000, got %s", config.Server.Addr())
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected placeholder spotify client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.YouTube.CallbackPort != 8085 {
			t.Errorf("expected callback port 8085, got %d", config.Credentials.YouTube.CallbackPort)
		}
		if config.Conversion.TrackDelay() != 500*time.Millisecond {
			t.Errorf("expected 500ms track delay, got %v", config.Conversion.TrackDelay())
		}
		if config.Search.MaxResults != 1 || config.Search.CategoryID != "10" {
			t.Errorf("unexpected search defaults %+v", config.Search)
		}

		want := []string{"official video", "official music video", "official audio", "lyrics", "audio", ""}
		if !slices.Equal(config.Search.Modifiers, want) {
			t.Errorf("expected modifiers %q, got %q", want, config.Search.Modifiers)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Conversion.DefaultVisibility != DefaultConfig().Conversion.DefaultVisibility {
			t.Errorf("created config default visibility doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[search]
modifiers = ["lyrics"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if !slices.Equal(config.Search.Modifiers, []string{"lyrics"}) {
			t.Errorf("expected file modifiers to replace defaults, got %q", config.Search.Modifiers)
		}
		if config.Conversion.TrackDelayMS != 500 {
			t.Errorf("expected omitted values to keep defaults, got %d", config.Conversion.TrackDelayMS)
		}
	})

	t.Run("LoadConfig errors", func(t *testing.T) {
		tmpDir := t.TempDir()

		if _, err := LoadConfig(filepath.Join(tmpDir, "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}

		bad := filepath.Join(tmpDir, "bad.toml")
		if err := os.WriteFile(bad, []byte("[server\nport = "), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			EnvSpotifyClientID:      "env-id",
			EnvSpotifyClientSecret:  " env-secret ",
			EnvYouTubeClientSecrets: "",
			EnvTokenFile:            "/tmp/token.json",
		}
		config := DefaultConfig()
		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		if config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("expected env-id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env-secret" {
			t.Errorf("expected trimmed secret, got %q", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.YouTube.ClientSecretsFile != "credentials/client_secret.json" {
			t.Errorf("expected empty env value to be ignored, got %s", config.Credentials.YouTube.ClientSecretsFile)
		}
		if config.TokenPath() != "/tmp/token.json" {
			t.Errorf("expected token path override, got %s", config.TokenPath())
		}
	})

	t.Run("default paths", func(t *testing.T) {
		config := DefaultConfig()
		if !strings.HasSuffix(config.TokenPath(), filepath.Join("sp2yt", "youtube_token.json")) {
			t.Errorf("unexpected token path %s", config.TokenPath())
		}
		if !strings.HasSuffix(config.LogPath(), filepath.Join("sp2yt", "converter.log")) {
			t.Errorf("unexpected log path %s", config.LogPath())
		}

		config.Log.File = "custom.log"
		if config.LogPath() != "custom.log" {
			t.Errorf("expected custom.log, got %s", config.LogPath())
		}
	})
}

func TestConfigValidate(t *testing.T) {
	secrets := filepath.Join(t.TempDir(), "client_secret.json")
	if err := os.WriteFile(secrets, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	valid := func() *Config {
		c := DefaultConfig()
		c.Credentials.Spotify.ClientID = "id"
		c.Credentials.Spotify.ClientSecret = "secret"
		c.Credentials.YouTube.ClientSecretsFile = secrets
		return c
	}

	tc := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "placeholder client id", mutate: func(c *Config) { c.Credentials.Spotify.ClientID = "your_spotify_client_id" }, want: ErrMissingCredentials},
		{name: "missing secret", mutate: func(c *Config) { c.Credentials.Spotify.ClientSecret = "" }, want: ErrMissingCredentials},
		{name: "missing secrets file setting", mutate: func(c *Config) { c.Credentials.YouTube.ClientSecretsFile = "" }, want: ErrMissingCredentials},
		{name: "secrets file absent", mutate: func(c *Config) { c.Credentials.YouTube.ClientSecretsFile = secrets + ".gone" }, want: ErrMissingCredentials},
		{name: "max results", mutate: func(c *Config) { c.Search.MaxResults = 0 }, want: ErrInvalidConfig},
		{name: "page size", mutate: func(c *Config) { c.Spotify.PageSize = 101 }, want: ErrInvalidConfig},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !IsFatal(err) {
				t.Errorf("expected configuration errors to be fatal")
			}
		})
	}
}
