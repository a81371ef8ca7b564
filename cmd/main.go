package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

const (
	defaultConfigPath = "config.toml"
	envConfigPath     = "SP2YT_CONFIG"
)

// loadConfig reads path when it exists and falls back to the embedded defaults otherwise.
// Credentials from the environment (and a .env file) take precedence.
func loadConfig(path string, logger *log.Logger) (*shared.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to read .env file", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	config.ApplyEnv(os.LookupEnv)
	return config, nil
}

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv(envConfigPath); ok && p != "" {
		configPath = p
	}

	config, err := loadConfig(configPath, logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	var sink *shared.LogSink
	if fileLogger, s, err := shared.NewFileLogger(config.LogPath(), true); err == nil {
		logger, sink = fileLogger, s
	} else {
		logger.Warn("file logging disabled", "error", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	session := services.NewSession(config, services.SessionOpts{Logger: logger})
	engine := tasks.NewConversionEngine(session, tasks.EngineOpts{
		Delay:  config.Conversion.TrackDelay(),
		Logger: logger,
		NewMatcher: func(s services.Searcher) tasks.Matcher {
			return session.Matcher(s)
		},
	})

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Auth:       session,
		Source:     &sessionExporter{session: session},
		Engine:     engine,
		Logger:     logger,
		Output:     os.Stdout,
		LogSink:    sink,
		Color:      isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	})

	app := &cli.Command{
		Name:     "sp2yt",
		Usage:    "Convert Spotify playlists into YouTube playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err = app.Run(context.Background(), os.Args)
	if sink != nil {
		sink.Close()
	}
	if err != nil {
		if !errors.Is(err, errConversionStopped) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// sessionExporter resolves the Spotify client on each call, so missing credentials only fail
// the commands that read playlists.
type sessionExporter struct {
	session *services.Session
}

func (e *sessionExporter) ExportPlaylist(ctx context.Context, ref string) (*models.Playlist, error) {
	svc, err := e.session.Spotify(ctx)
	if err != nil {
		return nil, err
	}
	return svc.ExportPlaylist(ctx, ref)
}
