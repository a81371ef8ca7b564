package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	tu "github.com/desertthunder/sp2yt/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const testRef = "37i9dQZF1DXcBWIGoYBM5M"

type fakeAuth struct {
	authorized bool
	codes      []string
}

func (f *fakeAuth) Authorized() bool { return f.authorized }

func (f *fakeAuth) OAuthConfig(redirectURL string) (*oauth2.Config, error) {
	return &oauth2.Config{
		ClientID:    "client",
		RedirectURL: redirectURL,
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.com/o/oauth2/auth", TokenURL: "https://accounts.example.com/token"},
	}, nil
}

func (f *fakeAuth) Exchange(ctx context.Context, conf *oauth2.Config, code string) error {
	f.codes = append(f.codes, code)
	return nil
}

type fakeExporter struct {
	playlist *models.Playlist
	err      error
}

func (f *fakeExporter) ExportPlaylist(ctx context.Context, ref string) (*models.Playlist, error) {
	return f.playlist, f.err
}

func testPlaylist() *models.Playlist {
	return &models.Playlist{
		ID:   testRef,
		Name: "Road Trip",
		Tracks: []models.Track{
			{ID: "t1", Name: "Song A", Artists: []string{"Artist A"}, Album: "Album A"},
			{ID: "t2", Name: "Song B", Artists: []string{"Artist B"}},
		},
	}
}

// newTestRunner wires a runner over fakes, writing to a buffer and keeping files under a temp dir.
func newTestRunner(t *testing.T, dest *tu.FakeDestination) (*Runner, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "id"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Credentials.YouTube.TokenFile = filepath.Join(dir, "credentials", "token.json")
	config.Credentials.YouTube.CallbackPort = 0
	config.Log.File = filepath.Join(dir, "logs", "converter.log")

	logger := shared.NewLogger(io.Discard)
	session := &tu.FakeSession{Src: &tu.FakeSource{Tracks: testPlaylist().Tracks, Name: "Road Trip"}, Dest: dest}
	engine := tasks.NewConversionEngine(session, tasks.EngineOpts{
		Sleep:  func(context.Context, time.Duration) error { return nil },
		Logger: logger,
	})

	output := &bytes.Buffer{}
	return NewRunner(RunnerOpts{
		Config:      config,
		ConfigPath:  filepath.Join(dir, "config.toml"),
		Auth:        &fakeAuth{},
		Source:      &fakeExporter{playlist: testPlaylist()},
		Engine:      engine,
		Logger:      logger,
		Output:      output,
		OpenBrowser: func(string) error { return nil },
	}), output
}

func hits() map[string][]string {
	tracks := testPlaylist().Tracks
	return map[string][]string{
		tracks[0].Query() + " Official": {"va"},
		tracks[1].Query() + " Official": {"vb"},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			auth := &fakeAuth{}
			source := &fakeExporter{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Logger:     logger,
				Output:     output,
				Auth:       auth,
				Source:     source,
				Color:      true,
			})

			if runner.config != config || runner.logger != logger || runner.output != output {
				t.Error("expected config, logger and output to be set")
			}
			if runner.auth != auth || runner.source != source {
				t.Error("expected auth and source to be set")
			}
			if runner.configPath != "custom.toml" || !runner.color {
				t.Errorf("unexpected config path %q or color %v", runner.configPath, runner.color)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.configPath != defaultConfigPath {
				t.Errorf("expected %s, got %s", defaultConfigPath, runner.configPath)
			}
			if runner.openBrowser == nil {
				t.Error("expected browser launcher to be set")
			}
		})

		t.Run("commands fail without services", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			for _, args := range [][]string{
				{"convert", testRef},
				{"tracks", testRef},
				{"tui", testRef},
				{"serve"},
			} {
				cmd := findCommand(t, runner, args[0])
				if err := cmd.Run(context.Background(), args); !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("%s: expected ErrInvalidConfig, got %v", args[0], err)
				}
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) || !strings.HasSuffix(result, "\n") {
				t.Errorf("expected formatted JSON ending in a newline, got %s", result)
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if expected := `{"key":"value"}` + "\n"; output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next %d", 1)
			if output.String() != "\nNext 1\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var names []string
		for _, cmd := range runner.register() {
			names = append(names, cmd.Name)
		}
		for _, want := range []string{"setup", "auth", "convert", "tracks", "serve", "tui"} {
			if !slices.Contains(names, want) {
				t.Errorf("expected %q in %v", want, names)
			}
		}
	})
}

func TestConvert(t *testing.T) {
	t.Run("raw output ends with the stream marker", func(t *testing.T) {
		dest := &tu.FakeDestination{Hits: hits(), PlaylistID: "PL1"}
		runner, output := newTestRunner(t, dest)

		cmd := findCommand(t, runner, "convert")
		if err := cmd.Run(context.Background(), []string{"convert", "--raw", testRef}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if lines[len(lines)-1] != tasks.EndOfStream {
			t.Errorf("expected end marker last, got %q", lines[len(lines)-1])
		}
		for _, want := range []string{
			"--- Process Complete ---",
			"Successfully added 2 songs to the YouTube playlist 'Road Trip (on YouTube)'.",
			"Find your new playlist here: https://www.youtube.com/playlist?list=PL1",
		} {
			if !slices.Contains(lines, want) {
				t.Errorf("expected line %q in %v", want, lines)
			}
		}
		if len(dest.Created) != 1 || dest.Created[0].Visibility != models.Private {
			t.Errorf("expected one private playlist, got %+v", dest.Created)
		}
	})

	t.Run("flags set the name and visibility", func(t *testing.T) {
		dest := &tu.FakeDestination{Hits: hits(), PlaylistID: "PL1"}
		runner, output := newTestRunner(t, dest)

		cmd := findCommand(t, runner, "convert")
		args := []string{"convert", "--name", "Drive", "--visibility", "unlisted", testRef}
		if err := cmd.Run(context.Background(), args); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(output.String(), tasks.EndOfStream) {
			t.Error("expected no end marker without --raw")
		}
		if len(dest.Created) != 1 || dest.Created[0].Title != "Drive" || dest.Created[0].Visibility != models.Unlisted {
			t.Errorf("unexpected playlist %+v", dest.Created)
		}
	})

	t.Run("create failure exits with an error", func(t *testing.T) {
		dest := &tu.FakeDestination{CreateErr: shared.ErrPermanent}
		runner, output := newTestRunner(t, dest)

		cmd := findCommand(t, runner, "convert")
		err := cmd.Run(context.Background(), []string{"convert", testRef})
		if !errors.Is(err, errConversionStopped) || !errors.Is(err, shared.ErrPermanent) {
			t.Errorf("expected stopped conversion, got %v", err)
		}
		if strings.Contains(output.String(), "Find your new playlist here") {
			t.Error("expected no link after a failed create")
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeDestination{})

		cmd := findCommand(t, runner, "convert")
		if err := cmd.Run(context.Background(), []string{"convert"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestTracks(t *testing.T) {
	t.Run("prints json to stdout", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.FakeDestination{})

		cmd := findCommand(t, runner, "tracks")
		if err := cmd.Run(context.Background(), []string{"tracks", "--format", "json", testRef}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var got models.Playlist
		if err := json.Unmarshal(output.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if got.Name != "Road Trip" || len(got.Tracks) != 2 {
			t.Errorf("unexpected playlist %+v", got)
		}
	})

	t.Run("writes to a file", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.FakeDestination{})
		path := filepath.Join(t.TempDir(), "tracks.csv")

		cmd := findCommand(t, runner, "tracks")
		if err := cmd.Run(context.Background(), []string{"tracks", "-f", "csv", "-o", path, testRef}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Song A") {
			t.Errorf("expected tracks in file, got %q", content)
		}
		if !strings.Contains(output.String(), "Exported 2 tracks") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeDestination{})

		cmd := findCommand(t, runner, "tracks")
		if err := cmd.Run(context.Background(), []string{"tracks", "--format", "xml", testRef}); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("surfaces source errors", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeDestination{})
		runner.source = &fakeExporter{err: shared.ErrInvalidReference}

		cmd := findCommand(t, runner, "tracks")
		if err := cmd.Run(context.Background(), []string{"tracks", "nope"}); !errors.Is(err, shared.ErrInvalidReference) {
			t.Errorf("expected ErrInvalidReference, got %v", err)
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("youtube completes the callback flow", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.FakeDestination{})
		auth := &fakeAuth{}
		runner.auth = auth

		var opened string
		runner.openBrowser = func(consent string) error {
			opened = consent
			u, err := url.Parse(consent)
			if err != nil {
				return err
			}
			q := u.Query()
			resp, err := http.Get(q.Get("redirect_uri") + "?code=abc&state=" + url.QueryEscape(q.Get("state")))
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}

		cmd := findCommand(t, runner, "auth")
		if err := cmd.Run(context.Background(), []string{"auth", "youtube"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(opened, "access_type=offline") {
			t.Errorf("expected offline consent URL, got %q", opened)
		}
		if len(auth.codes) != 1 || auth.codes[0] != "abc" {
			t.Errorf("expected code exchange, got %v", auth.codes)
		}
		if !strings.Contains(output.String(), "YouTube authorization saved to "+runner.config.TokenPath()) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("youtube rejects a forged state", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeDestination{})
		runner.openBrowser = func(consent string) error {
			u, _ := url.Parse(consent)
			resp, err := http.Get(u.Query().Get("redirect_uri") + "?code=abc&state=forged")
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}

		cmd := findCommand(t, runner, "auth")
		if err := cmd.Run(context.Background(), []string{"auth", "youtube"}); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("youtube times out", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.FakeDestination{})

		cmd := findCommand(t, runner, "auth")
		err := cmd.Run(context.Background(), []string{"auth", "youtube", "--no-browser", "--timeout", "50ms"})
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("status", func(t *testing.T) {
		tc := []struct {
			name       string
			authorized bool
			args       []string
			want       string
		}{
			{"authorized", true, []string{"auth", "status"}, "YouTube: ✓ Authorized"},
			{"not authorized", false, []string{"auth", "status"}, "YouTube: ✗ Not authorized"},
			{"json", true, []string{"auth", "status", "--json"}, `"yt_authorized":true`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				runner, output := newTestRunner(t, &tu.FakeDestination{})
				runner.auth = &fakeAuth{authorized: tt.authorized}

				cmd := findCommand(t, runner, "auth")
				if err := cmd.Run(context.Background(), tt.args); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if !strings.Contains(output.String(), tt.want) {
					t.Errorf("expected %q in %q", tt.want, output.String())
				}
			})
		}
	})
}

func TestSetup(t *testing.T) {
	runner, output := newTestRunner(t, &tu.FakeDestination{})
	path := runner.configPath

	cmd := findCommand(t, runner, "setup")
	if err := cmd.Run(context.Background(), []string{"setup", "--config", path}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, path)
	tu.AssertDirExists(t, filepath.Dir(runner.config.TokenPath()))
	tu.AssertDirExists(t, filepath.Dir(runner.config.LogPath()))

	if _, err := shared.LoadConfig(path); err != nil {
		t.Errorf("expected a loadable config, got %v", err)
	}
	if !strings.Contains(output.String(), "Created "+path) {
		t.Errorf("unexpected output %q", output.String())
	}
}

func TestServe(t *testing.T) {
	runner, _ := newTestRunner(t, &tu.FakeDestination{})
	runner.auth = &fakeAuth{authorized: true}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	opened := make(chan string, 1)
	runner.openBrowser = func(u string) error {
		opened <- u
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.serve(ctx, ln, true) }()

	base := "http://" + ln.Addr().String()
	select {
	case u := <-opened:
		if u != base+"/" {
			t.Errorf("expected browser at %s/, got %s", base, u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("browser was not opened")
	}

	resp, err := http.Get(base + "/check_auth")
	if err != nil {
		t.Fatal(err)
	}
	var status map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !status["yt_authorized"] {
		t.Errorf("expected authorized status, got %v", status)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func findCommand(t *testing.T, r *Runner, name string) *cli.Command {
	t.Helper()
	for _, cmd := range r.register() {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}
