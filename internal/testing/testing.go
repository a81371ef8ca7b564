// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
)

// FakeSource is a test double for [services.Source]
type FakeSource struct {
	Tracks  []models.Track
	Name    string
	Err     error
	NameErr error
}

func (f *FakeSource) FetchTracks(ctx context.Context, ref string) ([]models.Track, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if _, err := services.ParsePlaylistRef(ref); err != nil {
		return nil, err
	}
	return append([]models.Track{}, f.Tracks...), nil
}

func (f *FakeSource) PlaylistName(ctx context.Context, id string) (string, error) {
	return f.Name, f.NameErr
}

// AddCall records one AddVideo invocation.
type AddCall struct {
	PlaylistID string
	VideoID    string
}

// FakeDestination is a test double for [services.Destination].
//
// Hits maps a search query to its results; SearchErrs and AddErrs inject failures per query and per video.
// AddResults overrides the success flag per video (default true).
type FakeDestination struct {
	Hits       map[string][]string
	SearchErrs map[string]error
	AddResults map[string]bool
	AddErrs    map[string]error
	CreateErr  error
	PlaylistID string

	mu       sync.Mutex
	Searches []string
	Adds     []AddCall
	Created  []CreateCall
}

// CreateCall records one CreatePlaylist invocation.
type CreateCall struct {
	Title       string
	Description string
	Visibility  models.Visibility
}

func (f *FakeDestination) SearchVideos(ctx context.Context, query string, maxResults int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, query)
	if err := f.SearchErrs[query]; err != nil {
		return nil, err
	}
	hits := f.Hits[query]
	if int64(len(hits)) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

func (f *FakeDestination) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, CreateCall{Title: title, Description: description, Visibility: visibility})
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	if f.PlaylistID == "" {
		return "PLfake", nil
	}
	return f.PlaylistID, nil
}

func (f *FakeDestination) AddVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Adds = append(f.Adds, AddCall{PlaylistID: playlistID, VideoID: videoID})
	if err := f.AddErrs[videoID]; err != nil {
		return false, err
	}
	if ok, set := f.AddResults[videoID]; set {
		return ok, nil
	}
	return true, nil
}

// FakeSession hands out fixed clients.
type FakeSession struct {
	Src     services.Source
	Dest    services.Destination
	SrcErr  error
	DestErr error
}

func (f *FakeSession) Source(ctx context.Context) (services.Source, error) {
	if f.SrcErr != nil {
		return nil, f.SrcErr
	}
	return f.Src, nil
}

func (f *FakeSession) Destination(ctx context.Context) (services.Destination, error) {
	if f.DestErr != nil {
		return nil, f.DestErr
	}
	return f.Dest, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return dir
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
