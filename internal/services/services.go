// package services defines the provider interfaces used by a conversion run
//
// Spotify (source), YouTube Data API (destination)
package services

import (
	"context"

	"github.com/desertthunder/sp2yt/internal/models"
)

// Source reads ordered tracks from a source playlist.
type Source interface {
	// FetchTracks resolves ref to a playlist id and returns its playable tracks in order.
	// An empty or fully filtered playlist yields an empty slice, not an error.
	FetchTracks(ctx context.Context, ref string) ([]models.Track, error)

	// PlaylistName returns the display name of the playlist with the given id.
	PlaylistName(ctx context.Context, id string) (string, error)
}

// Searcher issues a single video search for a query.
type Searcher interface {
	SearchVideos(ctx context.Context, query string, maxResults int64) ([]string, error)
}

// Sink creates a destination playlist and appends videos to it.
type Sink interface {
	// CreatePlaylist creates a playlist and returns its id.
	CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error)

	// AddVideo appends videoID to playlistID.
	//
	// A video already in the playlist counts as success. Non-fatal failures return false with a nil
	// error; quota exhaustion and lost authorization are returned as errors.
	AddVideo(ctx context.Context, playlistID, videoID string) (bool, error)
}

// Destination is the video provider: search plus playlist writes.
type Destination interface {
	Searcher
	Sink
}
