package tasks

import (
	"context"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

const (
	// DefaultPlaylistName is used when neither the source name nor a track name is available.
	DefaultPlaylistName = "My Spotify Playlist on YouTube"

	nameSuffix = " (on YouTube)"
)

// DeriveName picks a destination title from the source playlist name, then the first track,
// then [DefaultPlaylistName]. Derived titles are sanitized.
func DeriveName(sourceName string, tracks []models.Track) string {
	if name := strings.TrimSpace(sourceName); name != "" {
		if title := shared.SanitizeTitle(name + nameSuffix); title != "" {
			return title
		}
	}
	if len(tracks) > 0 {
		if title := shared.SanitizeTitle(tracks[0].Name + " and others" + nameSuffix); title != "" {
			return title
		}
	}
	return DefaultPlaylistName
}

// destinationName looks up the source playlist's own name and falls back per [DeriveName].
func (e *ConversionEngine) destinationName(ctx context.Context, src services.Source, ref string, tracks []models.Track) string {
	var sourceName string
	if id, err := services.ParsePlaylistRef(ref); err == nil {
		name, err := src.PlaylistName(ctx, id)
		if err != nil {
			e.logger.Warn("could not fetch source playlist name", "playlist", id, "error", err)
		}
		sourceName = name
	}
	return DeriveName(sourceName, tracks)
}
