// Package services implements the provider clients used by a conversion run.
//
// # Spotify
//
// [SpotifyService] reads playlists with application credentials (client credentials grant),
// paging through items at a fixed page size and pacing requests with a [rate.Limiter].
// Playlist references are resolved by [ParsePlaylistRef].
//
// # YouTube
//
// [YouTubeService] wraps the YouTube Data API v3 client for video search, playlist creation and
// playlist item insertion. Provider failures are classified once, at this boundary, into the
// sentinel errors of the shared package:
//   - [shared.ErrQuotaExhausted] : quotaExceeded / dailyLimitExceeded
//   - [shared.ErrInvalidQuery] : invalidSearchFilter
//   - [shared.ErrAlreadyPresent] : videoAlreadyInPlaylist
//   - [shared.ErrNotFound] : videoNotFound / playlistNotFound / 404
//   - [shared.ErrTransient] : 5xx, rate limiting and network failures
//   - [shared.ErrPermanent] : everything else
//
// # Matching
//
// [VideoMatcher] walks an ordered ladder of search queries and keeps the first hit.
//
// # Session
//
// [Session] lazily builds and caches both clients for the life of the process. The YouTube client
// is rebuilt from the [TokenStore] whenever its token is no longer valid.
package services
