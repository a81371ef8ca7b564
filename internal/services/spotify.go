// Spotify Web API implementation of [Source]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyItemFields     = "items(is_local,track(id,name,type,artists(name),album(name))),next,total"
	spotifyPlaylistFields = "id,name,description,owner(display_name)"
)

var (
	playlistRefPattern = regexp.MustCompile(`(?:playlist/|playlist:)([a-zA-Z0-9]{22})`)
	playlistIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9]{22}$`)
)

// ParsePlaylistRef extracts the 22 character playlist id from a URL, URI or bare id.
func ParsePlaylistRef(ref string) (string, error) {
	if m := playlistRefPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if playlistIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidReference, ref)
}

// SpotifyArtist is the artist stub embedded in a track.
type SpotifyArtist struct {
	Name string `json:"name"`
}

// SpotifyAlbum is the album stub embedded in a track.
type SpotifyAlbum struct {
	Name string `json:"name"`
}

// SpotifyTrack is a playlist entry's track (or episode) object.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
}

// SpotifyPlaylistItem is a single playlist entry. Track is nil for removed items.
type SpotifyPlaylistItem struct {
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyItemsPage is one page of playlist items.
type SpotifyItemsPage struct {
	Items []SpotifyPlaylistItem `json:"items"`
	Next  *string               `json:"next"`
	Total int                   `json:"total"`
}

type spotifyOwner struct {
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist is playlist metadata.
type SpotifyPlaylist struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Owner       spotifyOwner `json:"owner"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID          string
	ClientSecret      string
	TokenURL          string
	BaseURL           string
	HTTPClient        *http.Client // transport used for both the token and API requests
	PageSize          int
	RequestsPerSecond float64
	Retry             *shared.RetryPolicy
	Logger            *log.Logger
}

// SpotifyService reads playlists from the Spotify Web API using application credentials.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	retry      shared.RetryPolicy
	logger     *log.Logger
}

// NewSpotifyService creates a Spotify client authorized with the client credentials grant.
//
// The token is fetched lazily on the first request and renewed automatically.
func NewSpotifyService(ctx context.Context, opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	policy := shared.SourceRetry
	if opts.Retry != nil {
		policy = *opts.Retry
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	cc := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	logger := shared.WithLogger(opts.Logger, "service", "spotify")
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			logger.Warn("retrying spotify request", "attempt", attempt, "wait", wait, "error", err)
		}
	}
	return &SpotifyService{
		baseURL:    opts.BaseURL,
		httpClient: cc.Client(ctx),
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		pageSize:   opts.PageSize,
		retry:      policy,
		logger:     logger,
	}, nil
}

// Name returns the provider name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// FetchTracks returns the playable tracks of the playlist referenced by ref, in playlist order.
func (s *SpotifyService) FetchTracks(ctx context.Context, ref string) ([]models.Track, error) {
	id, err := ParsePlaylistRef(ref)
	if err != nil {
		s.logger.Warn("invalid spotify playlist reference", "ref", ref)
		return nil, err
	}

	s.logger.Info("fetching tracks", "playlist", id)
	tracks := []models.Track{}
	for offset := 0; ; offset += s.pageSize {
		page, err := s.itemsPage(ctx, id, offset)
		if err != nil {
			s.logger.Error("failed to fetch playlist items", "playlist", id, "offset", offset, "error", err)
			return nil, err
		}
		if offset == 0 {
			s.logger.Info("spotify reported items", "playlist", id, "total", page.Total)
		}

		tracks = append(tracks, s.playable(page.Items)...)

		if page.Next == nil || *page.Next == "" || len(page.Items) == 0 {
			break
		}
	}

	s.logger.Info("found playable tracks", "playlist", id, "count", len(tracks))
	return tracks, nil
}

// playable drops removed entries, local files, non-song items and nameless tracks.
func (s *SpotifyService) playable(items []SpotifyPlaylistItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		switch {
		case item.Track == nil:
			s.logger.Debug("skipping removed or unsupported item")
			continue
		case item.IsLocal:
			s.logger.Debug("skipping local file", "name", item.Track.Name)
			continue
		case item.Track.Type != "track":
			s.logger.Debug("skipping non-song item", "type", item.Track.Type, "name", item.Track.Name)
			continue
		case item.Track.Name == "":
			s.logger.Warn("skipping track without a name", "id", item.Track.ID)
			continue
		}

		artists := make([]string, 0, len(item.Track.Artists))
		for _, a := range item.Track.Artists {
			if a.Name != "" {
				artists = append(artists, a.Name)
			}
		}
		tracks = append(tracks, models.Track{
			ID:      item.Track.ID,
			Name:    item.Track.Name,
			Artists: artists,
			Album:   item.Track.Album.Name,
		})
	}
	return tracks
}

func (s *SpotifyService) itemsPage(ctx context.Context, id string, offset int) (*SpotifyItemsPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("fields", spotifyItemFields)

	var page SpotifyItemsPage
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", id, q.Encode())
	if err := s.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves playlist metadata by id.
func (s *SpotifyService) Playlist(ctx context.Context, id string) (*SpotifyPlaylist, error) {
	q := url.Values{}
	q.Set("fields", spotifyPlaylistFields)

	var playlist SpotifyPlaylist
	if err := s.get(ctx, fmt.Sprintf("/playlists/%s?%s", id, q.Encode()), &playlist); err != nil {
		s.logger.Error("failed to fetch playlist details", "playlist", id, "error", err)
		return nil, err
	}
	return &playlist, nil
}

// PlaylistName returns the display name of the playlist with the given id.
func (s *SpotifyService) PlaylistName(ctx context.Context, id string) (string, error) {
	p, err := s.Playlist(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// ExportPlaylist returns playlist metadata together with its playable tracks.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, ref string) (*models.Playlist, error) {
	id, err := ParsePlaylistRef(ref)
	if err != nil {
		return nil, err
	}

	meta, err := s.Playlist(ctx, id)
	if err != nil {
		return nil, err
	}

	tracks, err := s.FetchTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          meta.ID,
		Name:        meta.Name,
		Description: meta.Description,
		Owner:       meta.Owner.DisplayName,
		Tracks:      tracks,
	}, nil
}

// get performs a paced, retried GET against the API and decodes the JSON body into result.
func (s *SpotifyService) get(ctx context.Context, endpoint string, result any) error {
	return s.retry.Do(ctx, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return s.doRequest(ctx, http.MethodGet, endpoint, result)
	})
}

func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classifySpotifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		err := classifySpotifyStatus(resp.StatusCode, body.Error.Message)
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil && secs > 0 {
				return shared.RetryAfter(err, time.Duration(secs)*time.Second)
			}
		}
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode spotify response: %w", shared.ErrPermanent, err)
		}
	}
	return nil
}

func classifySpotifyStatus(code int, msg string) error {
	var kind error
	switch {
	case code == http.StatusTooManyRequests, code >= 500:
		kind = shared.ErrTransient
	case code == http.StatusNotFound:
		kind = shared.ErrNotFound
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = shared.ErrAuthFailed
	default:
		kind = shared.ErrPermanent
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return fmt.Errorf("%w: spotify status %d: %s", kind, code, msg)
}

// classifySpotifyTransportError separates token grant failures from network failures.
func classifySpotifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: spotify token request: %w", shared.ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: %w", shared.ErrTransient, err)
}
