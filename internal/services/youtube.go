// YouTube Data API v3 implementation of [Destination]
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	musicCategoryID          = "10"
	defaultRelevanceLanguage = "en"
)

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	HTTPClient        *http.Client // must carry user credentials unless Endpoint points at a test server
	Endpoint          string
	CategoryID        string
	RelevanceLanguage string
	Retry             *shared.RetryPolicy
	Logger            *log.Logger
}

// YouTubeService searches videos and writes playlists through the YouTube Data API.
type YouTubeService struct {
	api               *youtube.Service
	categoryID        string
	relevanceLanguage string
	retry             shared.RetryPolicy
	logger            *log.Logger
}

// NewYouTubeService builds the API client on top of an authorized HTTP client.
func NewYouTubeService(ctx context.Context, opts YouTubeOpts) (*YouTubeService, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("%w: youtube requires an authorized http client", shared.ErrNotAuthenticated)
	}
	if opts.CategoryID == "" {
		opts.CategoryID = musicCategoryID
	}
	if opts.RelevanceLanguage == "" {
		opts.RelevanceLanguage = defaultRelevanceLanguage
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(opts.HTTPClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	api, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build youtube client: %w", err)
	}

	logger := shared.WithLogger(opts.Logger, "service", "youtube")
	policy := shared.SinkRetry
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			logger.Warn("retrying youtube request", "attempt", attempt, "wait", wait, "error", err)
		}
	}

	return &YouTubeService{
		api:               api,
		categoryID:        opts.CategoryID,
		relevanceLanguage: opts.RelevanceLanguage,
		retry:             policy,
		logger:            logger,
	}, nil
}

// Name returns the provider name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// SearchVideos runs one music-category video search and returns the hit ids in rank order.
//
// Failures are classified but not retried here; the matcher owns the per-query retry.
func (y *YouTubeService) SearchVideos(ctx context.Context, query string, maxResults int64) ([]string, error) {
	resp, err := y.api.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		VideoCategoryId(y.categoryID).
		RelevanceLanguage(y.relevanceLanguage).
		Context(ctx).
		Do()
	if err != nil {
		err = classifyYouTubeError(ctx, err)
		y.logger.Warn("search failed", "query", query, "error", err)
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	y.logger.Debug("search finished", "query", query, "hits", len(ids))
	return ids, nil
}

// CreatePlaylist creates a playlist, retrying server-side failures.
//
// An unrecognized visibility is coerced to private.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	if !visibility.Valid() {
		y.logger.Warn("invalid privacy status, defaulting to private", "visibility", visibility)
		visibility = models.Private
	}

	body := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title, Description: description},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: string(visibility)},
	}

	var id string
	err := y.retry.Do(ctx, func(ctx context.Context) error {
		created, err := y.api.Playlists.Insert([]string{"snippet", "status"}, body).Context(ctx).Do()
		if err != nil {
			return classifyYouTubeError(ctx, err)
		}
		id = created.Id
		return nil
	})
	if err != nil {
		y.logger.Error("failed to create playlist", "title", title, "visibility", visibility, "error", err)
		return "", err
	}

	y.logger.Info("playlist created", "id", id, "title", title)
	return id, nil
}

// AddVideo appends a video to a playlist, retrying server-side failures.
func (y *YouTubeService) AddVideo(ctx context.Context, playlistID, videoID string) (bool, error) {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}

	err := y.retry.Do(ctx, func(ctx context.Context) error {
		_, err := y.api.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do()
		if err != nil {
			return classifyYouTubeError(ctx, err)
		}
		return nil
	})

	logger := y.logger.With("video", videoID, "playlist", playlistID)
	switch {
	case err == nil:
		logger.Info("video added")
		return true, nil
	case errors.Is(err, shared.ErrAlreadyPresent):
		logger.Info("video already in playlist")
		return true, nil
	case shared.IsFatal(err), ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Error("aborting add", "error", err)
		return false, err
	case errors.Is(err, shared.ErrNotFound):
		logger.Warn("video or playlist not found", "error", err)
	default:
		logger.Error("failed to add video", "error", err)
	}
	return false, nil
}

var (
	quotaReasons     = []string{"quotaExceeded", "dailyLimitExceeded"}
	rateLimitReasons = []string{"rateLimitExceeded", "userRateLimitExceeded"}
	notFoundReasons  = []string{"videoNotFound", "playlistNotFound"}
)

// classifyYouTubeError maps an API failure to a sentinel error.
func classifyYouTubeError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return fmt.Errorf("%w: token refresh: %w", shared.ErrNotAuthenticated, err)
		}
		return fmt.Errorf("%w: %w", shared.ErrTransient, err)
	}

	var kind error
	switch {
	case hasReason(gerr, quotaReasons...):
		kind = shared.ErrQuotaExhausted
	case hasReason(gerr, "videoAlreadyInPlaylist"):
		kind = shared.ErrAlreadyPresent
	case hasReason(gerr, "invalidSearchFilter"):
		kind = shared.ErrInvalidQuery
	case hasReason(gerr, rateLimitReasons...), gerr.Code >= 500:
		kind = shared.ErrTransient
	case hasReason(gerr, notFoundReasons...), gerr.Code == http.StatusNotFound:
		kind = shared.ErrNotFound
	case gerr.Code == http.StatusUnauthorized:
		kind = shared.ErrNotAuthenticated
	default:
		kind = shared.ErrPermanent
	}
	return fmt.Errorf("%w: youtube status %d: %s", kind, gerr.Code, gerr.Message)
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, item := range gerr.Errors {
		for _, r := range reasons {
			if strings.EqualFold(item.Reason, r) {
				return true
			}
		}
	}
	for _, r := range reasons {
		if strings.Contains(strings.ToLower(gerr.Body), strings.ToLower(r)) {
			return true
		}
	}
	return false
}
