package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// DefaultModifiers are the keyword suffixes tried after the "Official" query.
var DefaultModifiers = []string{"official video", "official music video", "official audio", "lyrics", "audio", ""}

// BuildQueries returns the ordered, de-duplicated search ladder for base.
//
// "<base> Official" always comes first, then "<base> <modifier>" for each non-empty modifier.
// The bare base is appended last when modifiers is empty or contains "".
func BuildQueries(base string, modifiers []string) []string {
	candidates := []string{base + " Official"}
	bare := len(modifiers) == 0
	for _, m := range modifiers {
		if m == "" {
			bare = true
			continue
		}
		candidates = append(candidates, base+" "+m)
	}
	if bare {
		candidates = append(candidates, base)
	}

	seen := make(map[string]struct{}, len(candidates))
	queries := make([]string, 0, len(candidates))
	for _, q := range candidates {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}
	return queries
}

// VideoMatcher finds the single video to use for a track.
type VideoMatcher struct {
	searcher   Searcher
	modifiers  []string
	maxResults int64
	retry      shared.RetryPolicy
	logger     *log.Logger
}

// MatcherOpts configures a [VideoMatcher]. Nil Modifiers means [DefaultModifiers].
type MatcherOpts struct {
	Modifiers  []string
	MaxResults int64
	Retry      *shared.RetryPolicy
	Logger     *log.Logger
}

// NewVideoMatcher creates a matcher issuing searches through s.
func NewVideoMatcher(s Searcher, opts MatcherOpts) *VideoMatcher {
	if opts.Modifiers == nil {
		opts.Modifiers = DefaultModifiers
	}
	if opts.MaxResults < 1 {
		opts.MaxResults = 1
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(opts.Logger, "component", "matcher")

	policy := shared.SearchRetry
	if opts.Retry != nil {
		policy = *opts.Retry
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			logger.Warn("retrying search", "attempt", attempt, "wait", wait, "error", err)
		}
	}

	return &VideoMatcher{
		searcher:   s,
		modifiers:  opts.Modifiers,
		maxResults: opts.MaxResults,
		retry:      policy,
		logger:     logger,
	}
}

// Queries returns the search ladder for t.
func (m *VideoMatcher) Queries(t models.Track) []string {
	return BuildQueries(t.Query(), m.modifiers)
}

// Find walks the query ladder and returns the top hit of the first query with any results.
//
// An empty id with a nil error means no match. Quota exhaustion, lost authorization and
// cancellation abort the walk and are returned.
func (m *VideoMatcher) Find(ctx context.Context, t models.Track) (string, error) {
	for _, query := range m.Queries(t) {
		var ids []string
		err := m.retry.Do(ctx, func(ctx context.Context) error {
			var err error
			ids, err = m.searcher.SearchVideos(ctx, query, m.maxResults)
			return err
		})

		switch {
		case err == nil:
		case shared.IsFatal(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return "", err
		case errors.Is(err, shared.ErrInvalidQuery):
			m.logger.Warn("invalid search filter, trying next query", "query", query)
			continue
		default:
			m.logger.Warn("search failed, trying next query", "query", query, "error", err)
			continue
		}

		if len(ids) > 0 {
			m.logger.Info("found video", "query", query, "video", ids[0])
			return ids[0], nil
		}
	}

	m.logger.Warn("no video found for any query", "track", t.String())
	return "", nil
}
