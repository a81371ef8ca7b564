package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// DefaultTrackDelay is the pause after each track.
const DefaultTrackDelay = 500 * time.Millisecond

// Session provides the provider clients for a run.
type Session interface {
	Source(ctx context.Context) (services.Source, error)
	Destination(ctx context.Context) (services.Destination, error)
}

// Matcher picks the video for a track. An empty id means no match.
type Matcher interface {
	Find(ctx context.Context, t models.Track) (string, error)
}

// MatcherFactory builds a [Matcher] over the destination's search.
type MatcherFactory func(services.Searcher) Matcher

// ConvertRequest is a single conversion: a source playlist reference, an optional destination
// name and the requested visibility.
type ConvertRequest struct {
	Ref        string
	Name       string
	Visibility string
}

// Outcome holds the counters of one run. It is never persisted.
type Outcome struct {
	Total        int
	Added        int
	NotFound     int
	FailedToAdd  int
	PlaylistID   string
	PlaylistName string
	Aborted      bool
	Err          error // reason the run stopped early, if any
}

// Link returns the destination playlist URL, or "" when none was created.
func (o Outcome) Link() string {
	if o.PlaylistID == "" {
		return ""
	}
	return models.PlaylistLink(o.PlaylistID)
}

// EngineOpts configures a [ConversionEngine].
type EngineOpts struct {
	Delay      time.Duration
	Sleep      shared.SleepFunc
	NewMatcher MatcherFactory
	Logger     *log.Logger
}

// ConversionEngine converts a source playlist into a destination playlist, one track at a time.
type ConversionEngine struct {
	session    Session
	newMatcher MatcherFactory
	delay      time.Duration
	sleep      shared.SleepFunc
	logger     *log.Logger
}

// NewConversionEngine creates an engine over session.
func NewConversionEngine(session Session, opts EngineOpts) *ConversionEngine {
	if opts.Delay <= 0 {
		opts.Delay = DefaultTrackDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = shared.Sleep
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.NewMatcher == nil {
		logger := opts.Logger
		opts.NewMatcher = func(s services.Searcher) Matcher {
			return services.NewVideoMatcher(s, services.MatcherOpts{Logger: logger})
		}
	}
	return &ConversionEngine{
		session:    session,
		newMatcher: opts.NewMatcher,
		delay:      opts.Delay,
		sleep:      opts.Sleep,
		logger:     shared.WithLogger(opts.Logger, "component", "engine"),
	}
}

// sendProgress forwards update to the reporter, if any.
func (e *ConversionEngine) sendProgress(r Reporter, update ProgressUpdate) {
	if r == nil {
		return
	}
	r.Report(update)
}

// Convert runs one conversion, reporting every step to r and always finishing with an
// [EndOfStream] event.
//
// Only client initialization failures are returned as errors. Everything that happens once the
// source has been read is reflected in the returned [Outcome].
func (e *ConversionEngine) Convert(ctx context.Context, req ConvertRequest, r Reporter) (*Outcome, error) {
	defer e.sendProgress(r, doneUpdate())

	logger := shared.WithLogger(e.logger, "run", shared.GenerateID()[:8])
	logger.Info("conversion requested", "ref", req.Ref, "name", req.Name, "visibility", req.Visibility)

	src, err := e.session.Source(ctx)
	if err != nil {
		logger.Error("source client unavailable", "error", err)
		e.sendProgress(r, initFailedUpdate(err))
		return nil, err
	}
	dest, err := e.session.Destination(ctx)
	if err != nil {
		logger.Error("destination client unavailable", "error", err)
		e.sendProgress(r, initFailedUpdate(err))
		return nil, err
	}

	outcome := &Outcome{}

	e.sendProgress(r, fetchingSourceUpdate())
	tracks, err := src.FetchTracks(ctx, req.Ref)
	if err != nil {
		logger.Error("failed to fetch source tracks", "ref", req.Ref, "error", err)
		outcome.Err = err
		if shared.IsFatal(err) {
			e.sendProgress(r, initFailedUpdate(err))
			return outcome, nil
		}
		e.sendProgress(r, sourceFailedUpdate(err))
	}
	if len(tracks) == 0 {
		logger.Warn("no tracks found", "ref", req.Ref)
		e.sendProgress(r, noTracksUpdate(req.Ref))
		return outcome, nil
	}
	outcome.Total = len(tracks)
	e.sendProgress(r, foundTracksUpdate(tracks))

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = e.destinationName(ctx, src, req.Ref, tracks)
		e.sendProgress(r, defaultNameUpdate(name))
	}
	outcome.PlaylistName = name

	visibility, ok := models.ParseVisibility(req.Visibility)
	if !ok {
		logger.Warn("invalid privacy status, defaulting to private", "visibility", req.Visibility)
		e.sendProgress(r, visibilityCoercedUpdate(req.Visibility))
	}

	e.sendProgress(r, creatingPlaylistUpdate(name, visibility))
	playlistID, err := dest.CreatePlaylist(ctx, name, Description(req.Ref), visibility)
	if err != nil {
		logger.Error("failed to create destination playlist", "name", name, "error", err)
		outcome.Aborted, outcome.Err = true, err
		e.sendProgress(r, createFailedUpdate(name, err))
		e.finalize(r, outcome)
		return outcome, nil
	}
	outcome.PlaylistID = playlistID
	for _, u := range playlistCreatedUpdates(playlistID) {
		e.sendProgress(r, u)
	}

	e.loop(ctx, logger, r, dest, tracks, outcome)
	e.finalize(r, outcome)

	logger.Info("conversion finished",
		"added", outcome.Added, "not_found", outcome.NotFound, "failed", outcome.FailedToAdd, "aborted", outcome.Aborted)
	return outcome, nil
}

// loop processes each track in order: match, add, count, throttle. A fatal failure stops it.
func (e *ConversionEngine) loop(
	ctx context.Context, logger *log.Logger, r Reporter,
	dest services.Destination, tracks []models.Track, outcome *Outcome,
) {
	matcher := e.newMatcher(dest)
	total := len(tracks)

	for i, t := range tracks {
		step := i + 1
		if err := ctx.Err(); err != nil {
			e.abort(r, outcome, abortedUpdate(step, total, err), err)
			return
		}

		e.sendProgress(r, searchingUpdate(step, total, t))
		logger.Info("searching", "track", t.String(), "step", step, "total", total)

		videoID, err := matcher.Find(ctx, t)
		if err != nil {
			logger.Error("search aborted the run", "track", t.String(), "error", err)
			if errors.Is(err, shared.ErrQuotaExhausted) {
				e.abort(r, outcome, quotaSearchUpdate(step, total), err)
			} else {
				e.abort(r, outcome, abortedUpdate(step, total, err), err)
			}
			return
		}

		if videoID == "" {
			outcome.NotFound++
			e.sendProgress(r, notFoundUpdate(step, total, t))
		} else {
			e.sendProgress(r, foundVideoUpdate(step, total, videoID))
			added, err := dest.AddVideo(ctx, outcome.PlaylistID, videoID)
			switch {
			case err != nil:
				logger.Error("add aborted the run", "video", videoID, "error", err)
				if errors.Is(err, shared.ErrQuotaExhausted) {
					e.abort(r, outcome, quotaAddUpdate(step, total), err)
				} else {
					e.abort(r, outcome, abortedUpdate(step, total, err), err)
				}
				return
			case added:
				outcome.Added++
				e.sendProgress(r, addedUpdate(step, total, t, videoID))
			default:
				outcome.FailedToAdd++
				e.sendProgress(r, addFailedUpdate(step, total, t, videoID))
			}
		}

		if err := e.sleep(ctx, e.delay); err != nil && step < total {
			e.abort(r, outcome, abortedUpdate(step+1, total, err), err)
			return
		}
	}
}

func (e *ConversionEngine) abort(r Reporter, outcome *Outcome, update ProgressUpdate, err error) {
	outcome.Aborted, outcome.Err = true, err
	e.sendProgress(r, update)
}

func (e *ConversionEngine) finalize(r Reporter, outcome *Outcome) {
	for _, u := range summaryUpdates(outcome) {
		e.sendProgress(r, u)
	}
}

// Description is the destination playlist description for a source reference.
func Description(ref string) string {
	return fmt.Sprintf("Playlist created from Spotify playlist: %s by sp2yt.", ref)
}
