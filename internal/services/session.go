package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// SessionOpts overrides provider endpoints and transport, mostly for tests.
type SessionOpts struct {
	HTTPClient      *http.Client
	SpotifyTokenURL string
	SpotifyBaseURL  string
	YouTubeEndpoint string
	Logger          *log.Logger
}

// Session owns the process-wide provider clients.
//
// Clients are created on first use and reused afterwards. The YouTube client is re-validated on
// every [Session.Destination] call and rebuilt from the token store when its token has expired
// and cannot be refreshed silently.
type Session struct {
	cfg    *shared.Config
	opts   SessionOpts
	tokens *TokenStore
	logger *log.Logger

	mu       sync.Mutex
	spotify  *SpotifyService
	youtube  *YouTubeService
	ytTokens oauth2.TokenSource
	ytGen    int

	// ytBuild serializes YouTube validation and rebuilds, which may refresh the token over
	// the network. mu is never held across a network call.
	ytBuild sync.Mutex
}

// NewSession creates a session for cfg. No provider is contacted until a client is requested.
func NewSession(cfg *shared.Config, opts SessionOpts) *Session {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Session{
		cfg:    cfg,
		opts:   opts,
		tokens: NewTokenStore(cfg.TokenPath()),
		logger: shared.WithLogger(opts.Logger, "component", "session"),
	}
}

// Tokens returns the YouTube token store.
func (s *Session) Tokens() *TokenStore {
	return s.tokens
}

// Authorized reports whether a YouTube token is cached.
func (s *Session) Authorized() bool {
	return s.tokens.Exists()
}

// background returns a long-lived context for token refreshes, carrying the test transport if set.
func (s *Session) background() context.Context {
	ctx := context.Background()
	if s.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.opts.HTTPClient)
	}
	return ctx
}

// Spotify returns the cached Spotify client, creating it on first use.
func (s *Session) Spotify(ctx context.Context) (*SpotifyService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spotify != nil {
		return s.spotify, nil
	}
	if err := s.cfg.ValidateSpotify(); err != nil {
		return nil, err
	}

	svc, err := NewSpotifyService(s.background(), SpotifyOpts{
		ClientID:          s.cfg.Credentials.Spotify.ClientID,
		ClientSecret:      s.cfg.Credentials.Spotify.ClientSecret,
		TokenURL:          s.opts.SpotifyTokenURL,
		BaseURL:           s.opts.SpotifyBaseURL,
		HTTPClient:        s.opts.HTTPClient,
		PageSize:          s.cfg.Spotify.PageSize,
		RequestsPerSecond: s.cfg.Spotify.RequestsPerSecond,
		Logger:            s.opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("spotify client initialized")
	s.spotify = svc
	return svc, nil
}

// Source returns the playlist source.
func (s *Session) Source(ctx context.Context) (Source, error) {
	svc, err := s.Spotify(ctx)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// OAuthConfig loads the installed-app client secrets and returns a config for the playlist-write scope.
func (s *Session) OAuthConfig(redirectURL string) (*oauth2.Config, error) {
	if err := s.cfg.ValidateYouTube(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.cfg.Credentials.YouTube.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read client secrets: %w", shared.ErrMissingCredentials, err)
	}
	conf, err := google.ConfigFromJSON(data, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse client secrets: %w", shared.ErrInvalidConfig, err)
	}
	if redirectURL != "" {
		conf.RedirectURL = redirectURL
	}
	return conf, nil
}

// Exchange trades an authorization code for a token, stores it and drops any cached YouTube client.
func (s *Session) Exchange(ctx context.Context, conf *oauth2.Config, code string) error {
	if s.opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.opts.HTTPClient)
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: failed to exchange code: %w", shared.ErrAuthFailed, err)
	}
	if err := s.tokens.Save(tok); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	s.mu.Lock()
	s.youtube, s.ytTokens = nil, nil
	s.ytGen++
	s.mu.Unlock()

	s.logger.Info("youtube credentials saved", "path", s.tokens.Path())
	return nil
}

// YouTube returns a YouTube client whose token is currently valid.
func (s *Session) YouTube(ctx context.Context) (*YouTubeService, error) {
	s.ytBuild.Lock()
	defer s.ytBuild.Unlock()

	s.mu.Lock()
	cached, cachedTokens, gen := s.youtube, s.ytTokens, s.ytGen
	s.mu.Unlock()

	if cached != nil && cachedTokens != nil {
		if tok, err := cachedTokens.Token(); err == nil && tok.Valid() {
			return cached, nil
		}
		s.logger.Info("cached youtube credentials are no longer valid, re-authenticating")
		s.storeYouTube(gen, nil, nil)
	}

	tok, err := s.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("%w (authorize with `sp2yt auth youtube` or the web page)", err)
	}

	conf, err := s.OAuthConfig("")
	if err != nil {
		return nil, err
	}

	base := s.background()
	ts := &persistingTokenSource{
		base:   conf.TokenSource(base, tok),
		store:  s.tokens,
		logger: s.logger,
		last:   tok.AccessToken,
	}
	if _, err := ts.Token(); err != nil {
		s.logger.Warn("youtube token refresh failed, removing cached token", "error", err)
		if rerr := s.tokens.Remove(); rerr != nil {
			s.logger.Error("failed to remove token", "path", s.tokens.Path(), "error", rerr)
		}
		return nil, fmt.Errorf("%w: %w: re-authorization required", shared.ErrNotAuthenticated, err)
	}

	svc, err := NewYouTubeService(base, YouTubeOpts{
		HTTPClient:        oauth2.NewClient(base, ts),
		Endpoint:          s.opts.YouTubeEndpoint,
		CategoryID:        s.cfg.Search.CategoryID,
		RelevanceLanguage: s.cfg.Search.RelevanceLanguage,
		Logger:            s.opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("youtube client initialized")
	s.storeYouTube(gen, svc, ts)
	return svc, nil
}

// storeYouTube caches svc unless new credentials were exchanged since gen was read.
func (s *Session) storeYouTube(gen int, svc *YouTubeService, ts oauth2.TokenSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ytGen == gen {
		s.youtube, s.ytTokens = svc, ts
	}
}

// Destination returns the video destination.
func (s *Session) Destination(ctx context.Context) (Destination, error) {
	svc, err := s.YouTube(ctx)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Matcher builds a [VideoMatcher] over searcher using the configured search settings.
func (s *Session) Matcher(searcher Searcher) *VideoMatcher {
	return NewVideoMatcher(searcher, MatcherOpts{
		Modifiers:  s.cfg.Search.Modifiers,
		MaxResults: s.cfg.Search.MaxResults,
		Logger:     s.opts.Logger,
	})
}
