package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/sp2yt/internal/server"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthYouTube runs the installed-app OAuth flow: it serves a one-shot callback on the
// configured port, opens the consent page and waits for the token to be stored.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(r.auth); err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", r.config.Credentials.YouTube.CallbackPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback listener on %s: %w", addr, err)
	}

	conf, err := r.auth.OAuthConfig(fmt.Sprintf("http://%s/callback", ln.Addr()))
	if err != nil {
		ln.Close()
		return err
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(r.auth, conf, state)

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(handler)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handler.Send(server.OAuthResult{Err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown failed", "error", err)
		}
	}()

	authURL := server.AuthCodeURL(conf, state)
	r.logger.Info("waiting for youtube authorization", "callback", ln.Addr().String())
	r.writePlain("Opening browser for YouTube authorization...\n")
	r.writePlain("If it does not open, visit:\n%s\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	select {
	case result := <-handler.Result():
		if result.Err != nil {
			return result.Err
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: no authorization callback received", shared.ErrTimeout)
	}

	return r.writePlain("✓ YouTube authorization saved to %s\n", r.config.TokenPath())
}

// AuthStatus reports whether a YouTube token is cached.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(r.auth); err != nil {
		return err
	}

	authorized := r.auth.Authorized()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"yt_authorized": authorized,
			"token_file":    r.config.TokenPath(),
		}, cmd.Bool("pretty"))
	}

	if authorized {
		r.writePlain("YouTube: ✓ Authorized\n")
	} else {
		r.writePlain("YouTube: ✗ Not authorized (run 'sp2yt auth youtube')\n")
	}
	r.writePlain("Token file: %s\n", r.config.TokenPath())

	if err := r.config.ValidateSpotify(); err != nil {
		return r.writePlain("Spotify: ✗ %v\n", err)
	}
	return r.writePlain("Spotify: ✓ Client credentials configured\n")
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "youtube",
				Usage: "Authorize playlist access on YouTube through the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the authorization callback",
						Value: 5 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Only print the consent URL",
					},
				},
				Action: r.AuthYouTube,
			},
			{
				Name:  "status",
				Usage: "Show whether YouTube is authorized and Spotify is configured",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}
