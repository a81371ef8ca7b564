package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"golang.org/x/oauth2"
)

const stateCookie = "sp2yt_oauth_state"

var errInvalidState = errors.New("invalid state parameter")

// AuthCodeURL is the consent page URL for conf, requesting a refreshable token.
func AuthCodeURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// callbackCode validates the state and returns the authorization code of an OAuth callback.
func callbackCode(r *http.Request, state string) (string, error) {
	q := r.URL.Query()
	if state == "" || q.Get("state") != state {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, errInvalidState)
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: authorization denied: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
	}
	return code, nil
}

// OAuthResult is the outcome of a one-shot authorization callback.
type OAuthResult struct {
	Err error
}

// OAuthHandler serves the single callback of the command line authorization flow.
//
// It validates the state (CSRF protection), exchanges and stores the token through the
// [Authorizer], and reports the result once. Later callbacks are rejected.
type OAuthHandler struct {
	auth       Authorizer
	config     *oauth2.Config
	state      string
	resultChan chan OAuthResult
	once       sync.Once
	mu         sync.Mutex
	hit        bool
}

// NewOAuthHandler creates a handler for conf. The state should be unguessable.
func NewOAuthHandler(auth Authorizer, conf *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		auth:       auth,
		config:     conf,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	code, err := callbackCode(r, h.state)
	if err != nil {
		h.Send(OAuthResult{Err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.auth.Exchange(r.Context(), h.config, code); err != nil {
		h.Send(OAuthResult{Err: err})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = successPage.Execute(w, nil)
}

// Send delivers the result (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// AuthHandler runs the browser authorization flow of the web application.
//
// GET /auth/youtube redirects to the consent page. GET /callback stores the token and
// returns to the index page.
type AuthHandler struct {
	auth   Authorizer
	logger *log.Logger
}

// NewAuthHandler creates the web authorization handler.
func NewAuthHandler(auth Authorizer, logger *log.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Routes() []string {
	return []string{"GET /auth/youtube", "GET /callback"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conf, err := h.auth.OAuthConfig(redirectURL(r))
	if err != nil {
		h.logger.Error("youtube client secrets unavailable", "error", err)
		http.Error(w, fmt.Sprintf("YouTube authorization is not configured: %v", err), http.StatusInternalServerError)
		return
	}

	if r.URL.Path == "/callback" {
		h.callback(w, r, conf)
		return
	}

	state := shared.GenerateID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, AuthCodeURL(conf, state), http.StatusFound)
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request, conf *oauth2.Config) {
	var state string
	if c, err := r.Cookie(stateCookie); err == nil {
		state = c.Value
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code, err := callbackCode(r, state)
	if err != nil {
		h.logger.Warn("rejected oauth callback", "error", err)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.auth.Exchange(r.Context(), conf, code); err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("youtube authorized")
	http.Redirect(w, r, "/", http.StatusFound)
}

func redirectURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/callback", scheme, r.Host)
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #FF0000; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>YouTube authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`))
