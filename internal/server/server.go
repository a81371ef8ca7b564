package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the [http.ServeMux] patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Authorizer is the YouTube authorization surface of the session.
type Authorizer interface {
	Authorized() bool
	OAuthConfig(redirectURL string) (*oauth2.Config, error)
	Exchange(ctx context.Context, conf *oauth2.Config, code string) error
}

// Converter runs a single conversion, reporting every event.
type Converter interface {
	Convert(ctx context.Context, req tasks.ConvertRequest, r tasks.Reporter) (*tasks.Outcome, error)
}

// New builds the web application: index page, authorization status, YouTube consent flow
// and the streaming conversion endpoint.
func New(engine Converter, auth Authorizer, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "server")

	r := NewBasicRouter()
	r.Use(Recoverer(logger), RequestLogger(logger))
	r.Handler(NewIndexHandler(auth, logger))
	r.Handler(NewAuthHandler(auth, logger))
	r.Handler(NewConvertHandler(engine, logger))
	return r
}
