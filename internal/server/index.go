package server

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
)

//go:embed static/index.html
var indexHTML string

var indexPage = template.Must(template.New("index").Parse(indexHTML))

// IndexHandler serves the conversion form and the authorization status endpoint.
type IndexHandler struct {
	auth   Authorizer
	logger *log.Logger
}

// NewIndexHandler creates the index and status handler.
func NewIndexHandler(auth Authorizer, logger *log.Logger) *IndexHandler {
	return &IndexHandler{auth: auth, logger: logger}
}

func (h *IndexHandler) Routes() []string {
	return []string{"GET /{$}", "GET /check_auth"}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authorized := h.auth.Authorized()

	if r.URL.Path == "/check_auth" {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]bool{"yt_authorized": authorized}); err != nil {
			h.logger.Error("failed to write auth status", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage.Execute(w, struct{ Authorized bool }{authorized}); err != nil {
		h.logger.Error("failed to render index", "error", err)
	}
}
