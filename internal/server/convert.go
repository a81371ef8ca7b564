package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

const missingRefMessage = "Error: Spotify Playlist URL is required."

// ConvertHandler streams a conversion as server-sent events.
//
// Every progress event becomes one "data: <text>\n\n" frame and the stream always ends with
// the [tasks.EndOfStream] frame. A client disconnect cancels the run.
type ConvertHandler struct {
	engine Converter
	logger *log.Logger
}

// NewConvertHandler creates the conversion endpoint.
func NewConvertHandler(engine Converter, logger *log.Logger) *ConvertHandler {
	return &ConvertHandler{engine: engine, logger: logger}
}

func (h *ConvertHandler) Routes() []string {
	return []string{"POST /convert"}
}

func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream := newEventStream(w)

	req := tasks.ConvertRequest{
		Ref:        strings.TrimSpace(r.FormValue("spotify_url")),
		Name:       strings.TrimSpace(r.FormValue("yt_playlist_name")),
		Visibility: r.FormValue("yt_privacy"),
	}
	if req.Visibility == "" {
		req.Visibility = "private"
	}

	if req.Ref == "" {
		h.logger.Warn("conversion attempt with no spotify url")
		stream.Report(tasks.ProgressUpdate{Kind: tasks.Fatal, Message: missingRefMessage})
		stream.Report(tasks.ProgressUpdate{Kind: tasks.Done, Message: tasks.EndOfStream})
		return
	}

	h.logger.Info("conversion request", "ref", req.Ref, "name", req.Name, "visibility", req.Visibility)
	outcome, err := h.engine.Convert(r.Context(), req, stream)
	if err != nil {
		h.logger.Error("conversion could not start", "error", err)
		return
	}
	h.logger.Info("conversion stream finished", "added", outcome.Added, "aborted", outcome.Aborted)
}

// eventStream writes progress events as server-sent event frames.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	f, _ := w.(http.Flusher)
	return &eventStream{w: w, flusher: f}
}

func (s *eventStream) Report(u tasks.ProgressUpdate) {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	fmt.Fprintf(s.w, "data: %s\n\n", strings.ReplaceAll(u.Message, "\n", " "))
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
