package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

type fakeExporter struct {
	playlist *models.Playlist
	err      error
}

func (f *fakeExporter) ExportPlaylist(ctx context.Context, ref string) (*models.Playlist, error) {
	return f.playlist, f.err
}

// scriptedConverter replays updates and returns outcome.
type scriptedConverter struct {
	updates []tasks.ProgressUpdate
	outcome *tasks.Outcome
	err     error
	req     tasks.ConvertRequest
}

func (s *scriptedConverter) Convert(ctx context.Context, req tasks.ConvertRequest, r tasks.Reporter) (*tasks.Outcome, error) {
	s.req = req
	for _, u := range s.updates {
		r.Report(u)
	}
	r.Report(tasks.ProgressUpdate{Kind: tasks.Done, Message: tasks.EndOfStream})
	return s.outcome, s.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func samplePlaylist() *models.Playlist {
	return &models.Playlist{
		ID:   "ABCDEFGHIJKLMNOPQRSTUV",
		Name: "Road Trip",
		Tracks: []models.Track{
			{Name: "Song A", Artists: []string{"Artist A"}, Album: "Album"},
			{Name: "Song B"},
		},
	}
}

// drain executes cmd and feeds its messages back until the conversion completes.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for cmd != nil {
		msgCh := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { msgCh <- c() }(cmd)

		select {
		case msg := <-msgCh:
			_, cmd = m.Update(msg)
		case <-deadline:
			t.Fatal("conversion did not finish")
		}
	}
}

func TestModel(t *testing.T) {
	t.Run("preview, confirm and convert", func(t *testing.T) {
		conv := &scriptedConverter{
			updates: []tasks.ProgressUpdate{
				{Kind: tasks.Info, Message: "Fetching tracks from Spotify playlist..."},
				{Kind: tasks.Info, Phase: tasks.PerTrackLoop, Step: 1, Total: 2, Message: "[1/2] Searching for: 'Song A - Artist A'..."},
				{Kind: tasks.Warning, Phase: tasks.PerTrackLoop, Step: 2, Total: 2, Message: "  Could not find a suitable YouTube video for 'Song B - Unknown Artist'. Skipping."},
				{Kind: tasks.Summary, Message: "--- Process Complete ---"},
				{Kind: tasks.Summary, Message: "1 songs could not be found on YouTube."},
			},
			outcome: &tasks.Outcome{Total: 2, Added: 1, NotFound: 1, PlaylistID: "PL1"},
		}
		req := tasks.ConvertRequest{Ref: "ABCDEFGHIJKLMNOPQRSTUV", Visibility: "unlisted"}
		m := NewModel(context.Background(), &fakeExporter{playlist: samplePlaylist()}, conv, req)

		if !strings.Contains(m.View(), "Fetching tracks") {
			t.Errorf("expected loading view, got %q", m.View())
		}

		m.Update(tracksFetchedMsg(samplePlaylist(), nil))
		if m.view != TrackListView {
			t.Fatalf("expected track list, got %v", m.view)
		}
		if m.trackList.Title != "Road Trip (2 tracks)" || len(m.trackList.Items()) != 2 {
			t.Errorf("unexpected track list %q with %d items", m.trackList.Title, len(m.trackList.Items()))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		view := m.View()
		if !strings.Contains(view, "derived from 'Road Trip'") || !strings.Contains(view, "Privacy: unlisted") {
			t.Errorf("unexpected confirm view %q", view)
		}

		m.Update(runes("n"))
		if m.view != TrackListView {
			t.Fatalf("expected n to go back, got %v", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		// y starts the run alongside the spinner; drive the conversion half directly.
		m.view = ConvertView
		drain(t, m, m.startConversion())

		if m.view != ResultView {
			t.Fatalf("expected result view, got %v", m.view)
		}
		if m.Outcome() == nil || m.Outcome().Added != 1 {
			t.Errorf("unexpected outcome %+v", m.Outcome())
		}
		if conv.req != req {
			t.Errorf("expected request %+v, got %+v", req, conv.req)
		}

		result := m.View()
		for _, want := range []string{"Conversion Complete", "1 songs could not be found", "https://www.youtube.com/playlist?list=PL1"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in result view %q", want, result)
			}
		}
		if len(m.summary) != 2 || m.progress.Step != 2 {
			t.Errorf("unexpected progress state: summary %d, step %d", len(m.summary), m.progress.Step)
		}

		if _, cmd := m.Update(runes("q")); cmd == nil {
			t.Error("expected quit command")
		}
	})

	t.Run("fetch failure", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeExporter{}, &scriptedConverter{}, tasks.ConvertRequest{})
		m.Update(tracksFetchedMsg(nil, shared.ErrInvalidReference))
		if m.view != ResultView || !strings.Contains(m.View(), "invalid playlist reference") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})

	t.Run("empty playlist cannot be converted", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeExporter{}, &scriptedConverter{}, tasks.ConvertRequest{})
		m.Update(tracksFetchedMsg(&models.Playlist{Name: "Empty"}, nil))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != TrackListView {
			t.Errorf("expected to stay on track list, got %v", m.view)
		}
		if !strings.Contains(m.View(), "No valid tracks") {
			t.Errorf("expected empty message, got %q", m.View())
		}
	})

	t.Run("initialization failure", func(t *testing.T) {
		conv := &scriptedConverter{err: errors.New("not authenticated")}
		m := NewModel(context.Background(), &fakeExporter{}, conv, tasks.ConvertRequest{})
		m.Update(tracksFetchedMsg(samplePlaylist(), nil))
		m.view = ConvertView
		drain(t, m, m.startConversion())

		if m.view != ResultView || !strings.Contains(m.View(), "not authenticated") {
			t.Errorf("expected error result, got %q", m.View())
		}
	})

	t.Run("recent lines are bounded", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeExporter{}, &scriptedConverter{}, tasks.ConvertRequest{})
		for i := 0; i < recentLines+5; i++ {
			m.record(tasks.ProgressUpdate{Kind: tasks.Info, Message: "line"})
		}
		m.record(tasks.ProgressUpdate{Kind: tasks.Done, Message: tasks.EndOfStream})
		if len(m.recent) != recentLines {
			t.Errorf("expected %d recent lines, got %d", recentLines, len(m.recent))
		}
	})
}

func TestKeyMapForView(t *testing.T) {
	keys := newKeyMap()
	tc := []struct {
		view      ViewState
		hasTracks bool
		want      []string
	}{
		{LoadingView, false, []string{"q"}},
		{TrackListView, false, []string{"q"}},
		{TrackListView, true, []string{"enter", "↑/k", "↓/j", "/", "q"}},
		{ConfirmView, true, []string{"y", "n"}},
		{ConvertView, true, []string{"ctrl+c"}},
		{ResultView, true, []string{"q"}},
	}

	for _, tt := range tc {
		var got []string
		for _, b := range keys.forView(tt.view, tt.hasTracks) {
			got = append(got, b.Help().Key)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("view %v (tracks %v): expected %v, got %v", tt.view, tt.hasTracks, tt.want, got)
		}
	}
}
