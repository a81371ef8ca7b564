package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

const recentLines = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	TrackListView
	ConfirmView
	ConvertView
	ResultView
)

// Exporter reads a source playlist with its tracks.
type Exporter interface {
	ExportPlaylist(ctx context.Context, ref string) (*models.Playlist, error)
}

// Converter runs a conversion, reporting every event.
type Converter interface {
	Convert(ctx context.Context, req tasks.ConvertRequest, r tasks.Reporter) (*tasks.Outcome, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	req          tasks.ConvertRequest
	source       Exporter
	engine       Converter
	width        int
	height       int
	playlist     *models.Playlist
	trackList    list.Model
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	done         chan conversionComplete
	progress     tasks.ProgressUpdate
	recent       []tasks.ProgressUpdate
	summary      []tasks.ProgressUpdate
	outcome      *tasks.Outcome
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI for converting the playlist described by req.
func NewModel(ctx context.Context, source Exporter, engine Converter, req tasks.ConvertRequest) *Model {
	return &Model{
		ctx:     ctx,
		view:    LoadingView,
		req:     req,
		source:  source,
		engine:  engine,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init fetches the source tracks.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchTracks())
}

// Outcome returns the finished conversion's counters, if any.
func (m *Model) Outcome() *tasks.Outcome {
	return m.outcome
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = max(msg.Width-8, 10)
		if m.playlist != nil {
			m.trackList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ConvertView:
			return m.handleConvertKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != LoadingView && m.view != ConvertView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == TrackListView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.err = data.err
			m.view = ResultView
			return m, nil
		}
		m.playlist = data.playlist
		m.trackList = list.New(trackItems(data.playlist.Tracks), list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-6, 10))
		m.trackList.Title = fmt.Sprintf("%s (%d tracks)", data.playlist.Name, len(data.playlist.Tracks))
		m.view = TrackListView
		return m, nil

	case MsgProgressUpdate:
		m.record(msg.data.(tasks.ProgressUpdate))
		return m, m.waitForProgress()

	case MsgConversionComplete:
		data := msg.data.(conversionComplete)
		m.outcome, m.err = data.outcome, data.err
		m.view = ResultView
		m.progressChan, m.done = nil, nil
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) record(u tasks.ProgressUpdate) {
	switch u.Kind {
	case tasks.Done:
		return
	case tasks.Summary:
		m.summary = append(m.summary, u)
		return
	}
	if u.Total > 0 {
		m.progress = u
	}
	m.recent = append(m.recent, u)
	if len(m.recent) > recentLines {
		m.recent = m.recent[len(m.recent)-recentLines:]
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.convert):
			if len(m.playlist.Tracks) > 0 {
				m.view = ConfirmView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ConvertView
		return m, tea.Batch(m.spinner.Tick, m.startConversion())
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = TrackListView
	}
	return m, nil
}

func (m *Model) handleConvertKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && m.cancel != nil {
		m.cancel()
	}
	return m, nil
}

func (m *Model) fetchTracks() tea.Cmd {
	ctx, ref := m.ctx, m.req.Ref
	return func() tea.Msg {
		playlist, err := m.source.ExportPlaylist(ctx, ref)
		return tracksFetchedMsg(playlist, err)
	}
}

// startConversion runs the engine in the background, feeding events through a channel.
func (m *Model) startConversion() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel

	updates := make(chan tasks.ProgressUpdate, 16)
	done := make(chan conversionComplete, 1)
	m.progressChan, m.done = updates, done

	// Events outlive the run: cancelling it must not drop the abort and summary lines.
	engine, req, reporter := m.engine, m.req, tasks.ChannelReporter(m.ctx, updates)
	go func() {
		outcome, err := engine.Convert(ctx, req, reporter)
		done <- conversionComplete{outcome: outcome, err: err}
		close(updates)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	updates, done := m.progressChan, m.done
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			result := <-done
			return conversionCompleteMsg(result.outcome, result.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return fmt.Sprintf("%s Fetching tracks from Spotify playlist...\n\n%s", m.spinner.View(), m.helpView())
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) helpView() string {
	hasTracks := m.playlist != nil && len(m.playlist.Tracks) > 0
	return m.help.ShortHelpView(m.keys.forView(m.view, hasTracks))
}

func (m *Model) renderTrackList() string {
	if len(m.playlist.Tracks) == 0 {
		msg := styles.warn.Render("No valid tracks (songs) found in this Spotify playlist.")
		return fmt.Sprintf("%s\n\n%s", msg, m.helpView())
	}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.helpView())
}

func (m *Model) renderConfirm() string {
	name := m.req.Name
	if name == "" {
		name = fmt.Sprintf("derived from '%s'", m.playlist.Name)
	}
	visibility, _ := models.ParseVisibility(m.req.Visibility)

	title := styles.title.Render(fmt.Sprintf("Convert '%s' to a YouTube playlist?", m.playlist.Name))
	info := fmt.Sprintf("Tracks: %d\nYouTube playlist: %s\nPrivacy: %s\n", len(m.playlist.Tracks), name, visibility)
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.helpView())
}

func (m *Model) renderConvert() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Converting Playlist"))
	b.WriteString("\n")

	percent := 0.0
	if m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}
	fmt.Fprintf(&b, "%s %s\n\n", m.spinner.View(), m.bar.ViewAs(percent))

	for _, u := range m.recent {
		b.WriteString(styles.event(u))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.helpView()

	if m.outcome == nil {
		if m.err == nil {
			return styles.err.Render("No result available") + "\n\n" + helpView
		}
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + helpView
	}

	var b strings.Builder
	if m.outcome.Aborted {
		b.WriteString(styles.warn.Render("Conversion stopped early"))
	} else {
		b.WriteString(styles.ok.Render("✓ Conversion Complete!"))
	}
	b.WriteString("\n\n")

	for _, u := range m.recent {
		if u.Kind == tasks.Fatal {
			b.WriteString(styles.event(u))
			b.WriteString("\n")
		}
	}
	for _, u := range m.summary {
		b.WriteString(styles.event(u))
		b.WriteString("\n")
	}
	if link := m.outcome.Link(); link != "" {
		fmt.Fprintf(&b, "\n%s\n", styles.link.Render(link))
	}

	b.WriteString("\n")
	b.WriteString(helpView)
	return b.String()
}
