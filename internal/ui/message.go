package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTracksFetched MsgKind = iota
	MsgProgressUpdate
	MsgConversionComplete
)

type tracksFetched struct {
	playlist *models.Playlist
	err      error
}

type conversionComplete struct {
	outcome *tasks.Outcome
	err     error
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist *models.Playlist, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{playlist, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// conversionCompleteMsg is the constructor for [MsgConversionComplete]
func conversionCompleteMsg(outcome *tasks.Outcome, err error) Msg {
	return Msg{kind: MsgConversionComplete, data: conversionComplete{outcome, err}}
}
