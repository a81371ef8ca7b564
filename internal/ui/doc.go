// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks a single conversion:
//  1. [LoadingView] : Fetch the Spotify playlist's tracks
//  2. [TrackListView] : Preview (and filter) the tracks
//  3. [ConfirmView] : Confirm the destination name and privacy
//  4. [ConvertView] : Monitor live progress with a spinner and a progress bar
//  5. [ResultView] : Display the summary and the playlist link
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel fed by [tasks.ChannelReporter] while the conversion runs in the background.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
