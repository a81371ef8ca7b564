package tasks

import (
	"fmt"

	"github.com/desertthunder/sp2yt/internal/models"
)

// EndOfStream is the text of the final event of every conversion.
const EndOfStream = "END_OF_STREAM"

// ProgressUpdate represents a progress event during a conversion.
//
// Used to send real-time updates to the CLI, TUI or web layer for display.
type ProgressUpdate struct {
	Kind    Kind   // Event class
	Phase   Phase  // Orchestrator state when the event was emitted
	Step    int    // Current track number within the loop
	Total   int    // Number of tracks in the run
	Message string // Human-readable line for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// String returns the display line.
func (u ProgressUpdate) String() string {
	return u.Message
}

// Kind classifies a progress event.
type Kind int

const (
	Info Kind = iota
	Warning
	Fatal
	Summary
	Done
)

func (k Kind) String() string {
	switch k {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	case Summary:
		return "summary"
	case Done:
		return "done"
	default:
		return ""
	}
}

// Phase is the orchestrator state.
type Phase int

const (
	Idle Phase = iota
	FetchingSource
	NamingDestination
	CreatingDestination
	PerTrackLoop
	Finalized
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case FetchingSource:
		return "fetching_source"
	case NamingDestination:
		return "naming_destination"
	case CreatingDestination:
		return "creating_destination"
	case PerTrackLoop:
		return "per_track_loop"
	case Finalized:
		return "finalized"
	default:
		return ""
	}
}

// TrackResult is attached to per-track outcome events.
type TrackResult struct {
	Track   models.Track
	VideoID string
	Added   bool
}

func initFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Fatal,
		Phase:   Idle,
		Message: fmt.Sprintf("FATAL Error during client initialization: %v. Please check server logs and configuration.", err),
	}
}

func fetchingSourceUpdate() ProgressUpdate {
	return ProgressUpdate{Kind: Info, Phase: FetchingSource, Message: "Fetching tracks from Spotify playlist..."}
}

func sourceFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{Kind: Warning, Phase: FetchingSource, Message: fmt.Sprintf("Could not read the Spotify playlist: %v", err)}
}

func noTracksUpdate(ref string) ProgressUpdate {
	return ProgressUpdate{
		Kind:  Info,
		Phase: FetchingSource,
		Message: fmt.Sprintf("No valid tracks (songs) found in Spotify playlist or an error occurred. URL: %s. "+
			"This could also mean the playlist is empty, private, or contains only podcasts/local files.", ref),
	}
}

func foundTracksUpdate(tracks []models.Track) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Info,
		Phase:   FetchingSource,
		Total:   len(tracks),
		Message: fmt.Sprintf("Found %d tracks in the Spotify playlist.", len(tracks)),
		Data:    tracks,
	}
}

func defaultNameUpdate(name string) ProgressUpdate {
	return ProgressUpdate{Kind: Info, Phase: NamingDestination, Message: fmt.Sprintf("Using default YouTube playlist name: '%s'", name)}
}

func visibilityCoercedUpdate(raw string) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Warning,
		Phase:   NamingDestination,
		Message: fmt.Sprintf("Invalid privacy status '%s'. Defaulting to 'private'.", raw),
	}
}

func creatingPlaylistUpdate(name string, v models.Visibility) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Info,
		Phase:   CreatingDestination,
		Message: fmt.Sprintf("Creating YouTube playlist: '%s' (Privacy: %s)...", name, v),
	}
}

func createFailedUpdate(name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:  Fatal,
		Phase: CreatingDestination,
		Message: fmt.Sprintf("Error: Failed to create YouTube playlist '%s': %v. Check logs for API errors "+
			"(e.g., quota issues, invalid characters in name, or auth problems).", name, err),
	}
}

func playlistCreatedUpdates(id string) []ProgressUpdate {
	return []ProgressUpdate{
		{Kind: Info, Phase: CreatingDestination, Message: fmt.Sprintf("YouTube playlist created! ID: %s", id), Data: id},
		{Kind: Info, Phase: CreatingDestination, Message: fmt.Sprintf("Link: %s", models.PlaylistLink(id))},
	}
}

func searchingUpdate(step, total int, t models.Track) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Info,
		Phase:   PerTrackLoop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching for: '%s'...", step, total, t),
	}
}

func foundVideoUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Info,
		Phase:   PerTrackLoop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  Found YouTube video ID: %s. Adding to playlist...", videoID),
	}
}

func addedUpdate(step, total int, t models.Track, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Info,
		Phase:   PerTrackLoop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  Successfully added '%s' to YouTube playlist.", t),
		Data:    TrackResult{Track: t, VideoID: videoID, Added: true},
	}
}

func addFailedUpdate(step, total int, t models.Track, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Kind:  Warning,
		Phase: PerTrackLoop,
		Step:  step,
		Total: total,
		Message: fmt.Sprintf("  Failed to add '%s' (Video ID: %s) to playlist. "+
			"Video might be unavailable or other API issue noted in logs.", t, videoID),
		Data: TrackResult{Track: t, VideoID: videoID},
	}
}

func notFoundUpdate(step, total int, t models.Track) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Warning,
		Phase:   PerTrackLoop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  Could not find a suitable YouTube video for '%s'. Skipping.", t),
		Data:    TrackResult{Track: t},
	}
}

func quotaSearchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Kind:  Fatal,
		Phase: PerTrackLoop,
		Step:  step,
		Total: total,
		Message: "FATAL ERROR: YouTube API Quota Exceeded during song search. Cannot continue searching. " +
			"Please try again after your quota resets (usually daily PST), or request a quota increase from Google Cloud Console.",
	}
}

func quotaAddUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Kind:  Fatal,
		Phase: PerTrackLoop,
		Step:  step,
		Total: total,
		Message: "FATAL ERROR: YouTube API Quota Exceeded while trying to add a video. Cannot continue. " +
			"Please try again after your quota resets.",
	}
}

func abortedUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Kind:    Fatal,
		Phase:   PerTrackLoop,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("FATAL ERROR: Conversion stopped: %v", err),
	}
}

func summaryUpdates(o *Outcome) []ProgressUpdate {
	lines := []string{
		"--- Process Complete ---",
		fmt.Sprintf("Successfully added %d songs to the YouTube playlist '%s'.", o.Added, o.PlaylistName),
	}
	if o.NotFound > 0 {
		lines = append(lines, fmt.Sprintf("%d songs could not be found on YouTube.", o.NotFound))
	}
	if o.FailedToAdd > 0 {
		lines = append(lines, fmt.Sprintf("%d songs were found but failed to be added "+
			"(e.g., video unavailable, quota issue during add, or other API error).", o.FailedToAdd))
	}
	if o.PlaylistID != "" {
		lines = append(lines, fmt.Sprintf("Find your new playlist here: %s", o.Link()))
	}

	updates := make([]ProgressUpdate, len(lines))
	for i, l := range lines {
		updates[i] = ProgressUpdate{Kind: Summary, Phase: Finalized, Total: o.Total, Message: l}
	}
	updates[len(updates)-1].Data = *o
	return updates
}

func doneUpdate() ProgressUpdate {
	return ProgressUpdate{Kind: Done, Phase: Finalized, Message: EndOfStream}
}
