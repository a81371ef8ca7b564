// Package tasks converts a Spotify playlist into a YouTube playlist with real-time progress reporting.
//
// # Conversion
//
// [ConversionEngine.Convert] runs one conversion through these phases:
//
//  1. Client initialization: both provider clients are built before any provider call.
//     Configuration and authorization failures stop the run here and are returned.
//  2. Fetching the source: every playable track, in playlist order.
//     An empty or unreadable playlist ends the run with a single "no tracks" event.
//  3. Naming the destination: the requested name, else the source name with " (on YouTube)",
//     else the first track's name, else [DefaultPlaylistName].
//  4. Creating the destination playlist with the requested visibility (coerced to private).
//  5. The per-track loop: match a video, add it, count the result, pause.
//     Quota exhaustion, lost authorization and cancellation stop the loop.
//  6. The summary, followed by the [EndOfStream] event.
//
// # Progress Reporting
//
// Every event is a [ProgressUpdate] delivered in order to a [Reporter]. The final event of every
// run, including runs that fail during initialization, has the message [EndOfStream].
//
// [ChannelReporter] adapts a channel for the TUI. [Recorder] keeps events in memory.
//
// # Outcome
//
// [Outcome] holds the run's counters and the destination playlist id. It is never persisted.
package tasks
