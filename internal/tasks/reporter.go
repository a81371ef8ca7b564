package tasks

import (
	"context"
	"sync"
)

// Reporter receives progress events in order.
type Reporter interface {
	Report(update ProgressUpdate)
}

// ReporterFunc adapts a function to [Reporter].
type ReporterFunc func(ProgressUpdate)

func (f ReporterFunc) Report(update ProgressUpdate) { f(update) }

// ChannelReporter sends every update on ch, blocking until the receiver takes it or ctx is done.
//
// A send that can proceed always wins over a done ctx, so buffered updates such as the
// closing summary are not dropped when the run is cancelled.
func ChannelReporter(ctx context.Context, ch chan<- ProgressUpdate) Reporter {
	return ReporterFunc(func(u ProgressUpdate) {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case ch <- u:
		case <-ctx.Done():
		}
	})
}

// Recorder keeps every update it receives.
type Recorder struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (r *Recorder) Report(update ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
}

// Updates returns a copy of the recorded updates.
func (r *Recorder) Updates() []ProgressUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressUpdate(nil), r.updates...)
}

// Lines returns the recorded messages.
func (r *Recorder) Lines() []string {
	updates := r.Updates()
	lines := make([]string, len(updates))
	for i, u := range updates {
		lines[i] = u.Message
	}
	return lines
}
