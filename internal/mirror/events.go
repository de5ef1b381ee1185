package mirror

import "time"

// Stage describes a phase of a sync.
type Stage string

const (
	// StageInstrument writes instrumented copies of selected files.
	StageInstrument Stage = "instrument"
	// StageReset restores unselected mirror files from the pristine tree.
	StageReset Stage = "reset"
	// StageState records the sync state file.
	StageState Stage = "state"
)

// Status captures progress of a file within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is being processed.
	StatusWorking Status = "working"
	// StatusDone indicates the file was rewritten.
	StatusDone Status = "done"
	// StatusUnchanged indicates the mirror already held the wanted content.
	StatusUnchanged Status = "unchanged"
	// StatusError indicates the file failed.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the whole sync when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) {
	if f != nil {
		f(evt)
	}
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
