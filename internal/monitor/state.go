package monitor

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is the lifecycle position of a streamer.
type State int

const (
	StateIdle State = iota
	StateWatching
	StateRecordingActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateWatching:
		return "watching"
	case StateRecordingActive:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Label returns the title-cased state name for display.
func (s State) Label() string {
	return cases.Title(language.English).String(s.String())
}

func deriveState(monitoring, recording, everStarted bool) State {
	switch {
	case monitoring && recording:
		return StateRecordingActive
	case monitoring:
		return StateWatching
	case everStarted:
		return StateStopped
	default:
		return StateIdle
	}
}
