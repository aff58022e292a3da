package decoder

// State is the decode engine's state machine.
//
//	┌──────┐  load/play  ┌─────────┐   window ready   ┌───────────┐
//	│ Idle │────────────▶│ Probing │─────────────────▶│ Streaming │◀──┐
//	└──────┘             └─────────┘                  └───────────┘   │
//	   ▲                      │                         │  │  │       │
//	   │ stop                 │ load failed             │  │  │ seek  │
//	   │                      ▼                  pause  │  │  ▼       │
//	   │                 ┌────────┐                     │  │ ┌─────────┐
//	   └─────────────────│ Failed │                     │  │ │ Seeking │
//	                     └────────┘                     ▼  │ └─────────┘
//	                                            ┌────────┐ │ underrun
//	                                            │ Paused │ ▼
//	                                            └────────┘ ┌───────────┐
//	                                                       │ Refilling │
//	                                                       └───────────┘
//
// Streaming reaches Finished when the output drained a fully decoded track.
// Refilling returns to Streaming on its own once enough audio is decoded.
// Failed is only reached when no track was loaded before; a failed load
// over a loaded track goes back to that track's state.
//
// Load without play ends in Paused. Stop returns to Idle but keeps the
// track, so Resume replays it from the start.
type State int

const (
	Idle State = iota
	Probing
	Streaming
	Paused
	Seeking
	Refilling
	Finished
	Failed
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Probing:
		return "Probing"
	case Streaming:
		return "Streaming"
	case Paused:
		return "Paused"
	case Seeking:
		return "Seeking"
	case Refilling:
		return "Refilling"
	case Finished:
		return "Finished"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsActive returns true while a track is playing or waiting to play.
func (s State) IsActive() bool {
	return s == Streaming || s == Seeking || s == Refilling
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Streaming || s == Refilling
}

// CanResume returns true if the state allows resuming.
func (s State) CanResume() bool {
	return s == Paused || s == Idle || s == Finished
}
