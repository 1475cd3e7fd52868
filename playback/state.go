package playback

// State is the playback state of a Scheduler.
type State uint8

const (
	// StateIdle means no packets since the last resync.
	StateIdle State = iota
	// StateBuffering means packets are arriving but output has not started.
	StateBuffering
	// StatePlaying means buffers are being fed to the sink.
	StatePlaying
	// StatePaused means output was stopped by a pause or end of playback.
	StatePaused
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
