package session

import "errors"

var (
	// ErrNilEngine indicates a manager built without a crypto engine.
	ErrNilEngine = errors.New("crypto engine cannot be nil")

	// ErrNilPlayback indicates a manager built without a playback scheduler.
	ErrNilPlayback = errors.New("playback cannot be nil")

	// ErrNoRemoteControl indicates a transport command without a remote
	// client configured.
	ErrNoRemoteControl = errors.New("remote control not configured")

	// ErrManagerClosed indicates a call on a closed manager.
	ErrManagerClosed = errors.New("session manager closed")
)
