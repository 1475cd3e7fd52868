// Package session coordinates one AirPlay receiver.
//
// A [Manager] owns the crypto engine and talks to the playback scheduler,
// the RTP receiver and the remote-control client through small interfaces.
// The RTSP server drives it through the rtsp.SessionHandler methods and the
// body consumers installed by [Manager.RegisterBodies].
//
// # Lifecycle
//
//	SETUP          BeginPlayback  sender marked playing
//	RECORD, FLUSH  ResetPlayback  sink flushed, next packet resyncs
//	TEARDOWN       EndPlayback    track cleared, output paused
//
// # Events
//
// Track and player changes are published to subscribers as [Event] values
// carrying immutable snapshots. Slow subscribers miss events rather than
// block the control channel.
package session
