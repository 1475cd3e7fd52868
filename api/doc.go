// Package api serves the receiver's HTTP control surface for a user
// interface.
//
//	GET  /info          track and player snapshot
//	GET  /artwork       cover art of the current track
//	POST /play          ask the sender to toggle playback
//	POST /pause         ask the sender to pause
//	POST /next          ask the sender to skip forward
//	POST /previous      ask the sender to go back
//	GET  /events        websocket stream of session events
//	GET  /metrics       Prometheus metrics
//	GET  /debug/buffer  playback scheduler state
package api
