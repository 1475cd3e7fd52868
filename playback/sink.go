package playback

// ReleaseFunc hands a played or flushed buffer back to its owner. Sinks may
// call it from any goroutine but must not call it while holding a lock that
// Enqueue also takes.
type ReleaseFunc func(*Buffer)

// Sink is an audio output queue running on its own clock.
//
// Every buffer accepted by Enqueue is eventually passed to the release
// callback, either after it has played or when Reset flushes it. A buffer
// rejected by Enqueue stays with the caller.
type Sink interface {
	// Open registers the release callback. It is called once, before any
	// other method.
	Open(release ReleaseFunc) error
	// Configure sets the stream format, including the decoder cookie.
	Configure(format Format) error
	// Start begins or resumes playing queued buffers.
	Start() error
	// Pause stops the clock and keeps queued buffers.
	Pause() error
	// Reset releases every queued buffer without playing it.
	Reset() error
	// Enqueue appends a buffer to the play queue.
	Enqueue(buf *Buffer) error
	// Close stops the sink and drops queued buffers.
	Close() error
}
