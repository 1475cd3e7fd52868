// Package playback feeds buffered audio packets to an output sink in real
// time.
//
// # Scheduler
//
// A [Scheduler] owns a jitter.Buffer and a small pool of fixed-size output
// buffers. All of its state lives on one goroutine: packet inserts, resyncs,
// pause requests and the sink's buffer-release callbacks are queued to that
// goroutine and applied in order, so the jitter buffer needs no lock.
//
// Output starts once two conditions hold: the control channel has said the
// sender is playing, and at least the playback delay (2 s by default) of
// audio is buffered ahead of the read cursor. From then on every free buffer
// is filled with sequential packets and handed to the sink. Missing packets
// are skipped rather than waited for.
//
// When a buffer cannot be enqueued (the sink rejected it, or there was
// nothing to put in it) it returns to the pool. If the whole pool ends up
// idle, playback stops and the read cursor jumps to the newest packet.
//
// # Sinks
//
// The [Sink] interface models an audio output queue: it accepts buffers,
// plays them on its own clock, and hands each one back through the release
// callback given to Open. [NullSink] and [WriterSink] are clocked software
// sinks that release buffers at the real-time rate of the audio they hold.
//
// # Format
//
// [ALACConfig] is the 24-byte ALAC decoder configuration (the magic cookie)
// carried in the session description. Decoding itself is left to the sink.
package playback
