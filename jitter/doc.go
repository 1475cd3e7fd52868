// Package jitter implements the fixed-size reorder buffer that sits between
// the RTP receive path and audio output.
//
// # Ring Layout
//
// A [Buffer] holds 1024 slots. A packet with sequence number n lives in slot
// n mod 1024, so every non-empty slot satisfies
//
//	slot[i].SequenceNumber % 1024 == i
//
// Two 16-bit cursors track progress. The read index is the next sequence
// number the output path expects; the write index is the newest sequence
// number accepted so far. Both compare with the half-range rule from the rtp
// package, so wraparound at 65535 is invisible to callers.
//
// # Concurrency
//
// Buffer does no locking. It is owned by a single goroutine, the playback
// scheduler, and every read or mutation must happen there.
//
// # Reset
//
// [Buffer.Resync] is the only operation that resets both cursors and clears
// the slots. [Buffer.CatchUp] moves the read cursor forward to the write
// cursor without touching stored packets.
package jitter
