package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/airtunes/jitter"
	"github.com/opd-ai/airtunes/metrics"
	"github.com/opd-ai/airtunes/rtp"
	"github.com/sirupsen/logrus"
)

// Config holds the scheduler's buffering parameters.
type Config struct {
	// BufferCount is the number of output buffers in the pool.
	BufferCount int
	// BufferSize is the payload capacity of each output buffer in bytes.
	BufferSize int
	// PlaybackDelay is how much audio must be buffered before output starts.
	PlaybackDelay time.Duration
	// QueueLength bounds the number of pending operations.
	QueueLength int
}

// DefaultConfig returns 3 buffers of 2048 bytes and a 2 s playback delay.
func DefaultConfig() Config {
	return Config{
		BufferCount:   3,
		BufferSize:    2048,
		PlaybackDelay: 2 * time.Second,
		QueueLength:   512,
	}
}

func (c Config) validate() error {
	if c.BufferCount <= 0 {
		return fmt.Errorf("%w: buffer count %d", ErrInvalidConfig, c.BufferCount)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.PlaybackDelay < 0 {
		return fmt.Errorf("%w: negative playback delay", ErrInvalidConfig)
	}
	return nil
}

// Stats is a snapshot of scheduler state taken on the scheduler goroutine.
type Stats struct {
	State         string       `json:"state"`
	Playing       bool         `json:"playing"`
	RemotePlaying bool         `json:"remote_playing"`
	FreeBuffers   int          `json:"free_buffers"`
	BufferCount   int          `json:"buffer_count"`
	Buffer        jitter.Stats `json:"buffer"`
	Skipped       uint64       `json:"skipped"`
	Enqueued      uint64       `json:"enqueued"`
	EnqueueErrors uint64       `json:"enqueue_errors"`
	ForcedResets  uint64       `json:"forced_resets"`
}

// Scheduler drains a jitter buffer into a Sink. Its exported methods may be
// called from any goroutine; they queue work for the scheduler goroutine
// started by Start.
type Scheduler struct {
	cfg     Config
	sink    Sink
	metrics *metrics.Collector

	ops      chan func()
	released chan *Buffer
	done     chan struct{}
	stopped  chan struct{}
	start    sync.Once
	stop     sync.Once
	started  atomic.Bool

	// Owned by the scheduler goroutine.
	buffer        *jitter.Buffer
	free          []*Buffer
	state         State
	isPlaying     bool
	remotePlaying bool
	skipped       uint64
	enqueued      uint64
	enqueueErrors uint64
	forcedResets  uint64
}

// NewScheduler creates a scheduler feeding sink. The collector may be nil.
func NewScheduler(sink Sink, cfg Config, m *metrics.Collector) (*Scheduler, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.QueueLength <= 0 {
		cfg.QueueLength = DefaultConfig().QueueLength
	}

	s := &Scheduler{
		cfg:      cfg,
		sink:     sink,
		metrics:  m,
		ops:      make(chan func(), cfg.QueueLength),
		released: make(chan *Buffer, cfg.BufferCount),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		buffer:   jitter.New(),
		state:    StateIdle,
	}
	for i := 0; i < cfg.BufferCount; i++ {
		s.free = append(s.free, newBuffer(i, cfg.BufferSize))
	}
	return s, nil
}

// Start opens the sink with the default format and runs the scheduler
// goroutine until ctx is done or Close is called.
func (s *Scheduler) Start(ctx context.Context) error {
	var err error
	s.start.Do(func() {
		if err = s.sink.Open(s.onRelease); err != nil {
			err = fmt.Errorf("open sink: %w", err)
			return
		}
		if err = s.sink.Configure(DefaultFormat()); err != nil {
			err = fmt.Errorf("configure sink: %w", err)
			return
		}
		s.metrics.SetFreeBuffers(len(s.free))
		s.started.Store(true)
		go s.run(ctx)
	})
	return err
}

// Close stops the scheduler goroutine and closes the sink.
func (s *Scheduler) Close() error {
	var err error
	s.stop.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.stopped
		}
		err = s.sink.Close()
	})
	return err
}

// Insert queues a decrypted packet for the jitter buffer.
func (s *Scheduler) Insert(p rtp.Packet) {
	s.post(func() { s.handlePacket(p) })
}

// Resync clears the jitter buffer and restarts at sequence number n.
// Output stops until the playback delay is buffered again.
func (s *Scheduler) Resync(n uint16) {
	s.post(func() { s.handleResync(n) })
}

// SetRemotePlaying records whether the sender considers itself playing.
// Draining only happens while this is true.
func (s *Scheduler) SetRemotePlaying(on bool) {
	s.post(func() {
		s.remotePlaying = on
		if on && !s.isPlaying && s.state == StatePaused {
			s.state = StateBuffering
		}
	})
}

// Pause stops output and pauses the sink.
func (s *Scheduler) Pause() {
	s.post(s.handlePause)
}

// Reset stops output and flushes every buffer queued in the sink back to
// the pool. Output restarts once the playback delay is buffered again.
func (s *Scheduler) Reset() {
	s.post(s.handleReset)
}

// Configure passes a new stream format to the sink.
func (s *Scheduler) Configure(format Format) {
	s.post(func() {
		if err := s.sink.Configure(format); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Scheduler.Configure",
				"error":    err.Error(),
			}).Warn("Sink rejected format")
		}
	})
}

// Stats returns a snapshot taken on the scheduler goroutine, after every
// operation queued before the call has been applied.
func (s *Scheduler) Stats(ctx context.Context) (Stats, error) {
	result := make(chan Stats, 1)
	op := func() { result <- s.snapshot() }

	select {
	case s.ops <- op:
	case <-s.done:
		return Stats{}, ErrSchedulerClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case st := <-result:
		return st, nil
	case <-s.stopped:
		return Stats{}, ErrSchedulerClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (s *Scheduler) post(op func()) {
	select {
	case s.ops <- op:
	case <-s.done:
	}
}

// onRelease is the sink callback. The released channel holds the whole pool,
// so the send never blocks while the scheduler runs.
func (s *Scheduler) onRelease(b *Buffer) {
	select {
	case s.released <- b:
	case <-s.done:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case op := <-s.ops:
			op()
		case b := <-s.released:
			s.handleReleased(b)
		}
	}
}

func (s *Scheduler) handlePacket(p rtp.Packet) {
	if !s.buffer.Insert(p) {
		s.metrics.PacketDropped(metrics.ReasonStale)
		return
	}
	if s.state == StateIdle {
		s.state = StateBuffering
	}
	s.metrics.SetBufferDistance(int(rtp.Distance(s.buffer.ReadIndex(), s.buffer.WriteIndex())))

	if s.buffer.AvailableDelay(p) >= s.cfg.PlaybackDelay {
		s.handlePlayback()
	}
	if s.isPlaying && len(s.free) > 0 {
		s.loadBuffers()
	}
}

func (s *Scheduler) handlePlayback() {
	if s.isPlaying || !s.remotePlaying {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Scheduler.handlePlayback",
		"read_index":  s.buffer.ReadIndex(),
		"write_index": s.buffer.WriteIndex(),
	}).Info("Playback delay reached, starting output")

	s.isPlaying = true
	s.state = StatePlaying
	s.metrics.SetPlaying(true)
	s.loadBuffers()
	if !s.isPlaying {
		return
	}
	if err := s.sink.Start(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Scheduler.handlePlayback",
			"error":    err.Error(),
		}).Warn("Sink failed to start")
	}
}

// loadBuffers fills and enqueues every buffer that is free right now.
// Buffers that fail to enqueue go back to the pool and are not retried in
// this pass.
func (s *Scheduler) loadBuffers() {
	n := len(s.free)
	for i := 0; i < n && len(s.free) > 0 && s.isPlaying; i++ {
		b := s.free[0]
		s.free = s.free[1:]
		s.fill(b)
	}
	s.metrics.SetFreeBuffers(len(s.free))
}

func (s *Scheduler) handleReleased(b *Buffer) {
	b.reset()
	if !s.isPlaying {
		s.free = append(s.free, b)
		s.metrics.SetFreeBuffers(len(s.free))
		return
	}
	s.fill(b)
	s.metrics.SetFreeBuffers(len(s.free))
}

// fill copies sequential packets from the read cursor into b and enqueues
// it. Slots that do not hold the expected sequence number are skipped.
func (s *Scheduler) fill(b *Buffer) {
	for s.buffer.Pending() && s.remotePlaying {
		if !s.buffer.IsSequential() {
			s.skip("missing")
			continue
		}
		p := s.buffer.Head()
		if !b.Fits(len(p.Payload)) {
			if b.PacketCount() == 0 {
				s.metrics.PacketDropped(metrics.ReasonOversized)
				s.skip("oversized")
				continue
			}
			break
		}
		b.add(p)
		s.buffer.Advance()
	}
	s.enqueue(b)
}

func (s *Scheduler) skip(reason string) {
	logrus.WithFields(logrus.Fields{
		"function":   "Scheduler.fill",
		"read_index": s.buffer.ReadIndex(),
		"slot":       s.buffer.Head().SequenceNumber,
		"reason":     reason,
	}).Debug("Skipping packet")
	s.skipped++
	s.metrics.PacketSkipped()
	s.buffer.Advance()
}

func (s *Scheduler) enqueue(b *Buffer) {
	var err error
	if b.PacketCount() == 0 {
		err = ErrEmptyBuffer
	} else {
		err = s.sink.Enqueue(b)
	}
	if err != nil {
		s.handleEnqueueError(b, err)
		return
	}
	s.enqueued++
	s.metrics.BufferEnqueued()
}

func (s *Scheduler) handleEnqueueError(b *Buffer, err error) {
	b.reset()
	s.free = append(s.free, b)
	s.enqueueErrors++
	s.metrics.EnqueueFailed()

	logrus.WithFields(logrus.Fields{
		"function":     "Scheduler.handleEnqueueError",
		"buffer":       b.ID(),
		"free_buffers": len(s.free),
		"error":        err.Error(),
	}).Debug("Output buffer returned to pool")

	if len(s.free) >= s.cfg.BufferCount {
		s.forceReset()
	}
}

// forceReset stops output when no buffer is in the sink and drops whatever
// was buffered ahead of the newest packet.
func (s *Scheduler) forceReset() {
	logrus.WithFields(logrus.Fields{
		"function":    "Scheduler.forceReset",
		"read_index":  s.buffer.ReadIndex(),
		"write_index": s.buffer.WriteIndex(),
	}).Info("All output buffers idle, resetting playback")

	s.isPlaying = false
	s.state = StateBuffering
	s.forcedResets++
	s.metrics.ForcedReset()
	s.metrics.SetPlaying(false)
	if err := s.sink.Pause(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Scheduler.forceReset",
			"error":    err.Error(),
		}).Warn("Sink pause failed")
	}
	s.buffer.CatchUp()
}

func (s *Scheduler) handlePause() {
	s.isPlaying = false
	s.state = StatePaused
	s.metrics.SetPlaying(false)
	if err := s.sink.Pause(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Scheduler.Pause",
			"error":    err.Error(),
		}).Warn("Sink pause failed")
	}
}

func (s *Scheduler) handleResync(n uint16) {
	wasPlaying := s.isPlaying
	s.buffer.Resync(n)
	s.isPlaying = false
	s.state = StateIdle
	s.metrics.SetPlaying(false)
	s.metrics.SetBufferDistance(0)
	if wasPlaying {
		if err := s.sink.Pause(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Scheduler.Resync",
				"error":    err.Error(),
			}).Warn("Sink pause failed")
		}
	}
	s.flushSink("Scheduler.Resync")
}

// handleReset clears isPlaying before flushing so the released buffers go
// back to the pool instead of being refilled from the old ring.
func (s *Scheduler) handleReset() {
	s.isPlaying = false
	if s.state == StatePlaying {
		s.state = StateBuffering
	}
	s.metrics.SetPlaying(false)
	s.flushSink("Scheduler.Reset")
}

// flushSink releases everything queued in the sink. Released buffers arrive
// on s.released and are handled by the run loop.
func (s *Scheduler) flushSink(function string) {
	if err := s.sink.Reset(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": function,
			"error":    err.Error(),
		}).Warn("Sink reset failed")
	}
}

func (s *Scheduler) snapshot() Stats {
	return Stats{
		State:         s.state.String(),
		Playing:       s.isPlaying,
		RemotePlaying: s.remotePlaying,
		FreeBuffers:   len(s.free),
		BufferCount:   s.cfg.BufferCount,
		Buffer:        s.buffer.Stats(),
		Skipped:       s.skipped,
		Enqueued:      s.enqueued,
		EnqueueErrors: s.enqueueErrors,
		ForcedResets:  s.forcedResets,
	}
}
