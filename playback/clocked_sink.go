package playback

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ClockedSink is a software Sink that plays each buffer for its real-time
// duration and then releases it. What "playing" means is up to the write
// callback; NullSink discards and WriterSink copies bytes to an io.Writer.
type ClockedSink struct {
	mu         sync.Mutex
	name       string
	write      func(*Buffer) error
	release    ReleaseFunc
	format     Format
	queue      []*Buffer
	running    bool
	closed     bool
	timer      *time.Timer
	generation uint64
	played     uint64
}

// NewNullSink returns a clocked sink that discards audio.
func NewNullSink() *ClockedSink {
	return &ClockedSink{name: "null", format: DefaultFormat()}
}

// NewWriterSink returns a clocked sink that writes each buffer's encoded
// bytes to w as it plays.
func NewWriterSink(w io.Writer) *ClockedSink {
	return &ClockedSink{
		name:   "writer",
		format: DefaultFormat(),
		write: func(b *Buffer) error {
			_, err := w.Write(b.Bytes())
			return err
		},
	}
}

// Open registers the release callback.
func (s *ClockedSink) Open(release ReleaseFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.release = release
	return nil
}

// Configure sets the format used to time buffers.
func (s *ClockedSink) Configure(format Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.format = format

	logrus.WithFields(logrus.Fields{
		"function":          "ClockedSink.Configure",
		"sink":              s.name,
		"sample_rate":       format.SampleRate,
		"channels":          format.Channels,
		"frames_per_packet": format.FramesPerPacket,
	}).Debug("Sink format configured")
	return nil
}

// Start resumes the clock.
func (s *ClockedSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.running = true
	if s.timer == nil {
		s.scheduleLocked()
	}
	return nil
}

// Pause stops the clock. The buffer being played restarts on Start.
func (s *ClockedSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.stopTimerLocked()
	return nil
}

// Reset releases all queued buffers.
func (s *ClockedSink) Reset() error {
	s.mu.Lock()
	s.stopTimerLocked()
	flushed := s.queue
	s.queue = nil
	release := s.release
	if s.running {
		s.scheduleLocked()
	}
	s.mu.Unlock()

	for _, b := range flushed {
		if release != nil {
			release(b)
		}
	}
	return nil
}

// Enqueue appends buf to the play queue.
func (s *ClockedSink) Enqueue(buf *Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.queue = append(s.queue, buf)
	if s.running && s.timer == nil {
		s.scheduleLocked()
	}
	return nil
}

// Close stops the sink. Queued buffers are dropped without release.
func (s *ClockedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.running = false
	s.stopTimerLocked()
	s.queue = nil
	return nil
}

// Queued returns the number of buffers waiting to play.
func (s *ClockedSink) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Played returns the number of buffers played since creation.
func (s *ClockedSink) Played() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

func (s *ClockedSink) scheduleLocked() {
	if len(s.queue) == 0 || !s.running {
		return
	}
	s.generation++
	gen := s.generation
	d := s.queue[0].Duration(s.format)
	s.timer = time.AfterFunc(d, func() { s.tick(gen) })
}

func (s *ClockedSink) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

func (s *ClockedSink) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.running || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	head := s.queue[0]
	s.queue = s.queue[1:]
	s.timer = nil
	s.played++
	write := s.write
	release := s.release
	s.scheduleLocked()
	s.mu.Unlock()

	if write != nil {
		if err := write(head); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "ClockedSink.tick",
				"sink":     s.name,
				"buffer":   head.ID(),
				"error":    err.Error(),
			}).Warn("Sink write failed")
		}
	}
	if release != nil {
		release(head)
	}
}
