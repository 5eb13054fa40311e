// Package stream carries pose frames from the ingest surface to a trial
// runner.
//
// Each running trial owns one Source. The HTTP layer pushes batches into it
// and the runner drains it frame by frame.
package stream

import (
	"context"
	"sync"

	pose "github.com/peakform/stork/internal/domain/pose"
	"github.com/peakform/stork/pkg/metrics"
)

// Default source configuration constants.
const (
	defaultBufferSize = 256
)

// Source provides non-blocking push and channel-based consume semantics for
// a single trial's frames.
type Source interface {
	// Push hands a frame to the consumer.
	// Returns false if the source is closed or full and the frame was dropped.
	Push(ctx context.Context, f pose.Frame) bool

	// Frames returns the channel the runner selects on.
	// The channel is closed when the source is closed.
	Frames() <-chan pose.Frame

	// Len returns the number of frames waiting to be consumed.
	Len() int

	// Close stops the source.
	// After closing, pushes are rejected and the frames channel is closed.
	Close() error

	// IsClosed returns true if the source has been closed.
	IsClosed() bool
}

// PushSource implements Source using a buffered channel.
type PushSource struct {
	frames     chan pose.Frame
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewPushSource creates a source with configuration options.
func NewPushSource(opts ...Option) *PushSource {
	s := &PushSource{
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.frames = make(chan pose.Frame, s.bufferSize)
	return s
}

// Push hands a frame to the consumer.
func (s *PushSource) Push(ctx context.Context, f pose.Frame) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.RecordFrameDropped("source_closed")
		return false
	}

	select {
	case s.frames <- f:
		metrics.RecordFrameReceived()
		return true
	case <-ctx.Done():
		metrics.RecordFrameDropped("context_cancelled")
		return false
	default:
		metrics.RecordFrameDropped("buffer_full")
		return false
	}
}

// Frames returns the channel the runner selects on.
func (s *PushSource) Frames() <-chan pose.Frame {
	return s.frames
}

// Len returns the number of frames waiting to be consumed.
func (s *PushSource) Len() int {
	return len(s.frames)
}

// Close stops the source.
func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	close(s.frames)
	s.closed = true
	return nil
}

// IsClosed returns true if the source has been closed.
func (s *PushSource) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
