// Package stream carries pose frames from the ingest surface to a trial
// runner.
package stream

// Option applies a configuration option to the PushSource.
type Option func(*PushSource)

// WithBufferSize sets the buffer size for the frames channel.
func WithBufferSize(size int) Option {
	return func(s *PushSource) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}
