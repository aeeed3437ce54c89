// Package display holds frame sinks for the received video.
package display

import (
	"io"
	"sync"

	"cagate/remote/internal/domain"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "display")

// Writer writes every frame's bytes to an io.Writer. For H264 frames the
// output is a raw Annex-B stream playable with `ffplay -f h264 -`.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	frames uint64
	bytes  uint64
	failed bool
}

// NewWriter creates a sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// RenderFrame implements domain.FrameSink. After the first write error
// frames are discarded.
func (s *Writer) RenderFrame(f domain.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed {
		return
	}
	n, err := s.w.Write(f.Data)
	s.bytes += uint64(n)
	if err != nil {
		s.failed = true
		log.Warnf("write frame: %v", err)
		return
	}
	s.frames++
}

// Frames returns the number of frames written.
func (s *Writer) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Bytes returns the number of bytes written.
func (s *Writer) Bytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// SinkFunc adapts a function to domain.FrameSink.
type SinkFunc func(domain.Frame)

// RenderFrame implements domain.FrameSink.
func (fn SinkFunc) RenderFrame(f domain.Frame) { fn(f) }
