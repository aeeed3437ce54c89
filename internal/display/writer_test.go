package display

import (
	"bytes"
	"errors"
	"testing"

	"cagate/remote/internal/domain"

	"github.com/stretchr/testify/assert"
)

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("broken pipe")
}

func TestWriter_WritesFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)

	s.RenderFrame(domain.Frame{Data: []byte{0, 0, 0, 1, 0x67}})
	s.RenderFrame(domain.Frame{Data: []byte{0, 0, 0, 1, 0x65}})

	assert.Equal(t, []byte{0, 0, 0, 1, 0x67, 0, 0, 0, 1, 0x65}, buf.Bytes())
	assert.Equal(t, uint64(2), s.Frames())
	assert.Equal(t, uint64(10), s.Bytes())
}

func TestWriter_StopsAfterError(t *testing.T) {
	w := &failingWriter{}
	s := NewWriter(w)

	s.RenderFrame(domain.Frame{Data: []byte{1}})
	s.RenderFrame(domain.Frame{Data: []byte{2}})

	assert.Equal(t, 1, w.calls)
	assert.Equal(t, uint64(0), s.Frames())
}

func TestSinkFunc(t *testing.T) {
	var got []domain.Frame
	var sink domain.FrameSink = SinkFunc(func(f domain.Frame) { got = append(got, f) })

	sink.RenderFrame(domain.Frame{TrackID: "v"})

	assert.Len(t, got, 1)
}
