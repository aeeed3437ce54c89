package webrtc

import (
	"testing"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
)

func TestStream_AddTrackFiresCallback(t *testing.T) {
	s := NewStream()
	var added int
	s.OnAddTrack(func(*pion.TrackRemote) { added++ })

	s.AddTrack(nil, nil)
	s.AddTrack(nil, nil)

	assert.Equal(t, 2, added)
	assert.Equal(t, 2, s.Len())
}

func TestStream_CloseIsIdempotentAndStopsAdding(t *testing.T) {
	s := NewStream()
	var added int
	s.OnAddTrack(func(*pion.TrackRemote) { added++ })
	s.AddTrack(nil, nil)

	s.Close()
	s.Close()
	s.AddTrack(nil, nil)

	assert.Equal(t, 1, added)
	assert.Equal(t, 0, s.Len())
}
