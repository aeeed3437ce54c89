package webrtc

import (
	"sync"

	pion "github.com/pion/webrtc/v4"
)

type remoteTrack struct {
	track    *pion.TrackRemote
	receiver *pion.RTPReceiver
}

// Stream collects the inbound tracks of one peer connection.
type Stream struct {
	mu         sync.Mutex
	tracks     []remoteTrack
	onAddTrack func(*pion.TrackRemote)
	closed     bool
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{}
}

// OnAddTrack registers the callback fired for every track added afterwards.
func (s *Stream) OnAddTrack(fn func(*pion.TrackRemote)) {
	s.mu.Lock()
	s.onAddTrack = fn
	s.mu.Unlock()
}

// AddTrack adds an inbound track. Tracks added after Close are ignored.
func (s *Stream) AddTrack(track *pion.TrackRemote, receiver *pion.RTPReceiver) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.tracks = append(s.tracks, remoteTrack{track: track, receiver: receiver})
	fn := s.onAddTrack
	s.mu.Unlock()

	if fn != nil {
		fn(track)
	}
}

// Len returns the number of tracks in the stream.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

// Close stops every track's receiver and empties the stream. Receiver
// errors are ignored.
func (s *Stream) Close() {
	s.mu.Lock()
	tracks := s.tracks
	s.tracks = nil
	s.closed = true
	s.mu.Unlock()

	for _, t := range tracks {
		if t.receiver == nil {
			continue
		}
		if err := t.receiver.Stop(); err != nil {
			log.Debugf("stop receiver: %v", err)
		}
	}
}
