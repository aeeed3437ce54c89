package webrtc

import "github.com/pion/rtp"

var annexBStartCode = []byte{0x00, 0x00, 0x00, 0x01}

// AccessUnit is all NAL units of one picture in Annex-B framing.
type AccessUnit struct {
	Data      []byte
	Timestamp uint32
}

// FrameAssembler groups depacketized NAL units into access units. An access
// unit ends at the RTP marker bit or when the timestamp changes.
type FrameAssembler struct {
	depack  *H264Depacketizer
	buf     []byte
	ts      uint32
	pending bool
}

// NewFrameAssembler creates an assembler with its own depacketizer.
func NewFrameAssembler() *FrameAssembler {
	return &FrameAssembler{depack: NewH264Depacketizer()}
}

// Push feeds one RTP packet and returns the access units it completed.
func (a *FrameAssembler) Push(pkt *rtp.Packet) []AccessUnit {
	var out []AccessUnit

	if a.pending && pkt.Timestamp != a.ts {
		out = append(out, a.flush())
	}

	for _, nalu := range a.depack.Depacketize(pkt.SequenceNumber, pkt.Payload) {
		if len(nalu) == 0 {
			continue
		}
		a.buf = append(a.buf, annexBStartCode...)
		a.buf = append(a.buf, nalu...)
		a.ts = pkt.Timestamp
		a.pending = true
	}

	if pkt.Marker && a.pending {
		out = append(out, a.flush())
	}
	return out
}

func (a *FrameAssembler) flush() AccessUnit {
	au := AccessUnit{Data: a.buf, Timestamp: a.ts}
	a.buf = nil
	a.pending = false
	return au
}
