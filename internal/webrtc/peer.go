// Package webrtc adapts a pion PeerConnection to the receive-only video
// session used to watch the machine's screen.
package webrtc

import (
	"context"
	"strings"
	"sync"
	"time"

	"cagate/remote/internal/domain"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/interceptor/pkg/nack"
	pion "github.com/pion/webrtc/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "webrtc")

var videoFeedback = []pion.RTCPFeedback{
	{Type: "goog-remb"},
	{Type: "ccm", Parameter: "fir"},
	{Type: "nack"},
	{Type: "nack", Parameter: "pli"},
}

// videoCodecs are registered in this order; it is also the default
// preference order before any reordering.
var videoCodecs = []pion.RTPCodecParameters{
	{
		RTPCodecCapability: pion.RTPCodecCapability{
			MimeType:     pion.MimeTypeVP8,
			ClockRate:    90000,
			RTCPFeedback: videoFeedback,
		},
		PayloadType: 96,
	},
	{
		RTPCodecCapability: pion.RTPCodecCapability{
			MimeType:     pion.MimeTypeH264,
			ClockRate:    90000,
			SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
			RTCPFeedback: videoFeedback,
		},
		PayloadType: 102,
	},
	{
		RTPCodecCapability: pion.RTPCodecCapability{
			MimeType:     pion.MimeTypeH264,
			ClockRate:    90000,
			SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=0;profile-level-id=42e01f",
			RTCPFeedback: videoFeedback,
		},
		PayloadType: 103,
	},
	{
		RTPCodecCapability: pion.RTPCodecCapability{
			MimeType:     pion.MimeTypeH264,
			ClockRate:    90000,
			SDPFmtpLine:  "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=640032",
			RTCPFeedback: videoFeedback,
		},
		PayloadType: 112,
	},
}

// Config configures a Peer.
type Config struct {
	// ICEServers are STUN/TURN URLs. The machine is usually reachable
	// directly, so none is the default.
	ICEServers []string
	// Sink receives decoded video frames. Nil drops them.
	Sink domain.FrameSink
}

// Peer wraps a pion PeerConnection with one receive-only video transceiver.
type Peer struct {
	pc     *pion.PeerConnection
	video  *pion.RTPTransceiver
	stream *Stream
	sink   domain.FrameSink

	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
}

// NewPeer creates the peer connection, registers the track callbacks and
// adds the receive-only video transceiver.
func NewPeer(cfg Config) (*Peer, error) {
	m := &pion.MediaEngine{}
	for _, c := range videoCodecs {
		if err := m.RegisterCodec(c, pion.RTPCodecTypeVideo); err != nil {
			return nil, errors.Wrapf(err, "register %s", c.MimeType)
		}
	}

	i := &interceptor.Registry{}
	generator, err := nack.NewGeneratorInterceptor()
	if err != nil {
		return nil, errors.Wrap(err, "create nack generator")
	}
	i.Add(generator)
	pli, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, errors.Wrap(err, "create pli interceptor")
	}
	i.Add(pli)
	if err := pion.ConfigureRTCPReports(i); err != nil {
		return nil, errors.Wrap(err, "configure rtcp reports")
	}

	api := pion.NewAPI(
		pion.WithMediaEngine(m),
		pion.WithInterceptorRegistry(i),
	)

	var servers []pion.ICEServer
	for _, u := range cfg.ICEServers {
		if u = strings.TrimSpace(u); u != "" {
			servers = append(servers, pion.ICEServer{URLs: []string{u}})
		}
	}

	pc, err := api.NewPeerConnection(pion.Configuration{
		ICEServers:   servers,
		BundlePolicy: pion.BundlePolicyMaxBundle,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create peer connection")
	}

	p := &Peer{
		pc:     pc,
		stream: NewStream(),
		sink:   cfg.Sink,
		done:   make(chan struct{}),
	}

	pc.OnTrack(func(track *pion.TrackRemote, receiver *pion.RTPReceiver) {
		codec := track.Codec()
		log.Infof("got track: kind=%s codec=%s pt=%d", track.Kind(), codec.MimeType, codec.PayloadType)
		p.stream.AddTrack(track, receiver)
	})
	p.stream.OnAddTrack(func(track *pion.TrackRemote) {
		if track.Kind() == pion.RTPCodecTypeVideo {
			go p.readVideoTrack(track)
		} else {
			go drain(track)
		}
	})

	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		log.Infof("ICE connection state: %s", state.String())
	})
	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		log.Infof("peer connection state: %s", state.String())
		if state == pion.PeerConnectionStateFailed || state == pion.PeerConnectionStateClosed {
			p.doneOnce.Do(func() { close(p.done) })
		}
	})

	video, err := pc.AddTransceiverFromKind(pion.RTPCodecTypeVideo, pion.RTPTransceiverInit{
		Direction: pion.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		_ = pc.Close()
		return nil, errors.Wrap(err, "add video transceiver")
	}
	p.video = video

	return p, nil
}

// Done is closed when the connection fails or is closed.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// CreateOffer asks pion for a local offer.
func (p *Peer) CreateOffer(ctx context.Context) (domain.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return domain.SessionDescription{}, errors.Wrap(err, "create offer")
	}
	return domain.SessionDescription{Type: domain.SDPTypeOffer, SDP: offer.SDP}, nil
}

// SetLocalDescription registers the offer and waits for ICE gathering so
// the offer carries its candidates. If ctx ends first the partial
// description is kept.
func (p *Peer) SetLocalDescription(ctx context.Context, desc domain.SessionDescription) error {
	gathered := pion.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(toPion(desc)); err != nil {
		return errors.Wrap(err, "set local description")
	}

	select {
	case <-gathered:
		log.Debugf("ICE gathering complete")
	case <-ctx.Done():
		log.Warnf("ICE gathering incomplete: %v", ctx.Err())
	}
	return nil
}

// LocalDescription returns the current local description.
func (p *Peer) LocalDescription() domain.SessionDescription {
	ld := p.pc.LocalDescription()
	if ld == nil {
		return domain.SessionDescription{}
	}
	return fromPion(*ld)
}

// SetRemoteDescription applies the remote answer.
func (p *Peer) SetRemoteDescription(desc domain.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(toPion(desc)); err != nil {
		return errors.Wrap(err, "set remote description")
	}
	log.Infof("remote SDP %s set", desc.Type)
	return nil
}

// CodecCapabilities lists the codecs registered for kind.
func (p *Peer) CodecCapabilities(kind domain.MediaKind) []domain.Codec {
	if kind != domain.MediaKindVideo {
		return nil
	}
	out := make([]domain.Codec, 0, len(videoCodecs))
	for _, c := range videoCodecs {
		out = append(out, domain.Codec{
			MimeType:    c.MimeType,
			ClockRate:   c.ClockRate,
			Channels:    c.Channels,
			SDPFmtpLine: c.SDPFmtpLine,
			PayloadType: uint8(c.PayloadType),
		})
	}
	return out
}

// SetCodecPreferences reorders the video transceiver's codecs.
func (p *Peer) SetCodecPreferences(kind domain.MediaKind, codecs []domain.Codec) error {
	if kind != domain.MediaKindVideo {
		return errors.Errorf("no %s transceiver", kind)
	}

	byPT := make(map[uint8]pion.RTPCodecParameters, len(videoCodecs))
	for _, c := range videoCodecs {
		byPT[uint8(c.PayloadType)] = c
	}

	params := make([]pion.RTPCodecParameters, 0, len(codecs))
	for _, c := range codecs {
		param, ok := byPT[c.PayloadType]
		if !ok {
			return errors.Errorf("unknown codec %s pt=%d", c.MimeType, c.PayloadType)
		}
		params = append(params, param)
	}

	if err := p.video.SetCodecPreferences(params); err != nil {
		return errors.Wrap(err, "set codec preferences")
	}
	return nil
}

func (p *Peer) readVideoTrack(track *pion.TrackRemote) {
	codec := track.Codec()
	if !strings.EqualFold(codec.MimeType, pion.MimeTypeH264) {
		log.Warnf("no depacketizer for %s, draining", codec.MimeType)
		drain(track)
		return
	}

	log.Infof("reading H264 video track %s", track.ID())
	assembler := NewFrameAssembler()

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Debugf("video track read: %v", err)
			return
		}

		for _, au := range assembler.Push(pkt) {
			if p.sink == nil {
				continue
			}
			p.sink.RenderFrame(domain.Frame{
				TrackID:   track.ID(),
				MimeType:  codec.MimeType,
				Data:      au.Data,
				Timestamp: au.Timestamp,
				Received:  time.Now(),
			})
		}
	}
}

func drain(track *pion.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

// Close stops the stream's tracks and closes the peer connection. It is
// safe to call more than once; errors are logged and swallowed.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.stream.Close()
		if err := p.pc.Close(); err != nil {
			log.Debugf("close peer connection: %v", err)
		}
		p.doneOnce.Do(func() { close(p.done) })
	})
	return nil
}

func toPion(desc domain.SessionDescription) pion.SessionDescription {
	typ := pion.SDPTypeOffer
	if desc.Type == domain.SDPTypeAnswer {
		typ = pion.SDPTypeAnswer
	}
	return pion.SessionDescription{Type: typ, SDP: desc.SDP}
}

func fromPion(desc pion.SessionDescription) domain.SessionDescription {
	typ := domain.SDPTypeOffer
	if desc.Type == pion.SDPTypeAnswer {
		typ = domain.SDPTypeAnswer
	}
	return domain.SessionDescription{Type: typ, SDP: desc.SDP}
}
