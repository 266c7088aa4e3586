package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errNotStarted = errors.New("connection not started")

// WebRTCConnection is the offering side of one pion PeerConnection.
type WebRTCConnection struct {
	pc     *webrtc.PeerConnection
	remote domain.UserID
	log    zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	onICE   func(webrtc.ICECandidateInit)
	onTrack func(ctx context.Context, track core.RemoteTrack)
	onState func(webrtc.PeerConnectionState)
	inbound []*InboundTrack

	closeOnce sync.Once
	pli       atomic.Uint64
}

func NewWebRTCConnection(api *webrtc.API, cfg webrtc.Configuration, remote domain.UserID) (*WebRTCConnection, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return &WebRTCConnection{
		pc:     pc,
		remote: remote,
		log:    log.With().Str("module", "webrtc").Str("peer", string(remote)).Logger(),
	}, nil
}

func (c *WebRTCConnection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.ctx, c.cancel = ctx, cancel
	c.mu.Unlock()

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		c.log.Debug().Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		c.log.Info().Str("peer_connection_state", s.String()).Msg("Peer state")
		c.mu.Lock()
		fn := c.onState
		c.mu.Unlock()
		if fn != nil {
			fn(s)
		}
	})

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		c.mu.Lock()
		fn := c.onICE
		c.mu.Unlock()
		if fn != nil {
			fn(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		c.log.Info().
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("OnTrack received")

		in := NewInboundTrack(track)
		c.mu.Lock()
		c.inbound = append(c.inbound, in)
		fn := c.onTrack
		c.mu.Unlock()

		logger := c.log.With().Str("track_id", track.ID()).Logger()
		go in.drain(ctx, &logger)
		if fn != nil {
			fn(ctx, in)
		}
	})

	return nil
}

// AddLocalTrack attaches a shared local track and consumes the sender's RTCP
// so that interceptors keep working.
func (c *WebRTCConnection) AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return nil, fmt.Errorf("add track %s: %w", track.ID(), err)
	}
	go c.readRTCP(sender, track.Kind())
	return sender, nil
}

func (c *WebRTCConnection) readRTCP(sender *webrtc.RTPSender, kind webrtc.RTPCodecType) {
	for {
		pkts, _, err := sender.ReadRTCP()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.log.Debug().Err(err).Str("kind", kind.String()).Msg("rtcp reader stopped")
			}
			return
		}
		for _, p := range pkts {
			switch p.(type) {
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				c.pli.Add(1)
			}
		}
	}
}

// CreateAndSetOffer offers to receive audio and video even when nothing
// local is attached for a kind.
func (c *WebRTCConnection) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	c.mu.Lock()
	started := c.ctx != nil
	c.mu.Unlock()
	if !started {
		return nil, errNotStarted
	}

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if c.hasTransceiver(kind) {
			continue
		}
		if _, err := c.pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
			return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return c.pc.LocalDescription(), nil
}

func (c *WebRTCConnection) hasTransceiver(kind webrtc.RTPCodecType) bool {
	for _, t := range c.pc.GetTransceivers() {
		if t.Kind() == kind {
			return true
		}
	}
	return false
}

func (c *WebRTCConnection) ApplyAnswer(answer webrtc.SessionDescription) error {
	if err := c.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (c *WebRTCConnection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *WebRTCConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Unlock()
		if err = c.pc.Close(); err != nil {
			c.log.Error().Err(err).Msg("close error")
			return
		}
		c.log.Info().Uint64("pli", c.pli.Load()).Msg("closed")
	})
	return err
}

func (c *WebRTCConnection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

// OnTrack sets application-level callback for remote tracks.
func (c *WebRTCConnection) OnTrack(fn func(ctx context.Context, track core.RemoteTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *WebRTCConnection) OnStateChange(fn func(webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// Inbound returns the remote tracks received so far.
func (c *WebRTCConnection) Inbound() []*InboundTrack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*InboundTrack(nil), c.inbound...)
}

// PLICount is the number of keyframe requests received on local tracks.
func (c *WebRTCConnection) PLICount() uint64 { return c.pli.Load() }
