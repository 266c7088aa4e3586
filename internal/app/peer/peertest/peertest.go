// Package peertest provides in-memory stand-ins for the connection primitive
// and the signaling relay, for driving Peer Sessions without a network.
package peertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
)

var ErrNoRemoteDescription = errors.New("remote description not set")

// Track is a RemoteTrack with fixed identifiers.
type Track struct {
	TrackID string
	Stream  string
	Codec   webrtc.RTPCodecType
}

func (t Track) ID() string                { return t.TrackID }
func (t Track) StreamID() string          { return t.Stream }
func (t Track) Kind() webrtc.RTPCodecType { return t.Codec }

// Conn records every call made on it and lets a test fire the callbacks a
// real transport would.
type Conn struct {
	Remote domain.UserID

	StartErr  error
	OfferErr  error
	AnswerErr error

	mu            sync.Mutex
	ctx           context.Context
	calls         []string
	tracks        []webrtc.TrackLocal
	applied       []webrtc.ICECandidateInit
	remoteDescSet bool
	earlyApplies  int
	closed        int

	onCandidate func(webrtc.ICECandidateInit)
	onTrack     func(context.Context, core.RemoteTrack)
	onState     func(webrtc.PeerConnectionState)
}

func NewConn(remote domain.UserID) *Conn { return &Conn{Remote: remote, ctx: context.Background()} }

func (c *Conn) record(call string) {
	c.calls = append(c.calls, call)
}

func (c *Conn) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("start")
	c.ctx = ctx
	return c.StartErr
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("close")
	c.closed++
	return nil
}

func (c *Conn) AddLocalTrack(t webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("add_track")
	c.tracks = append(c.tracks, t)
	return nil, nil
}

func (c *Conn) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("local_description")
	if c.OfferErr != nil {
		return nil, c.OfferErr
	}
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: OfferSDP(c.Remote)}, nil
}

func (c *Conn) ApplyAnswer(webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("remote_description")
	if c.AnswerErr != nil {
		return c.AnswerErr
	}
	c.remoteDescSet = true
	return nil
}

func (c *Conn) AddICECandidate(cand webrtc.ICECandidateInit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("candidate:" + cand.Candidate)
	if !c.remoteDescSet {
		c.earlyApplies++
		return ErrNoRemoteDescription
	}
	c.applied = append(c.applied, cand)
	return nil
}

func (c *Conn) OnICECandidate(f func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCandidate = f
}

func (c *Conn) OnTrack(f func(context.Context, core.RemoteTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = f
}

func (c *Conn) OnStateChange(f func(webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = f
}

// EmitCandidate simulates a locally gathered candidate.
func (c *Conn) EmitCandidate(candidate string) {
	c.mu.Lock()
	f := c.onCandidate
	c.mu.Unlock()
	if f != nil {
		f(webrtc.ICECandidateInit{Candidate: candidate})
	}
}

// EmitTrack simulates an inbound track.
func (c *Conn) EmitTrack(t core.RemoteTrack) {
	c.mu.Lock()
	f, ctx := c.onTrack, c.ctx
	c.mu.Unlock()
	if f != nil {
		f(ctx, t)
	}
}

// EmitState simulates a transport state report.
func (c *Conn) EmitState(s webrtc.PeerConnectionState) {
	c.mu.Lock()
	f := c.onState
	c.mu.Unlock()
	if f != nil {
		f(s)
	}
}

func (c *Conn) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *Conn) LocalTracks() []webrtc.TrackLocal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]webrtc.TrackLocal(nil), c.tracks...)
}

// Applied returns the remote candidates accepted after the remote description.
func (c *Conn) Applied() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.applied))
	for _, a := range c.applied {
		out = append(out, a.Candidate)
	}
	return out
}

// EarlyApplies counts candidates applied before the remote description.
func (c *Conn) EarlyApplies() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.earlyApplies
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed > 0
}

// Factory hands out Conns and remembers every one of them.
type Factory struct {
	// Configure, if set, runs on each new Conn before it is returned.
	Configure func(*Conn)
	Err       error

	mu    sync.Mutex
	conns map[domain.UserID][]*Conn
}

func NewFactory() *Factory {
	return &Factory{conns: make(map[domain.UserID][]*Conn)}
}

func (f *Factory) NewConnection(remote domain.UserID) (core.MediaConnection, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	c := NewConn(remote)
	if f.Configure != nil {
		f.Configure(c)
	}
	f.mu.Lock()
	f.conns[remote] = append(f.conns[remote], c)
	f.mu.Unlock()
	return c, nil
}

// Conns returns every Conn built for remote, oldest first.
func (f *Factory) Conns(remote domain.UserID) []*Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Conn(nil), f.conns[remote]...)
}

// Last returns the newest Conn built for remote, or nil.
func (f *Factory) Last(remote domain.UserID) *Conn {
	conns := f.Conns(remote)
	if len(conns) == 0 {
		return nil
	}
	return conns[len(conns)-1]
}

// OfferSDP is the SDP body produced by a Conn for remote.
func OfferSDP(remote domain.UserID) string { return "offer-for-" + string(remote) }

// PeerOf recovers the remote participant from an offer built by a Conn.
func PeerOf(offer webrtc.SessionDescription) domain.UserID {
	return domain.UserID(strings.TrimPrefix(offer.SDP, "offer-for-"))
}

// Relay is a SignalRelay answering every offer immediately unless told otherwise.
type Relay struct {
	// OfferErr fails every offer for the listed peers.
	OfferErr map[domain.UserID]error
	// CandidateErr fails every candidate send.
	CandidateErr error
	// Hold blocks offers until it is closed or the caller gives up.
	Hold chan struct{}

	mu         sync.Mutex
	offers     []domain.UserID
	candidates []string
}

func (r *Relay) SendOffer(ctx context.Context, _ domain.RoomID, _ domain.UserID, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	peer := PeerOf(offer)
	r.mu.Lock()
	r.offers = append(r.offers, peer)
	hold := r.Hold
	err := r.OfferErr[peer]
	r.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return webrtc.SessionDescription{}, ctx.Err()
		}
	}
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: fmt.Sprintf("answer-from-%s", peer)}, nil
}

func (r *Relay) SendCandidate(_ context.Context, _ domain.RoomID, _ domain.UserID, c webrtc.ICECandidateInit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CandidateErr != nil {
		return r.CandidateErr
	}
	r.candidates = append(r.candidates, c.Candidate)
	return nil
}

// Offers lists the peers an offer was sent for, in send order.
func (r *Relay) Offers() []domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.UserID(nil), r.offers...)
}

// OffersFor counts offers sent for peer.
func (r *Relay) OffersFor(peer domain.UserID) int {
	n := 0
	for _, p := range r.Offers() {
		if p == peer {
			n++
		}
	}
	return n
}

func (r *Relay) Candidates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.candidates...)
}
