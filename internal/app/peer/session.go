// Package peer implements the Peer Session: one direct connection to one
// remote participant, always negotiated from the offering side.
package peer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrTransportFailed = errors.New("transport failed")
)

type EventKind int

const (
	EventState EventKind = iota
	EventStream
	EventError
)

// Event is delivered to the Listener in the order it was produced.
type Event struct {
	Kind EventKind
	Peer domain.UserID

	// EventState
	From, To State
	Cause    error

	// EventStream
	StreamID string
	Tracks   []core.RemoteTrack

	// EventError carries non-fatal failures in Cause.
}

// Listener receives session events on the session's dispatch goroutine.
// It may call back into the session, including Close.
type Listener func(s *Session, ev Event)

type Config struct {
	Room     domain.RoomID
	Self     domain.UserID
	Remote   domain.UserID
	Relay    core.SignalRelay
	Conn     core.MediaConnection
	Stream   core.LocalStream
	Listener Listener
}

type Stats struct {
	CandidatesSent   uint64 `json:"candidates_sent"`
	CandidatesFailed uint64 `json:"candidates_failed"`
	RemoteCandidates uint64 `json:"remote_candidates"`
	Tracks           int    `json:"tracks"`
}

type Session struct {
	room     domain.RoomID
	self     domain.UserID
	remote   domain.UserID
	relay    core.SignalRelay
	conn     core.MediaConnection
	stream   core.LocalStream
	listener Listener
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          State
	cause          error
	started        bool
	tracks         []core.RemoteTrack
	streamID       string
	streamReported bool
	// earlyConnected holds a CONNECTED report seen before the answer was applied.
	earlyConnected bool

	// sigMu orders remote description and remote candidate application.
	sigMu         sync.Mutex
	remoteDescSet bool
	pendingRemote []webrtc.ICECandidateInit

	offerGate     chan struct{}
	offerGateOnce sync.Once
	outbound      *queue[webrtc.ICECandidateInit]
	events        *queue[Event]
	closeOnce     sync.Once
	done          chan struct{}

	candidatesSent   atomic.Uint64
	candidatesFailed atomic.Uint64
	remoteCandidates atomic.Uint64
}

// New builds a session in state NEW. The connection primitive is owned by
// the session from here on and released by Close.
func New(parent context.Context, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		room:      cfg.Room,
		self:      cfg.Self,
		remote:    cfg.Remote,
		relay:     cfg.Relay,
		conn:      cfg.Conn,
		stream:    cfg.Stream,
		listener:  cfg.Listener,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateNew,
		offerGate: make(chan struct{}),
		outbound:  newQueue[webrtc.ICECandidateInit](),
		events:    newQueue[Event](),
		done:      make(chan struct{}),
		log: log.With().
			Str("module", "peer").
			Str("room", string(cfg.Room)).
			Str("peer", string(cfg.Remote)).
			Logger(),
	}
	go s.dispatch()
	go s.sendCandidates()
	return s
}

func (s *Session) Remote() domain.UserID { return s.remote }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cause returns the reason of the last FAILED or DISCONNECTED transition.
func (s *Session) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Stream returns the inbound stream collected so far.
func (s *Session) Stream() (string, []core.RemoteTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracks := make([]core.RemoteTrack, len(s.tracks))
	copy(tracks, s.tracks)
	return s.streamID, tracks
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	tracks := len(s.tracks)
	s.mu.Unlock()
	return Stats{
		CandidatesSent:   s.candidatesSent.Load(),
		CandidatesFailed: s.candidatesFailed.Load(),
		RemoteCandidates: s.remoteCandidates.Load(),
		Tracks:           tracks,
	}
}

// Done is closed once every event, including CLOSED, has been delivered.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start attaches local tracks, sends the offer and applies the answer.
// It blocks until the relay answers, the session fails, or it is closed.
// A session closed mid-negotiation returns ErrSessionClosed.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	if s.state != StateNew {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()

	s.conn.OnICECandidate(s.onLocalCandidate)
	s.conn.OnTrack(s.onTrack)
	s.conn.OnStateChange(s.onTransportState)

	if err := s.conn.Start(s.ctx); err != nil {
		return s.fail(core.NegotiationFailed, err)
	}
	if s.stream != nil {
		for _, t := range s.stream.Tracks() {
			if _, err := s.conn.AddLocalTrack(t); err != nil {
				return s.fail(core.NegotiationFailed, err)
			}
		}
	}

	return s.negotiate()
}

func (s *Session) negotiate() error {
	offer, err := s.conn.CreateAndSetOffer()
	if err != nil {
		return s.fail(core.NegotiationFailed, err)
	}

	s.mu.Lock()
	if !s.transitionLocked(StateOfferSent, nil) {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.mu.Unlock()
	s.openOfferGate()

	s.log.Debug().Msg("offer sent")
	answer, err := s.relay.SendOffer(s.ctx, s.room, s.self, *offer)
	if err != nil {
		if s.ctx.Err() != nil {
			return ErrSessionClosed
		}
		return s.fail(core.NegotiationFailed, err)
	}

	s.sigMu.Lock()
	if st := s.State(); st.Lost() {
		s.sigMu.Unlock()
		if cause := s.Cause(); st != StateClosed && cause != nil {
			return cause
		}
		return ErrSessionClosed
	}
	if err := s.conn.ApplyAnswer(answer); err != nil {
		s.sigMu.Unlock()
		return s.fail(core.NegotiationFailed, err)
	}
	s.remoteDescSet = true
	buffered := s.pendingRemote
	s.pendingRemote = nil

	s.mu.Lock()
	ok := s.transitionLocked(StateNegotiating, nil)
	if ok && s.earlyConnected {
		s.transitionLocked(StateConnected, nil)
	}
	s.earlyConnected = false
	s.mu.Unlock()

	for _, c := range buffered {
		if err := s.conn.AddICECandidate(c); err != nil {
			s.log.Warn().Err(err).Msg("buffered remote candidate rejected")
		}
	}
	s.sigMu.Unlock()

	if !ok {
		// A transport report may legitimately win the race; only a close aborts.
		if s.State() == StateClosed {
			return ErrSessionClosed
		}
	}
	s.log.Debug().Int("buffered", len(buffered)).Msg("answer applied")
	return nil
}

// AddRemoteCandidate applies a remote candidate, buffering it until the
// remote description has been set.
func (s *Session) AddRemoteCandidate(c webrtc.ICECandidateInit) error {
	s.sigMu.Lock()
	defer s.sigMu.Unlock()
	if s.State() == StateClosed {
		return ErrSessionClosed
	}
	s.remoteCandidates.Add(1)
	if !s.remoteDescSet {
		s.pendingRemote = append(s.pendingRemote, c)
		return nil
	}
	return s.conn.AddICECandidate(c)
}

// Close is valid in every state, never blocks on the network and is idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		s.outbound.close(true)

		s.mu.Lock()
		from := s.state
		s.state = StateClosed
		s.events.push(Event{Kind: EventState, Peer: s.remote, From: from, To: StateClosed})
		s.events.close(false)
		s.mu.Unlock()

		err = s.conn.Close()
		if err != nil {
			s.log.Error().Err(err).Msg("close connection")
		}
		s.log.Info().Str("from", from.String()).Msg("session closed")
	})
	return err
}

func (s *Session) fail(reason core.SessionErrorReason, err error) error {
	serr := &core.SessionError{Peer: s.remote, Reason: reason, Err: err}
	s.mu.Lock()
	ok := s.transitionLocked(StateFailed, serr)
	closed := s.state == StateClosed
	s.mu.Unlock()
	if !ok && closed {
		return ErrSessionClosed
	}
	return serr
}

// transitionLocked must be called with s.mu held.
func (s *Session) transitionLocked(to State, cause error) bool {
	from := s.state
	if !canTransition(from, to) {
		s.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("transition rejected")
		return false
	}
	s.state = to
	if to == StateFailed || to == StateDisconnected {
		s.cause = cause
	}
	ev := s.log.Info()
	if cause != nil {
		ev = s.log.Warn().Err(cause)
	}
	ev.Str("from", from.String()).Str("to", to.String()).Msg("state")

	s.events.push(Event{Kind: EventState, Peer: s.remote, From: from, To: to, Cause: cause})
	if to == StateConnected {
		s.reportStreamLocked()
	}
	return true
}

// reportStreamLocked emits the inbound stream once CONNECTED with tracks.
func (s *Session) reportStreamLocked() {
	if s.state != StateConnected || len(s.tracks) == 0 {
		return
	}
	tracks := make([]core.RemoteTrack, len(s.tracks))
	copy(tracks, s.tracks)
	s.streamReported = true
	s.events.push(Event{Kind: EventStream, Peer: s.remote, StreamID: s.streamID, Tracks: tracks})
}

func (s *Session) onLocalCandidate(c webrtc.ICECandidateInit) {
	s.outbound.push(c)
}

func (s *Session) onTrack(_ context.Context, track core.RemoteTrack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Lost() {
		return
	}
	s.tracks = append(s.tracks, track)
	if s.streamID == "" {
		s.streamID = track.StreamID()
	}
	s.log.Info().Str("kind", track.Kind().String()).Str("track_id", track.ID()).Msg("remote track")
	s.reportStreamLocked()
}

func (s *Session) onTransportState(pcs webrtc.PeerConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch pcs {
	case webrtc.PeerConnectionStateConnected:
		if s.state == StateNew || s.state == StateOfferSent {
			s.earlyConnected = true
			s.log.Debug().Str("state", s.state.String()).Msg("connected before answer applied")
			return
		}
		s.transitionLocked(StateConnected, nil)
	case webrtc.PeerConnectionStateDisconnected:
		s.earlyConnected = false
		s.transitionLocked(StateDisconnected, &core.SessionError{Peer: s.remote, Reason: core.TransportFailed, Err: errors.New("transport disconnected")})
	case webrtc.PeerConnectionStateFailed:
		s.transitionLocked(StateFailed, &core.SessionError{Peer: s.remote, Reason: core.TransportFailed, Err: ErrTransportFailed})
	default:
		s.log.Debug().Str("transport", pcs.String()).Msg("transport state")
	}
}

func (s *Session) openOfferGate() {
	s.offerGateOnce.Do(func() { close(s.offerGate) })
}

// sendCandidates forwards local candidates one by one, in discovery order,
// starting once the offer is on its way.
func (s *Session) sendCandidates() {
	select {
	case <-s.offerGate:
	case <-s.ctx.Done():
		return
	}
	for {
		c, ok := s.outbound.next(s.ctx.Done())
		if !ok {
			return
		}
		if err := s.relay.SendCandidate(s.ctx, s.room, s.self, c); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.candidatesFailed.Add(1)
			s.candidateFailed(err)
			continue
		}
		s.candidatesSent.Add(1)
	}
}

func (s *Session) candidateFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateOfferSent, StateNegotiating:
		s.transitionLocked(StateFailed, &core.SessionError{Peer: s.remote, Reason: core.NegotiationFailed, Err: err})
	case StateConnected:
		s.log.Warn().Err(err).Msg("send candidate")
		s.events.push(Event{Kind: EventError, Peer: s.remote, Cause: err})
	}
}

func (s *Session) dispatch() {
	defer close(s.done)
	for {
		ev, ok := s.events.next(nil)
		if !ok {
			return
		}
		if s.listener != nil {
			s.listener(s, ev)
		}
	}
}
