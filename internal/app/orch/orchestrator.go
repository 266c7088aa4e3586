// Package orch holds the Session Orchestrator: the single owner of every
// Peer Session of the local participant in one room.
package orch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/peer"
	"github.com/dkeye/Mesh/internal/app/roster"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("orchestrator closed")

const (
	DefaultLeaveTimeout      = 5 * time.Second
	DefaultMaxParallelOffers = 4
)

type Config struct {
	Room    domain.RoomID
	Signal  core.SignalingClient
	Media   core.MediaSource
	Conns   core.ConnectionFactory
	Streams *app.StreamRegistry
	Policy  app.Policy

	PollInterval      time.Duration
	LeaveTimeout      time.Duration
	MaxParallelOffers int
}

type Orchestrator struct {
	room    domain.RoomID
	signal  core.SignalingClient
	media   core.MediaSource
	conns   core.ConnectionFactory
	streams *app.StreamRegistry
	policy  app.Policy

	pollInterval time.Duration
	leaveTimeout time.Duration
	maxParallel  int
	log          zerolog.Logger

	// ctx bounds every session and the poll loop.
	ctx    context.Context
	cancel context.CancelFunc

	// reconcileMu serializes reconcile passes from any caller.
	reconcileMu sync.Mutex

	mu           sync.Mutex
	self         domain.UserID
	joined       bool
	closed       bool
	stream       core.LocalStream
	sessions     map[domain.UserID]*peer.Session
	holdoff      map[domain.UserID]int
	participants domain.Roster
	connected    bool
	lastErr      error
	poller       *roster.Poller
	pollDone     chan struct{}

	teardown sync.Once
	left     chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

func New(cfg Config) *Orchestrator {
	if cfg.Streams == nil {
		cfg.Streams = app.NewStreamRegistry()
	}
	if cfg.Policy == nil {
		cfg.Policy = app.SimplePolicy{}
	}
	if cfg.LeaveTimeout <= 0 {
		cfg.LeaveTimeout = DefaultLeaveTimeout
	}
	if cfg.MaxParallelOffers <= 0 {
		cfg.MaxParallelOffers = DefaultMaxParallelOffers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		room:         cfg.Room,
		signal:       cfg.Signal,
		media:        cfg.Media,
		conns:        cfg.Conns,
		streams:      cfg.Streams,
		policy:       cfg.Policy,
		pollInterval: cfg.PollInterval,
		leaveTimeout: cfg.LeaveTimeout,
		maxParallel:  cfg.MaxParallelOffers,
		log:          log.With().Str("module", "orch").Str("room", string(cfg.Room)).Logger(),
		ctx:          ctx,
		cancel:       cancel,
		sessions:     make(map[domain.UserID]*peer.Session),
		holdoff:      make(map[domain.UserID]int),
		left:         make(chan struct{}),
		subs:         make(map[int]chan Snapshot),
	}
}

// Run acquires local media, joins the room, reconciles the join roster and
// polls until ctx is done or Leave is called. Whatever ends the run, the
// room is left through the single teardown path before Run returns.
// Media acquisition and join failures are returned; nothing is retried.
// A Leave that lands while Start is still running is a clean exit.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Start(ctx); err != nil {
		if errors.Is(err, ErrClosed) {
			<-o.left
			return nil
		}
		return err
	}
	select {
	case <-ctx.Done():
		o.log.Info().Msg("context done, leaving")
	case <-o.left:
	}
	err := o.Leave(context.WithoutCancel(ctx))
	<-o.left
	if err != nil {
		o.log.Warn().Err(err).Msg("leave")
	}
	return nil
}

// Start performs acquire, join and the first reconcile, then starts the
// poll loop in the background. On error the orchestrator is torn down.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.isClosed() {
		return ErrClosed
	}

	stream, err := o.media.Acquire(ctx)
	if err != nil {
		o.setError(err)
		o.log.Error().Err(err).Msg("acquire media")
		_ = o.Leave(ctx)
		return err
	}
	o.mu.Lock()
	o.stream = stream
	o.mu.Unlock()
	o.log.Info().Str("stream", stream.ID()).Int("tracks", len(stream.Tracks())).Msg("local media acquired")

	res, err := o.Join(ctx)
	if err != nil {
		_ = o.Leave(ctx)
		return err
	}

	o.Reconcile(ctx, res.Roster)
	return o.startPolling()
}

func (o *Orchestrator) startPolling() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.poller = roster.NewPoller(roster.Config{
		Directory: o.signal,
		Room:      o.room,
		Interval:  o.pollInterval,
		Reconcile: o.Reconcile,
		OnError:   o.setError,
	})
	o.pollDone = make(chan struct{})
	go func(p *roster.Poller, done chan struct{}) {
		defer close(done)
		_ = p.Run(o.ctx)
	}(o.poller, o.pollDone)
	return nil
}

// Done is closed once teardown has completed.
func (o *Orchestrator) Done() <-chan struct{} { return o.left }

func (o *Orchestrator) Self() domain.UserID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.self
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *Orchestrator) setError(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	o.notify()
}
