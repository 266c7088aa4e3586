package roster

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 3 * time.Second

// ReconcileFunc applies one roster snapshot. The next poll is not issued
// until it returns.
type ReconcileFunc func(ctx context.Context, r domain.Roster)

type Config struct {
	Directory core.RoomDirectory
	Room      domain.RoomID
	Interval  time.Duration
	Reconcile ReconcileFunc
	// OnError receives every failed poll. The loop keeps running.
	OnError func(error)
}

// Poller fetches the room roster at a fixed interval and hands each
// snapshot to Reconcile.
type Poller struct {
	dir       core.RoomDirectory
	room      domain.RoomID
	interval  time.Duration
	reconcile ReconcileFunc
	onError   func(error)
	log       zerolog.Logger

	failures atomic.Int64
	polls    atomic.Uint64
}

func NewPoller(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{
		dir:       cfg.Directory,
		room:      cfg.Room,
		interval:  cfg.Interval,
		reconcile: cfg.Reconcile,
		onError:   cfg.OnError,
		log:       log.With().Str("module", "roster").Str("room", string(cfg.Room)).Logger(),
	}
}

// Run polls until ctx is cancelled. The timer is re-armed only after the
// previous reconcile returned, so polls never overlap.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().Dur("interval", p.interval).Msg("polling started")
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Uint64("polls", p.polls.Load()).Msg("polling stopped")
			return ctx.Err()
		case <-timer.C:
		}
		_ = p.PollOnce(ctx)
		timer.Reset(p.interval)
	}
}

// PollOnce fetches one snapshot and reconciles it.
func (p *Poller) PollOnce(ctx context.Context) error {
	p.polls.Add(1)
	r, err := p.dir.Status(ctx, p.room)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n := p.failures.Add(1)
		p.log.Warn().Err(err).Int64("consecutive", n).Msg("roster poll failed")
		if p.onError != nil {
			p.onError(err)
		}
		return err
	}
	p.failures.Store(0)
	p.log.Debug().Int("participants", len(r)).Msg("roster")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.reconcile(ctx, r)
	return nil
}

// Failures is the number of consecutive failed polls.
func (p *Poller) Failures() int64 { return p.failures.Load() }

func (p *Poller) Polls() uint64 { return p.polls.Load() }
