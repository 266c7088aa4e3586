package orch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dkeye/Mesh/internal/app/peer"
	"github.com/dkeye/Mesh/internal/app/roster"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

// Join registers the local participant with the room directory.
func (o *Orchestrator) Join(ctx context.Context) (core.JoinResult, error) {
	res, err := o.signal.Join(ctx, o.room)
	if err != nil {
		o.setError(err)
		o.log.Error().Err(err).Msg("join")
		return core.JoinResult{}, fmt.Errorf("join %s: %w", o.room, err)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.leaveDirectory(ctx, res.SelfID)
		return core.JoinResult{}, ErrClosed
	}
	o.self = res.SelfID
	o.joined = true
	o.participants = res.Roster.Clone()
	o.mu.Unlock()

	o.log.Info().Str("self", string(res.SelfID)).Int("participants", len(res.Roster)).Msg("joined")
	o.notify()
	return res, nil
}

// Reconcile brings the live sessions in line with one roster snapshot: a
// session is started for every ONLINE remote without one and closed for
// every tracked participant that is gone or OFFLINE. Calling it again with
// the same roster does nothing. It returns after every new session has
// finished its offer/answer exchange or failed.
func (o *Orchestrator) Reconcile(ctx context.Context, r domain.Roster) {
	o.reconcileMu.Lock()
	defer o.reconcileMu.Unlock()

	o.mu.Lock()
	if o.closed || !o.joined {
		o.mu.Unlock()
		return
	}
	o.participants = r.Clone()

	tracked := make([]domain.UserID, 0, len(o.sessions))
	for id := range o.sessions {
		tracked = append(tracked, id)
	}
	sort.Slice(tracked, func(i, j int) bool { return tracked[i] < tracked[j] })
	create, remove := roster.Diff(r, tracked, o.self)

	stale := make([]*peer.Session, 0, len(remove))
	for _, id := range remove {
		stale = append(stale, o.sessions[id])
		delete(o.sessions, id)
		o.streams.Remove(id)
	}

	online := r.OnlineSet(o.self)
	for id := range o.holdoff {
		if _, ok := online[id]; !ok {
			delete(o.holdoff, id)
		}
	}

	fresh := make([]*peer.Session, 0, len(create))
	for _, id := range create {
		if n := o.holdoff[id]; n > 0 {
			o.holdoff[id] = n - 1
			o.log.Debug().Str("peer", string(id)).Int("cycles", n).Msg("held off")
			continue
		}
		delete(o.holdoff, id)
		s, err := o.newSessionLocked(id)
		if err != nil {
			o.lastErr = err
			o.log.Error().Err(err).Str("peer", string(id)).Msg("create session")
			continue
		}
		o.sessions[id] = s
		fresh = append(fresh, s)
	}
	o.mu.Unlock()

	for _, s := range stale {
		o.log.Info().Str("peer", string(s.Remote())).Str("state", s.State().String()).Msg("participant left")
		_ = s.Close()
	}
	if len(stale) > 0 || len(fresh) > 0 {
		o.notify()
	}

	p := pool.New().WithMaxGoroutines(o.maxParallel)
	for _, s := range fresh {
		p.Go(func() {
			if err := s.Start(); err != nil && !errors.Is(err, peer.ErrSessionClosed) {
				o.log.Warn().Err(err).Str("peer", string(s.Remote())).Msg("start session")
			}
		})
	}
	p.Wait()
}

func (o *Orchestrator) newSessionLocked(id domain.UserID) (*peer.Session, error) {
	conn, err := o.conns.NewConnection(id)
	if err != nil {
		return nil, fmt.Errorf("connection for %s: %w", id, err)
	}
	return peer.New(o.ctx, peer.Config{
		Room:     o.room,
		Self:     o.self,
		Remote:   id,
		Relay:    o.signal,
		Conn:     conn,
		Stream:   o.stream,
		Listener: o.onSessionEvent,
	}), nil
}

// Leave is the single teardown path: it stops polling, closes every session
// whatever its state, clears the stream registry, tells the directory
// best-effort and releases local media once. Only the first call does work.
// The returned error is the directory's; local cleanup never depends on it.
func (o *Orchestrator) Leave(ctx context.Context) error {
	var err error
	o.teardown.Do(func() { err = o.shutdown(ctx) })
	return err
}

// Close is Leave without a caller deadline.
func (o *Orchestrator) Close() error {
	return o.Leave(context.Background())
}

func (o *Orchestrator) shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	sessions := make([]*peer.Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		sessions = append(sessions, s)
	}
	o.sessions = make(map[domain.UserID]*peer.Session)
	o.holdoff = make(map[domain.UserID]int)
	o.connected = false
	joined, self, stream := o.joined, o.self, o.stream
	o.joined = false
	pollDone := o.pollDone
	o.mu.Unlock()

	o.cancel()

	var wg conc.WaitGroup
	for _, s := range sessions {
		wg.Go(func() { _ = s.Close() })
	}
	wg.Wait()
	o.streams.Clear()

	if pollDone != nil {
		<-pollDone
	}

	var err error
	if joined {
		err = o.leaveDirectory(ctx, self)
	}
	if stream != nil {
		o.media.Release()
		o.log.Info().Msg("local media released")
	}

	o.log.Info().Int("sessions", len(sessions)).Msg("left room")
	o.notify()
	close(o.left)
	o.closeSubscribers()
	return err
}

func (o *Orchestrator) leaveDirectory(ctx context.Context, self domain.UserID) error {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.leaveTimeout)
	defer cancel()
	if err := o.signal.Leave(lctx, o.room, self); err != nil {
		o.log.Warn().Err(err).Msg("leave request failed")
		return fmt.Errorf("leave %s: %w", o.room, err)
	}
	return nil
}
