package orch

import (
	"sort"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/peer"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
)

type SessionInfo struct {
	Peer  domain.UserID `json:"peer"`
	State peer.State    `json:"state"`
	Error string        `json:"error,omitempty"`
	Stats peer.Stats    `json:"stats"`
}

// Snapshot is the externally observable state of the orchestrator.
type Snapshot struct {
	Room          domain.RoomID        `json:"room"`
	Self          domain.UserID        `json:"self,omitempty"`
	Joined        bool                 `json:"joined"`
	Participants  domain.Roster        `json:"participants"`
	RemoteStreams []app.StreamInfo     `json:"remote_streams"`
	Sessions      []SessionInfo        `json:"sessions"`
	IsConnected   bool                 `json:"is_connected"`
	LastError     string               `json:"last_error,omitempty"`
	PollFailures  int64                `json:"poll_failures"`
	Media         core.LocalMediaState `json:"media"`
}

// RemoteStreamIDs returns the participants whose stream is registered.
func (s Snapshot) RemoteStreamIDs() []domain.UserID {
	out := make([]domain.UserID, 0, len(s.RemoteStreams))
	for _, st := range s.RemoteStreams {
		out = append(out, st.Participant)
	}
	return out
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	snap := Snapshot{
		Room:         o.room,
		Self:         o.self,
		Joined:       o.joined,
		Participants: o.participants.Clone(),
		IsConnected:  o.connected,
		Sessions:     make([]SessionInfo, 0, len(o.sessions)),
	}
	if o.lastErr != nil {
		snap.LastError = o.lastErr.Error()
	}
	if o.poller != nil {
		snap.PollFailures = o.poller.Failures()
	}
	for id, s := range o.sessions {
		info := SessionInfo{Peer: id, State: s.State(), Stats: s.Stats()}
		if err := s.Cause(); err != nil {
			info.Error = err.Error()
		}
		snap.Sessions = append(snap.Sessions, info)
	}
	o.mu.Unlock()

	sort.Slice(snap.Sessions, func(i, j int) bool { return snap.Sessions[i].Peer < snap.Sessions[j].Peer })
	snap.RemoteStreams = o.streams.Snapshot()
	if o.media != nil {
		snap.Media = o.media.State()
	}
	return snap
}

// Subscribe returns a channel receiving the latest Snapshot after every
// change. Slow readers only miss intermediate snapshots. The channel is
// closed on teardown or when cancel is called.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if o.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := o.nextID
	o.nextID++
	o.subs[id] = ch
	return ch, func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		if c, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(c)
		}
	}
}

func (o *Orchestrator) notify() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if len(o.subs) == 0 {
		return
	}
	snap := o.Snapshot()
	for _, ch := range o.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (o *Orchestrator) closeSubscribers() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for id, ch := range o.subs {
		close(ch)
		delete(o.subs, id)
	}
	o.subs = nil
}
