package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
)

// RemoteStream is the inbound media of one participant.
type RemoteStream struct {
	Participant domain.UserID
	StreamID    string
	Tracks      []core.RemoteTrack
}

type TrackInfo struct {
	ID    string          `json:"id"`
	Kind  string          `json:"kind"`
	Stats core.TrackStats `json:"stats"`
}

// StreamInfo is a read-only view for APIs (no transport fields).
type StreamInfo struct {
	Participant domain.UserID `json:"participant"`
	StreamID    string        `json:"stream_id"`
	Tracks      []TrackInfo   `json:"tracks"`
}

// StreamRegistry maps participant id to that participant's inbound stream.
// Only the orchestrator writes to it; an id is present iff its Peer Session
// is CONNECTED and has received at least one track.
type StreamRegistry struct {
	mu      sync.RWMutex
	streams map[domain.UserID]*RemoteStream
}

func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{
		streams: make(map[domain.UserID]*RemoteStream),
	}
}

// Put registers or replaces the stream of a participant.
func (r *StreamRegistry) Put(s RemoteStream) {
	if len(s.Tracks) == 0 {
		return
	}
	tracks := make([]core.RemoteTrack, len(s.Tracks))
	copy(tracks, s.Tracks)
	s.Tracks = tracks

	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[s.Participant] = &s
	log.Debug().Str("module", "app.registry").Str("peer", string(s.Participant)).Int("tracks", len(tracks)).Msg("stream registered")
}

// Remove drops a participant's stream and reports whether it was present.
func (r *StreamRegistry) Remove(id domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[id]; !ok {
		return false
	}
	delete(r.streams, id)
	log.Debug().Str("module", "app.registry").Str("peer", string(id)).Msg("stream removed")
	return true
}

func (r *StreamRegistry) Get(id domain.UserID) (RemoteStream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	if !ok {
		return RemoteStream{}, false
	}
	return *s, true
}

func (r *StreamRegistry) Has(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.streams[id]
	return ok
}

func (r *StreamRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

func (r *StreamRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = make(map[domain.UserID]*RemoteStream)
}

// Snapshot returns the registry sorted by participant id.
func (r *StreamRegistry) Snapshot() []StreamInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StreamInfo, 0, len(r.streams))
	for id, s := range r.streams {
		info := StreamInfo{Participant: id, StreamID: s.StreamID, Tracks: make([]TrackInfo, 0, len(s.Tracks))}
		for _, t := range s.Tracks {
			ti := TrackInfo{ID: t.ID(), Kind: t.Kind().String()}
			if sr, ok := t.(core.StatsReporter); ok {
				ti.Stats = sr.Stats()
			}
			info.Tracks = append(info.Tracks, ti)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Participant < out[j].Participant })
	return out
}
