package media

import (
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
)

type TrackState int32

const (
	TrackStateLive TrackState = iota
	TrackStateDisabled
	TrackStateStopped
)

func (s TrackState) String() string {
	switch s {
	case TrackStateLive:
		return "live"
	case TrackStateDisabled:
		return "disabled"
	case TrackStateStopped:
		return "stopped"
	}
	return "unknown"
}

// OutTrack is one local track shared by every peer connection it is
// attached to. Disabling it stops sample writes but keeps it attached.
type OutTrack struct {
	Track *webrtc.TrackLocalStaticSample
	state atomic.Int32 // zero is TrackStateLive

	written atomic.Uint64
	dropped atomic.Uint64
}

func NewOutTrack(track *webrtc.TrackLocalStaticSample) *OutTrack {
	return &OutTrack{Track: track}
}

func (t *OutTrack) State() TrackState { return TrackState(t.state.Load()) }

// SetEnabled is a no-op once the track is stopped.
func (t *OutTrack) SetEnabled(on bool) {
	next := TrackStateDisabled
	if on {
		next = TrackStateLive
	}
	for {
		cur := t.state.Load()
		if TrackState(cur) == TrackStateStopped {
			return
		}
		if t.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (t *OutTrack) Stop() { t.state.Store(int32(TrackStateStopped)) }

// WriteSample forwards s only while the track is live.
func (t *OutTrack) WriteSample(s pionmedia.Sample) error {
	if t.State() != TrackStateLive {
		t.dropped.Add(1)
		return nil
	}
	if err := t.Track.WriteSample(s); err != nil {
		return err
	}
	t.written.Add(1)
	return nil
}

// Written is the number of samples handed to the track.
func (t *OutTrack) Written() uint64 { return t.written.Load() }

// Dropped is the number of samples skipped while not live.
func (t *OutTrack) Dropped() uint64 { return t.dropped.Load() }
