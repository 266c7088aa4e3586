package orch

import (
	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/peer"
	"github.com/dkeye/Mesh/internal/core"
)

// onSessionEvent is the only way session progress reaches the orchestrator.
// Events of a session that is no longer the tracked one for its peer are
// ignored, so a replaced or discarded session can never touch the registry.
func (o *Orchestrator) onSessionEvent(s *peer.Session, ev peer.Event) {
	switch ev.Kind {
	case peer.EventState:
		o.onSessionState(s, ev)
	case peer.EventStream:
		o.onSessionStream(s, ev)
	case peer.EventError:
		o.log.Warn().Err(ev.Cause).Str("peer", string(ev.Peer)).Msg("session error")
		o.setError(ev.Cause)
	}
}

func (o *Orchestrator) onSessionState(s *peer.Session, ev peer.Event) {
	o.mu.Lock()
	current := o.sessions[ev.Peer] == s
	switch {
	case !current:
	case ev.To == peer.StateConnected:
		o.connected = true
	case ev.To.Lost():
		delete(o.sessions, ev.Peer)
		o.streams.Remove(ev.Peer)
		if ev.Cause != nil {
			o.lastErr = ev.Cause
		}
		if skip := o.policy.OnSessionLost(ev.Peer, ev.Cause); skip > 0 {
			o.holdoff[ev.Peer] = skip
		}
	}
	o.mu.Unlock()

	if current && (ev.To == peer.StateDisconnected || ev.To == peer.StateFailed) {
		o.log.Info().Str("peer", string(ev.Peer)).Str("state", ev.To.String()).
			Str("reason", string(core.SessionReasonOf(ev.Cause))).Msg("session lost")
		_ = s.Close()
	}
	o.notify()
}

func (o *Orchestrator) onSessionStream(s *peer.Session, ev peer.Event) {
	o.mu.Lock()
	if o.sessions[ev.Peer] == s && s.State() == peer.StateConnected {
		o.streams.Put(app.RemoteStream{Participant: ev.Peer, StreamID: ev.StreamID, Tracks: ev.Tracks})
	}
	o.mu.Unlock()
	o.notify()
}

// ToggleAudio mutes or unmutes the local audio track. Sessions and their
// attached senders are left untouched.
func (o *Orchestrator) ToggleAudio() bool {
	muted := o.media.ToggleAudio()
	o.log.Info().Bool("muted", muted).Msg("audio toggled")
	o.notify()
	return muted
}

// ToggleVideo disables or enables the local video track.
func (o *Orchestrator) ToggleVideo() bool {
	off := o.media.ToggleVideo()
	o.log.Info().Bool("video_off", off).Msg("video toggled")
	o.notify()
	return off
}
