package core

//go:generate mockgen -source=source_iface.go -destination=mocks/source_mock.go -package=mocks

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// LocalStream is the captured local media. It is shared read-only by every
// Peer Session and only released by whoever acquired it.
type LocalStream interface {
	ID() string
	Tracks() []webrtc.TrackLocal
}

type LocalMediaState struct {
	StreamID string `json:"stream_id,omitempty"`
	Acquired bool   `json:"acquired"`
	Muted    bool   `json:"muted"`
	VideoOff bool   `json:"video_off"`
}

// MediaSource owns local capture. Toggles disable tracks without detaching
// them, so attached senders keep running silently.
type MediaSource interface {
	Acquire(ctx context.Context) (LocalStream, error)
	ToggleAudio() (muted bool)
	ToggleVideo() (videoOff bool)
	State() LocalMediaState
	Release()
}
