package core

//go:generate mockgen -source=media_iface.go -destination=mocks/media_mock.go -package=mocks

import (
	"context"

	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
)

// MediaConnection is the connection primitive behind one Peer Session.
// The session always plays the offering side.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close releases the underlying transport. Safe to call more than once.
	Close() error
	// AddLocalTrack attaches a shared local track; the track itself is never mutated.
	AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error)
	// CreateAndSetOffer generates an offer and sets it as the local description.
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	// ApplyAnswer sets the remote description.
	ApplyAnswer(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track RemoteTrack))
	// OnStateChange sets a callback for transport state transitions.
	OnStateChange(func(webrtc.PeerConnectionState))
}

// ConnectionFactory builds one MediaConnection per remote participant.
type ConnectionFactory interface {
	NewConnection(remote domain.UserID) (MediaConnection, error)
}

// RemoteTrack is an inbound track surfaced by a MediaConnection.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
}

type TrackStats struct {
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
}

// StatsReporter is implemented by tracks that count what they receive.
type StatsReporter interface {
	Stats() TrackStats
}
