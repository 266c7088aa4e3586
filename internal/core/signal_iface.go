package core

//go:generate mockgen -source=signal_iface.go -destination=mocks/signal_mock.go -package=mocks

import (
	"context"

	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
)

type JoinResult struct {
	SelfID domain.UserID
	Status string
	Roster domain.Roster
}

// RoomDirectory is the rendezvous side of the backend.
type RoomDirectory interface {
	Join(ctx context.Context, room domain.RoomID) (JoinResult, error)
	Leave(ctx context.Context, room domain.RoomID, self domain.UserID) error
	Status(ctx context.Context, room domain.RoomID) (domain.Roster, error)
}

// SignalRelay carries negotiation messages. SendOffer blocks until the relay
// returns the counterpart's answer.
type SignalRelay interface {
	SendOffer(ctx context.Context, room domain.RoomID, self domain.UserID, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	SendCandidate(ctx context.Context, room domain.RoomID, self domain.UserID, candidate webrtc.ICECandidateInit) error
}

// SignalingClient is the full backend contract.
// Every non-2xx response is reported as a *SignalingError.
type SignalingClient interface {
	RoomDirectory
	SignalRelay
}
