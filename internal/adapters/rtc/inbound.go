package rtc

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// InboundTrack is a remote track whose packets are drained and counted.
// Playback and decoding are left to whoever consumes the stream.
type InboundTrack struct {
	*webrtc.TrackRemote

	packets atomic.Uint64
	bytes   atomic.Uint64
	lastSeq atomic.Uint32
}

func NewInboundTrack(t *webrtc.TrackRemote) *InboundTrack {
	return &InboundTrack{TrackRemote: t}
}

func (t *InboundTrack) Stats() core.TrackStats {
	return core.TrackStats{Packets: t.packets.Load(), Bytes: t.bytes.Load()}
}

// LastSequence is the sequence number of the latest packet read.
func (t *InboundTrack) LastSequence() uint16 { return uint16(t.lastSeq.Load()) }

func (t *InboundTrack) count(pkt *rtp.Packet) {
	t.packets.Add(1)
	t.bytes.Add(uint64(pkt.MarshalSize()))
	t.lastSeq.Store(uint32(pkt.SequenceNumber))
}

// drain reads RTP from the remote track until ctx is done or the track ends.
func (t *InboundTrack) drain(ctx context.Context, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Uint64("packets", t.packets.Load()).Msg("inbound ctx done")
			return
		default:
		}
		pkt, _, err := t.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug().Msg("inbound track ended")
			} else {
				logger.Warn().Err(err).Msg("inbound read RTP error, stopping")
			}
			return
		}
		t.count(pkt)
	}
}
