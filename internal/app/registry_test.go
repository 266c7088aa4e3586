package app

import (
	"testing"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTrack struct {
	id, stream string
	kind       webrtc.RTPCodecType
	stats      core.TrackStats
}

func (s stubTrack) ID() string                { return s.id }
func (s stubTrack) StreamID() string          { return s.stream }
func (s stubTrack) Kind() webrtc.RTPCodecType { return s.kind }
func (s stubTrack) Stats() core.TrackStats    { return s.stats }

func TestStreamRegistryPutRemove(t *testing.T) {
	r := NewStreamRegistry()

	r.Put(RemoteStream{Participant: "b", StreamID: "s-b"})
	assert.False(t, r.Has("b"), "stream without tracks must not be registered")

	r.Put(RemoteStream{
		Participant: "b",
		StreamID:    "s-b",
		Tracks: []core.RemoteTrack{
			stubTrack{id: "v", stream: "s-b", kind: webrtc.RTPCodecTypeVideo, stats: core.TrackStats{Packets: 3, Bytes: 300}},
		},
	})
	r.Put(RemoteStream{
		Participant: "a",
		StreamID:    "s-a",
		Tracks:      []core.RemoteTrack{stubTrack{id: "a", stream: "s-a", kind: webrtc.RTPCodecTypeAudio}},
	})
	require.Equal(t, 2, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.EqualValues(t, "a", snap[0].Participant)
	assert.Equal(t, "video", snap[1].Tracks[0].Kind)
	assert.EqualValues(t, 3, snap[1].Tracks[0].Stats.Packets)

	assert.True(t, r.Remove("b"))
	assert.False(t, r.Remove("b"))
	r.Clear()
	assert.Zero(t, r.Len())
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, 0, PolicyFor(0).OnSessionLost("b", nil))
	assert.Equal(t, 2, PolicyFor(2).OnSessionLost("b", nil))
	assert.Equal(t, 0, CooldownPolicy{Cycles: -1}.OnSessionLost("b", nil))
}
