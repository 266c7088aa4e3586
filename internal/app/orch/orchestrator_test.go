package orch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/peer"
	"github.com/dkeye/Mesh/internal/app/peer/peertest"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/core/mocks"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	room    domain.RoomID = "standup"
	self    domain.UserID = "a"
	waitFor               = 2 * time.Second
	tick                  = 5 * time.Millisecond
)

// signaling joins a mocked directory with an in-memory relay.
type signaling struct {
	*mocks.MockRoomDirectory
	*peertest.Relay
}

type localStream struct{ tracks []webrtc.TrackLocal }

func (s localStream) ID() string                   { return "local-stream" }
func (s localStream) Tracks() []webrtc.TrackLocal { return s.tracks }

func newLocalStream(t *testing.T) localStream {
	t.Helper()
	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "local-stream")
	require.NoError(t, err)
	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "local-stream")
	require.NoError(t, err)
	return localStream{tracks: []webrtc.TrackLocal{audio, video}}
}

type fixture struct {
	dir     *mocks.MockRoomDirectory
	media   *mocks.MockMediaSource
	relay   *peertest.Relay
	factory *peertest.Factory
	o       *Orchestrator
}

func online(ids ...domain.UserID) domain.Roster {
	r := domain.Roster{{ID: self, Status: domain.StatusOnline}}
	for _, id := range ids {
		r = append(r, domain.Participant{ID: id, Status: domain.StatusOnline})
	}
	return r
}

func newFixture(t *testing.T, policy app.Policy) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		dir:     mocks.NewMockRoomDirectory(ctrl),
		media:   mocks.NewMockMediaSource(ctrl),
		relay:   &peertest.Relay{OfferErr: map[domain.UserID]error{}},
		factory: peertest.NewFactory(),
	}
	f.media.EXPECT().State().Return(core.LocalMediaState{StreamID: "local-stream", Acquired: true}).AnyTimes()
	f.o = New(Config{
		Room:         room,
		Signal:       signaling{MockRoomDirectory: f.dir, Relay: f.relay},
		Media:        f.media,
		Conns:        f.factory,
		Policy:       policy,
		PollInterval: time.Hour,
	})
	return f
}

// start runs acquire, join and the seed reconcile with the given roster and
// expects exactly one leave and one release at teardown.
func (f *fixture) start(t *testing.T, r domain.Roster) {
	t.Helper()
	f.media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	f.dir.EXPECT().Join(gomock.Any(), room).Return(core.JoinResult{SelfID: self, Status: "joined", Roster: r}, nil)
	f.dir.EXPECT().Leave(gomock.Any(), room, self).Return(nil).Times(1)
	f.media.EXPECT().Release().Times(1)

	require.NoError(t, f.o.Start(context.Background()))
	t.Cleanup(func() { _ = f.o.Close() })
}

func (f *fixture) sessionState(id domain.UserID) (peer.State, bool) {
	for _, s := range f.o.Snapshot().Sessions {
		if s.Peer == id {
			return s.State, true
		}
	}
	return 0, false
}

func (f *fixture) waitSession(t *testing.T, id domain.UserID, want peer.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		st, ok := f.sessionState(id)
		return ok && st == want
	}, waitFor, tick)
}

func (f *fixture) connect(t *testing.T, id domain.UserID) *peertest.Conn {
	t.Helper()
	conn := f.factory.Last(id)
	require.NotNil(t, conn)
	conn.EmitTrack(peertest.Track{TrackID: string(id) + "-audio", Stream: string(id) + "-stream", Codec: webrtc.RTPCodecTypeAudio})
	conn.EmitState(webrtc.PeerConnectionStateConnected)
	require.Eventually(t, func() bool {
		return f.o.streams.Has(id)
	}, waitFor, tick)
	return conn
}

func TestSinglePeerNegotiatesAndConnects(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online("b"))

	assert.Len(t, f.factory.Conns("b"), 1)
	assert.Equal(t, 1, f.relay.OffersFor("b"))
	f.waitSession(t, "b", peer.StateNegotiating)
	assert.False(t, f.o.Snapshot().IsConnected)
	assert.Len(t, f.factory.Last("b").LocalTracks(), 2)

	f.connect(t, "b")
	snap := f.o.Snapshot()
	assert.True(t, snap.IsConnected)
	assert.Equal(t, []domain.UserID{"b"}, snap.RemoteStreamIDs())
	assert.Equal(t, "b-stream", snap.RemoteStreams[0].StreamID)
	f.waitSession(t, "b", peer.StateConnected)
	assert.Equal(t, self, snap.Self)
	assert.True(t, snap.Joined)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online())

	r := online("b", "c")
	f.o.Reconcile(context.Background(), r)
	first := f.o.Snapshot().Sessions
	f.o.Reconcile(context.Background(), r)
	second := f.o.Snapshot().Sessions

	assert.Equal(t, first, second)
	for _, id := range []domain.UserID{"b", "c"} {
		assert.Len(t, f.factory.Conns(id), 1)
		assert.Equal(t, 1, f.relay.OffersFor(id))
		assert.False(t, f.factory.Last(id).Closed())
	}
}

func TestParticipantLeaving(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online("b"))
	conn := f.connect(t, "b")

	f.o.Reconcile(context.Background(), online())

	assert.True(t, conn.Closed())
	snap := f.o.Snapshot()
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.RemoteStreams)
	assert.False(t, f.o.streams.Has("b"))

	f.o.Reconcile(context.Background(), online())
	assert.Equal(t, 1, f.relay.OffersFor("b"), "no offer is re-sent")
	assert.Len(t, f.factory.Conns("b"), 1)
}

func TestParticipantGoingOffline(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online("b"))
	conn := f.connect(t, "b")

	r := online()
	r = append(r, domain.Participant{ID: "b", Status: domain.StatusOffline})
	f.o.Reconcile(context.Background(), r)

	assert.True(t, conn.Closed())
	assert.Empty(t, f.o.Snapshot().RemoteStreams)
	assert.Len(t, f.o.Snapshot().Participants, 2)
}

func TestUnauthorizedOfferFailsOnlyThatPeer(t *testing.T) {
	f := newFixture(t, nil)
	f.relay.OfferErr["b"] = &core.SignalingError{Op: "send offer", Kind: core.SignalingUnauthorized, Status: 401}
	f.start(t, online("b", "c"))

	require.Eventually(t, func() bool {
		_, tracked := f.sessionState("b")
		return !tracked
	}, waitFor, tick)
	assert.True(t, f.factory.Last("b").Closed())

	snap := f.o.Snapshot()
	assert.Contains(t, snap.LastError, string(core.NegotiationFailed))
	assert.Contains(t, snap.LastError, string(core.SignalingUnauthorized))
	assert.Len(t, snap.Participants, 3)
	f.waitSession(t, "c", peer.StateNegotiating)
	assert.False(t, f.factory.Last("c").Closed())
}

func TestFailedPeerIsReofferedByNextReconcile(t *testing.T) {
	f := newFixture(t, nil)
	f.relay.OfferErr["b"] = errors.New("relay unavailable")
	f.start(t, online("b"))
	require.Eventually(t, func() bool { return len(f.o.Snapshot().Sessions) == 0 }, waitFor, tick)

	delete(f.relay.OfferErr, "b")
	f.o.Reconcile(context.Background(), online("b"))
	assert.Len(t, f.factory.Conns("b"), 2)
	f.waitSession(t, "b", peer.StateNegotiating)
}

func TestCooldownPolicyHoldsOffLostPeer(t *testing.T) {
	f := newFixture(t, app.CooldownPolicy{Cycles: 2})
	f.start(t, online("b"))
	conn := f.connect(t, "b")

	conn.EmitState(webrtc.PeerConnectionStateFailed)
	require.Eventually(t, func() bool { return len(f.o.Snapshot().Sessions) == 0 }, waitFor, tick)

	f.o.Reconcile(context.Background(), online("b"))
	f.o.Reconcile(context.Background(), online("b"))
	assert.Len(t, f.factory.Conns("b"), 1)

	f.o.Reconcile(context.Background(), online("b"))
	assert.Len(t, f.factory.Conns("b"), 2)
}

func TestTransportLossClearsRegistry(t *testing.T) {
	for _, st := range []webrtc.PeerConnectionState{webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed} {
		t.Run(st.String(), func(t *testing.T) {
			f := newFixture(t, nil)
			f.start(t, online("b"))
			conn := f.connect(t, "b")

			conn.EmitState(st)
			require.Eventually(t, func() bool { return !f.o.streams.Has("b") }, waitFor, tick)
			require.Eventually(t, conn.Closed, waitFor, tick)

			snap := f.o.Snapshot()
			assert.Empty(t, snap.Sessions)
			assert.Contains(t, snap.LastError, string(core.TransportFailed))
		})
	}
}

func TestLeaveDuringOfferSent(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online())

	f.relay.Hold = make(chan struct{})
	reconciled := make(chan struct{})
	go func() {
		defer close(reconciled)
		f.o.Reconcile(context.Background(), online("b"))
	}()
	f.waitSession(t, "b", peer.StateOfferSent)

	assert.NotPanics(t, func() { assert.NoError(t, f.o.Leave(context.Background())) })

	select {
	case <-reconciled:
	case <-time.After(waitFor):
		t.Fatal("reconcile still blocked after leave")
	}
	assert.True(t, f.factory.Last("b").Closed())
	snap := f.o.Snapshot()
	assert.False(t, snap.Joined)
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.RemoteStreams)
	assert.False(t, snap.IsConnected)

	// no work after teardown
	f.o.Reconcile(context.Background(), online("c"))
	assert.Empty(t, f.factory.Conns("c"))
	assert.NoError(t, f.o.Leave(context.Background()))
}

func TestRunEndsCleanlyOnLeaveDuringFirstOffer(t *testing.T) {
	f := newFixture(t, nil)
	f.relay.Hold = make(chan struct{})
	f.media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	f.dir.EXPECT().Join(gomock.Any(), room).Return(core.JoinResult{SelfID: self, Roster: online("b")}, nil)
	f.dir.EXPECT().Leave(gomock.Any(), room, self).Return(nil).Times(1)
	f.media.EXPECT().Release().Times(1)

	done := make(chan error, 1)
	go func() { done <- f.o.Run(context.Background()) }()
	f.waitSession(t, "b", peer.StateOfferSent)

	require.NoError(t, f.o.Leave(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("run did not return after leave")
	}
	assert.True(t, f.factory.Last("b").Closed())
	assert.False(t, f.o.Snapshot().Joined)
}

func TestRunEndsCleanlyOnLeaveDuringJoin(t *testing.T) {
	f := newFixture(t, nil)
	joining := make(chan struct{})
	release := make(chan struct{})
	f.media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	f.dir.EXPECT().Join(gomock.Any(), room).DoAndReturn(func(context.Context, domain.RoomID) (core.JoinResult, error) {
		close(joining)
		<-release
		return core.JoinResult{SelfID: self, Roster: online("b")}, nil
	})
	f.dir.EXPECT().Leave(gomock.Any(), room, self).Return(nil).Times(1)
	f.media.EXPECT().Release().Times(1)

	done := make(chan error, 1)
	go func() { done <- f.o.Run(context.Background()) }()
	<-joining
	require.NoError(t, f.o.Leave(context.Background()))
	close(release)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("run did not return after leave")
	}
	assert.Empty(t, f.factory.Conns("b"))
}

func TestLeaveFailureDoesNotBlockCleanup(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockRoomDirectory(ctrl)
	media := mocks.NewMockMediaSource(ctrl)
	factory := peertest.NewFactory()
	o := New(Config{
		Room:         room,
		Signal:       signaling{MockRoomDirectory: dir, Relay: &peertest.Relay{}},
		Media:        media,
		Conns:        factory,
		PollInterval: time.Hour,
		LeaveTimeout: 50 * time.Millisecond,
	})

	media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	media.EXPECT().State().Return(core.LocalMediaState{}).AnyTimes()
	dir.EXPECT().Join(gomock.Any(), room).Return(core.JoinResult{SelfID: self, Roster: online("b")}, nil)
	dir.EXPECT().Leave(gomock.Any(), room, self).DoAndReturn(func(ctx context.Context, _ domain.RoomID, _ domain.UserID) error {
		<-ctx.Done()
		return &core.SignalingError{Op: "leave", Kind: core.SignalingUnknown, Err: ctx.Err()}
	})
	media.EXPECT().Release().Times(1)

	require.NoError(t, o.Start(context.Background()))
	err := o.Close()
	assert.Error(t, err)
	assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
	assert.True(t, factory.Last("b").Closed())
	select {
	case <-o.Done():
	default:
		t.Fatal("teardown not finished")
	}
}

func TestToggleLeavesSessionsAlone(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online("b"))
	conn := f.connect(t, "b")
	before := conn.Calls()
	tracksBefore := conn.LocalTracks()

	f.media.EXPECT().ToggleAudio().Return(true)
	f.media.EXPECT().ToggleVideo().Return(true)
	assert.True(t, f.o.ToggleAudio())
	assert.True(t, f.o.ToggleVideo())

	assert.Equal(t, before, conn.Calls())
	assert.Equal(t, tracksBefore, conn.LocalTracks())
	assert.Len(t, f.factory.Conns("b"), 1)
	f.waitSession(t, "b", peer.StateConnected)
}

func TestMediaFailureAbortsJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockRoomDirectory(ctrl)
	media := mocks.NewMockMediaSource(ctrl)
	o := New(Config{Room: room, Signal: signaling{MockRoomDirectory: dir, Relay: &peertest.Relay{}}, Media: media, Conns: peertest.NewFactory()})

	media.EXPECT().Acquire(gomock.Any()).Return(nil, &core.MediaAcquisitionError{Kind: core.MediaPermissionDenied})
	media.EXPECT().State().Return(core.LocalMediaState{}).AnyTimes()

	err := o.Run(context.Background())
	assert.Equal(t, core.MediaPermissionDenied, core.MediaKindOf(err))
	assert.Contains(t, o.Snapshot().LastError, "permission_denied")
	assert.ErrorIs(t, o.Start(context.Background()), ErrClosed)
}

func TestJoinFailureReleasesMedia(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockRoomDirectory(ctrl)
	media := mocks.NewMockMediaSource(ctrl)
	o := New(Config{Room: room, Signal: signaling{MockRoomDirectory: dir, Relay: &peertest.Relay{}}, Media: media, Conns: peertest.NewFactory()})

	media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	media.EXPECT().State().Return(core.LocalMediaState{}).AnyTimes()
	dir.EXPECT().Join(gomock.Any(), room).Return(core.JoinResult{}, &core.SignalingError{Op: "join", Kind: core.SignalingNotFound, Status: 404})
	media.EXPECT().Release().Times(1)

	err := o.Run(context.Background())
	assert.Equal(t, core.SignalingNotFound, core.SignalingKindOf(err))
}

func TestRunPollsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockRoomDirectory(ctrl)
	media := mocks.NewMockMediaSource(ctrl)
	relay := &peertest.Relay{}
	factory := peertest.NewFactory()
	o := New(Config{
		Room:         room,
		Signal:       signaling{MockRoomDirectory: dir, Relay: relay},
		Media:        media,
		Conns:        factory,
		PollInterval: 5 * time.Millisecond,
	})

	media.EXPECT().Acquire(gomock.Any()).Return(newLocalStream(t), nil)
	media.EXPECT().State().Return(core.LocalMediaState{}).AnyTimes()
	dir.EXPECT().Join(gomock.Any(), room).Return(core.JoinResult{SelfID: self, Roster: online()}, nil)
	gomock.InOrder(
		dir.EXPECT().Status(gomock.Any(), room).Return(nil, errors.New("flaky")),
		dir.EXPECT().Status(gomock.Any(), room).Return(online("b"), nil).AnyTimes(),
	)
	dir.EXPECT().Leave(gomock.Any(), room, self).Return(nil)
	media.EXPECT().Release().Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return factory.Last("b") != nil }, waitFor, tick)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("run did not return")
	}
	assert.Equal(t, 1, relay.OffersFor("b"))
	assert.True(t, factory.Last("b").Closed())
}

func TestSubscribeSeesChangesAndTeardown(t *testing.T) {
	f := newFixture(t, nil)
	f.start(t, online())
	ch, cancel := f.o.Subscribe()
	defer cancel()

	f.o.Reconcile(context.Background(), online("b"))
	select {
	case snap := <-ch:
		assert.NotEmpty(t, snap.Sessions)
	case <-time.After(waitFor):
		t.Fatal("no snapshot")
	}

	require.NoError(t, f.o.Close())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, waitFor, tick)
}
