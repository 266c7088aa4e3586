package signal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/Mesh/internal/adapters/signal"
	"github.com/dkeye/Mesh/internal/adapters/signal/signaltest"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, relay *signaltest.Relay, token string) *signal.Client {
	t.Helper()
	srv := httptest.NewServer(relay.Handler())
	t.Cleanup(srv.Close)
	return signal.NewClient(signal.Config{BaseURL: srv.URL + "/", Token: token, Timeout: 5 * time.Second})
}

func TestJoinStatusLeave(t *testing.T) {
	relay := signaltest.New()
	relay.Put("r1", "alice", domain.StatusOnline)
	relay.Put("r1", "carol", domain.StatusOffline)
	c := newClient(t, relay, "")
	ctx := context.Background()

	res, err := c.Join(ctx, "r1")
	require.NoError(t, err)
	require.NotEmpty(t, res.SelfID)
	assert.Equal(t, "CONNECTED", res.Status)
	assert.Len(t, res.Roster, 3)
	assert.ElementsMatch(t, []domain.UserID{"alice"}, res.Roster.Remotes(res.SelfID))

	roster, err := c.Status(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, res.Roster, roster)

	require.NoError(t, c.Leave(ctx, "r1", res.SelfID))
	roster, err = c.Status(ctx, "r1")
	require.NoError(t, err)
	_, online := roster.OnlineSet("")[res.SelfID]
	assert.False(t, online)
}

func TestJoinAcceptsCamelCaseUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/room/join", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"me","status":"CONNECTED","participants":[{"id":"me","status":"ONLINE"}]}`))
	}))
	defer srv.Close()

	res, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).Join(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("me"), res.SelfID)
}

func TestJoinWithoutUserIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"CONNECTED","participants":[]}`))
	}))
	defer srv.Close()

	_, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).Join(context.Background(), "r1")
	assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
}

func TestStatusCodesMapToKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   core.SignalingErrorKind
		msg    string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid token"}`, core.SignalingUnauthorized, "invalid token"},
		{"forbidden", http.StatusForbidden, `{"code":"FORBIDDEN","message":"nope"}`, core.SignalingUnauthorized, "nope"},
		{"not found", http.StatusNotFound, `{"error":"room not found"}`, core.SignalingNotFound, "room not found"},
		{"quota", http.StatusTooManyRequests, `{"error":"rate limit exceeded"}`, core.SignalingQuotaExceeded, "rate limit exceeded"},
		{"server error", http.StatusInternalServerError, `not json`, core.SignalingUnknown, "Internal Server Error"},
		{"bad request", http.StatusBadRequest, `{"error":"roomId is required"}`, core.SignalingUnknown, "roomId is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).Status(context.Background(), "r1")
			var se *core.SignalingError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "status", se.Op)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.msg, se.Message)
		})
	}
}

func TestTransportErrorIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := signal.NewClient(signal.Config{BaseURL: url}).Leave(context.Background(), "r1", "me")
	var se *core.SignalingError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, core.SignalingUnknown, se.Kind)
	assert.Zero(t, se.Status)
	assert.NotNil(t, se.Err)
}

func TestMalformedBodyIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"participants": "nope"`))
	}))
	defer srv.Close()

	_, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).Status(context.Background(), "r1")
	assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
}

func TestBearerToken(t *testing.T) {
	relay := signaltest.New(signaltest.WithToken("secret"))

	_, err := newClient(t, relay, "wrong").Join(context.Background(), "r1")
	assert.Equal(t, core.SignalingUnauthorized, core.SignalingKindOf(err))

	_, err = newClient(t, relay, "").Join(context.Background(), "r1")
	assert.Equal(t, core.SignalingUnauthorized, core.SignalingKindOf(err))

	_, err = newClient(t, relay, "secret").Join(context.Background(), "r1")
	assert.NoError(t, err)
}

func TestOfferRoundTrip(t *testing.T) {
	var got webrtc.SessionDescription
	relay := signaltest.New(signaltest.WithAnswerer(func(room domain.RoomID, from domain.UserID, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
		assert.Equal(t, domain.RoomID("r1"), room)
		assert.Equal(t, domain.UserID("me"), from)
		got = offer
		return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
	}))
	c := newClient(t, relay, "")

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
	answer, err := c.SendOffer(context.Background(), "r1", "me", offer)
	require.NoError(t, err)
	assert.Equal(t, offer, got)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Equal(t, "v=0 answer", answer.SDP)

	sent := relay.Offers("r1", "me")
	require.Len(t, sent, 1)
	var wire webrtc.SessionDescription
	require.NoError(t, json.Unmarshal([]byte(sent[0]), &wire))
	assert.Equal(t, offer, wire)
}

func TestOfferAcceptsRawSDPAnswer(t *testing.T) {
	c := newClient(t, signaltest.New(), "")
	answer, err := c.SendOffer(context.Background(), "r1", "me", webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"})
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Equal(t, signaltest.PlaceholderSDP, answer.SDP+"\n")
}

func TestOfferRejectsBadAnswers(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      `{"sdp":""}`,
		"offer type": `{"sdp":"{\"type\":\"offer\",\"sdp\":\"v=0\"}"}`,
		"no sdp":     `{"sdp":"{\"type\":\"answer\"}"}`,
		"broken":     `{"sdp":"{\"type\":"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).SendOffer(context.Background(), "r1", "me",
				webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"})
			assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
		})
	}
}

func TestCandidatesAreSentAsJSON(t *testing.T) {
	relay := signaltest.New()
	c := newClient(t, relay, "")
	mid := "0"
	idx := uint16(0)
	cand := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: &mid, SDPMLineIndex: &idx}

	require.NoError(t, c.SendCandidate(context.Background(), "r1", "me", cand))

	sent := relay.Candidates("r1", "me")
	require.Len(t, sent, 1)
	var wire webrtc.ICECandidateInit
	require.NoError(t, json.Unmarshal([]byte(sent[0]), &wire))
	assert.Equal(t, cand.Candidate, wire.Candidate)
	require.NotNil(t, wire.SDPMid)
	assert.Equal(t, "0", *wire.SDPMid)
}

func TestQuotaExceeded(t *testing.T) {
	relay := signaltest.New(signaltest.WithQuota(signaltest.NewQuota(2, time.Minute)))
	c := newClient(t, relay, "")
	cand := webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host"}

	require.NoError(t, c.SendCandidate(context.Background(), "r1", "me", cand))
	require.NoError(t, c.SendCandidate(context.Background(), "r1", "me", cand))
	err := c.SendCandidate(context.Background(), "r1", "me", cand)
	assert.Equal(t, core.SignalingQuotaExceeded, core.SignalingKindOf(err))

	// other users have their own window
	assert.NoError(t, c.SendCandidate(context.Background(), "r1", "you", cand))
}

func TestInjectedFailure(t *testing.T) {
	relay := signaltest.New()
	relay.Put("r1", "a", domain.StatusOnline)
	relay.FailNext("/room/status", 1)
	c := newClient(t, relay, "")

	_, err := c.Status(context.Background(), "r1")
	assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
	_, err = c.Status(context.Background(), "r1")
	assert.NoError(t, err)
}

func TestUnknownRoomStatus(t *testing.T) {
	_, err := newClient(t, signaltest.New(), "").Status(context.Background(), "missing")
	assert.Equal(t, core.SignalingNotFound, core.SignalingKindOf(err))
}

func TestCancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := signal.NewClient(signal.Config{BaseURL: srv.URL}).Status(ctx, "r1")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, core.SignalingUnknown, core.SignalingKindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("request did not stop on cancel")
	}
}
