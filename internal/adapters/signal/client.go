package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkeye/Mesh/internal/core"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 30 * time.Second

	apiPrefix = "/api"
	// error bodies are read only this far
	maxErrorBody = 64 << 10
)

var errEmptyAnswer = errors.New("empty answer")

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
}

// Client talks to the room directory and the signaling relay over HTTP.
type Client struct {
	base  string
	token string
	http  *http.Client
	log   zerolog.Logger
}

var _ core.SignalingClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:  base + apiPrefix,
		token: cfg.Token,
		http:  hc,
		log:   log.With().Str("module", "signal").Logger(),
	}
}

func (c *Client) Join(ctx context.Context, room domain.RoomID) (core.JoinResult, error) {
	var resp joinResponse
	if err := c.do(ctx, "join", http.MethodPost, "/room/join", nil, joinRequest{RoomID: string(room)}, &resp); err != nil {
		return core.JoinResult{}, err
	}
	self, err := domain.NewUserID(string(resp.selfID()))
	if err != nil {
		return core.JoinResult{}, &core.SignalingError{Op: "join", Kind: core.SignalingUnknown, Err: err}
	}
	c.log.Info().Str("room", string(room)).Str("self", string(self)).Int("participants", len(resp.Participants)).Msg("joined")
	return core.JoinResult{
		SelfID: self,
		Status: resp.Status,
		Roster: domain.Roster(resp.Participants),
	}, nil
}

func (c *Client) Leave(ctx context.Context, room domain.RoomID, self domain.UserID) error {
	req := leaveRequest{RoomID: string(room), UserID: string(self)}
	if err := c.do(ctx, "leave", http.MethodPost, "/room/leave", nil, req, nil); err != nil {
		return err
	}
	c.log.Info().Str("room", string(room)).Str("self", string(self)).Msg("left")
	return nil
}

func (c *Client) Status(ctx context.Context, room domain.RoomID) (domain.Roster, error) {
	var resp statusResponse
	q := url.Values{"roomId": {string(room)}}
	if err := c.do(ctx, "status", http.MethodGet, "/room/status", q, nil, &resp); err != nil {
		return nil, err
	}
	return domain.Roster(resp.Participants), nil
}

// SendOffer posts the offer as the JSON of the session description and
// returns the answer. A bare SDP string is accepted as the answer too.
func (c *Client) SendOffer(ctx context.Context, room domain.RoomID, self domain.UserID, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	blob, err := json.Marshal(offer)
	if err != nil {
		return webrtc.SessionDescription{}, &core.SignalingError{Op: "offer", Kind: core.SignalingUnknown, Err: err}
	}
	var resp offerResponse
	req := offerRequest{RoomID: string(room), UserID: string(self), SDP: string(blob)}
	if err := c.do(ctx, "offer", http.MethodPost, "/media/offer", nil, req, &resp); err != nil {
		return webrtc.SessionDescription{}, err
	}
	answer, err := parseAnswer(resp.SDP)
	if err != nil {
		return webrtc.SessionDescription{}, &core.SignalingError{Op: "offer", Kind: core.SignalingUnknown, Err: err}
	}
	return answer, nil
}

func (c *Client) SendCandidate(ctx context.Context, room domain.RoomID, self domain.UserID, candidate webrtc.ICECandidateInit) error {
	blob, err := json.Marshal(candidate)
	if err != nil {
		return &core.SignalingError{Op: "candidate", Kind: core.SignalingUnknown, Err: err}
	}
	req := candidateRequest{RoomID: string(room), UserID: string(self), Candidate: string(blob)}
	return c.do(ctx, "candidate", http.MethodPost, "/media/iceCandidate", nil, req, nil)
}

func parseAnswer(raw string) (webrtc.SessionDescription, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return webrtc.SessionDescription{}, errEmptyAnswer
	}
	if strings.HasPrefix(raw, "{") {
		var sd webrtc.SessionDescription
		if err := json.Unmarshal([]byte(raw), &sd); err != nil {
			return webrtc.SessionDescription{}, fmt.Errorf("decode answer: %w", err)
		}
		if sd.SDP == "" {
			return webrtc.SessionDescription{}, errEmptyAnswer
		}
		if sd.Type != webrtc.SDPTypeAnswer && sd.Type != webrtc.SDPTypePranswer {
			return webrtc.SessionDescription{}, fmt.Errorf("unexpected description type %q", sd.Type)
		}
		return sd, nil
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: raw}, nil
}

// do sends one JSON request. Any failure, including transport and decode
// errors, comes back as a *core.SignalingError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &core.SignalingError{Op: op, Kind: core.SignalingUnknown, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &core.SignalingError{Op: op, Kind: core.SignalingUnknown, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &core.SignalingError{Op: op, Kind: core.SignalingUnknown, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &core.SignalingError{Op: op, Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			se.Message = er.text()
		}
		if se.Message == "" {
			se.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("error", se.Message).Msg("request failed")
		return se
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.SignalingError{Op: op, Kind: core.SignalingUnknown, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func kindForStatus(status int) core.SignalingErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.SignalingUnauthorized
	case http.StatusNotFound:
		return core.SignalingNotFound
	case http.StatusTooManyRequests:
		return core.SignalingQuotaExceeded
	}
	return core.SignalingUnknown
}
