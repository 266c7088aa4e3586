// Package signaltest is an in-memory room directory and signaling relay
// served over gin, for exercising the HTTP client end to end.
package signaltest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/dkeye/Mesh/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// PlaceholderSDP is what the relay answers with when no Answerer is set.
const PlaceholderSDP = "v=0\no=- 0 0 IN IP4 127.0.0.1\ns=-\nt=0 0\n"

// Answerer produces the counterpart's answer for an offer from a participant.
type Answerer func(room domain.RoomID, from domain.UserID, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)

type Option func(*Relay)

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(r *Relay) { r.token = token }
}

// WithQuota limits offers and candidates per user.
func WithQuota(q *Quota) Option {
	return func(r *Relay) { r.quota = q }
}

func WithAnswerer(a Answerer) Option {
	return func(r *Relay) { r.answer = a }
}

// CandidateSink receives every relayed candidate, decoded.
type CandidateSink func(room domain.RoomID, from domain.UserID, candidate webrtc.ICECandidateInit)

func WithCandidateSink(sink CandidateSink) Option {
	return func(r *Relay) { r.sink = sink }
}

type key struct {
	room domain.RoomID
	user domain.UserID
}

type Relay struct {
	token  string
	quota  *Quota
	answer Answerer
	sink   CandidateSink
	engine *gin.Engine

	mu         sync.Mutex
	rooms      map[domain.RoomID]domain.Roster
	offers     map[key][]string
	candidates map[key][]string
	failures   map[string]int
}

func New(opts ...Option) *Relay {
	r := &Relay{
		rooms:      make(map[domain.RoomID]domain.Roster),
		offers:     make(map[key][]string),
		candidates: make(map[key][]string),
		failures:   make(map[string]int),
	}
	for _, o := range opts {
		o(r)
	}

	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(gin.Recovery())

	api := e.Group("/api")
	api.Use(r.auth())
	api.POST("/room/join", r.join)
	api.POST("/room/leave", r.leave)
	api.GET("/room/status", r.status)
	api.POST("/media/offer", r.offer)
	api.POST("/media/iceCandidate", r.candidate)
	r.engine = e
	return r
}

func (r *Relay) Handler() http.Handler { return r.engine }

// FailNext makes the next n requests to path answer with status.
func (r *Relay) FailNext(path string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[path] = n
}

// Put adds or updates a participant.
func (r *Relay) Put(room domain.RoomID, id domain.UserID, status domain.ParticipantStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(room, domain.Participant{ID: id, Status: status})
}

func (r *Relay) putLocked(room domain.RoomID, p domain.Participant) {
	roster := r.rooms[room]
	for i := range roster {
		if roster[i].ID == p.ID {
			roster[i].Status = p.Status
			return
		}
	}
	r.rooms[room] = append(roster, p)
}

func (r *Relay) Roster(room domain.RoomID) domain.Roster {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[room].Clone()
}

func (r *Relay) Offers(room domain.RoomID, from domain.UserID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.offers[key{room, from}]...)
}

func (r *Relay) Candidates(room domain.RoomID, from domain.UserID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.candidates[key{room, from}]...)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"request_id": uuid.NewString(),
	})
}

func (r *Relay) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.mu.Lock()
		path := strings.TrimPrefix(c.FullPath(), "/api")
		n := r.failures[path]
		if n > 0 {
			r.failures[path] = n - 1
		}
		r.mu.Unlock()
		if n > 0 {
			abort(c, http.StatusInternalServerError, "injected failure")
			return
		}

		if r.token == "" {
			c.Next()
			return
		}
		parts := strings.Split(c.GetHeader("Authorization"), " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] != r.token {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Next()
	}
}

func (r *Relay) join(c *gin.Context) {
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" {
		abort(c, http.StatusBadRequest, "roomId is required")
		return
	}
	room := domain.RoomID(req.RoomID)
	self := domain.UserID(uuid.NewString())

	r.mu.Lock()
	r.putLocked(room, domain.Participant{ID: self, Status: domain.StatusOnline})
	roster := r.rooms[room].Clone()
	r.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":       "CONNECTED",
		"participants": roster,
		"user_id":      self,
	})
}

func (r *Relay) leave(c *gin.Context) {
	var req struct {
		RoomID string `json:"roomId"`
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	room := domain.RoomID(req.RoomID)

	r.mu.Lock()
	_, known := r.rooms[room]
	if known {
		r.putLocked(room, domain.Participant{ID: domain.UserID(req.UserID), Status: domain.StatusOffline})
	}
	r.mu.Unlock()

	if !known {
		abort(c, http.StatusNotFound, "room not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (r *Relay) status(c *gin.Context) {
	room := domain.RoomID(c.Query("roomId"))
	if room == "" {
		abort(c, http.StatusBadRequest, "roomId query parameter is required")
		return
	}
	r.mu.Lock()
	roster, known := r.rooms[room]
	roster = roster.Clone()
	r.mu.Unlock()
	if !known {
		abort(c, http.StatusNotFound, "room not found")
		return
	}
	if roster == nil {
		roster = domain.Roster{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "CONNECTED", "participants": roster})
}

type mediaRequest struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	SDP       string `json:"sdp"`
	Candidate string `json:"candidate"`
}

func (r *Relay) bindMedia(c *gin.Context) (mediaRequest, bool) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.UserID == "" {
		abort(c, http.StatusBadRequest, "roomId and userId are required")
		return req, false
	}
	if r.quota != nil && !r.quota.Allow(domain.UserID(req.UserID)) {
		abort(c, http.StatusTooManyRequests, "rate limit exceeded")
		return req, false
	}
	return req, true
}

func (r *Relay) offer(c *gin.Context) {
	req, ok := r.bindMedia(c)
	if !ok {
		return
	}
	room, from := domain.RoomID(req.RoomID), domain.UserID(req.UserID)

	r.mu.Lock()
	r.offers[key{room, from}] = append(r.offers[key{room, from}], req.SDP)
	r.mu.Unlock()

	if r.answer == nil {
		c.JSON(http.StatusOK, gin.H{"sdp": PlaceholderSDP})
		return
	}

	var offer webrtc.SessionDescription
	if err := json.Unmarshal([]byte(req.SDP), &offer); err != nil {
		abort(c, http.StatusBadRequest, "sdp is not a session description")
		return
	}
	answer, err := r.answer(room, from, offer)
	if err != nil {
		abort(c, http.StatusBadGateway, err.Error())
		return
	}
	blob, err := json.Marshal(answer)
	if err != nil {
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"sdp": string(blob)})
}

func (r *Relay) candidate(c *gin.Context) {
	req, ok := r.bindMedia(c)
	if !ok {
		return
	}
	if req.Candidate == "" {
		abort(c, http.StatusBadRequest, "candidate is required")
		return
	}
	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(req.Candidate), &cand); err != nil {
		abort(c, http.StatusBadRequest, "candidate is not a candidate init")
		return
	}
	k := key{domain.RoomID(req.RoomID), domain.UserID(req.UserID)}
	r.mu.Lock()
	r.candidates[k] = append(r.candidates[k], req.Candidate)
	r.mu.Unlock()
	if r.sink != nil {
		r.sink(k.room, k.user, cand)
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
