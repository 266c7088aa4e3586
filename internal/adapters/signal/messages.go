package signal

import (
	"github.com/dkeye/Mesh/internal/domain"
)

type joinRequest struct {
	RoomID string `json:"roomId"`
}

// joinResponse accepts the self id under either spelling the backend has used.
type joinResponse struct {
	UserID       string               `json:"userId"`
	UserIDSnake  string               `json:"user_id"`
	Status       string               `json:"status"`
	Participants []domain.Participant `json:"participants"`
}

func (r joinResponse) selfID() domain.UserID {
	if r.UserID != "" {
		return domain.UserID(r.UserID)
	}
	return domain.UserID(r.UserIDSnake)
}

type leaveRequest struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type statusResponse struct {
	Status       string               `json:"status"`
	Participants []domain.Participant `json:"participants"`
}

type offerRequest struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	SDP    string `json:"sdp"`
}

type offerResponse struct {
	SDP string `json:"sdp"`
}

type candidateRequest struct {
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Candidate string `json:"candidate"`
}

// errorResponse covers both error body shapes: {"error"} and {"code","message"}.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (e errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
