package core

import (
	"errors"
	"fmt"

	"github.com/dkeye/Mesh/internal/domain"
)

type MediaErrorKind string

const (
	MediaPermissionDenied MediaErrorKind = "permission_denied"
	MediaDeviceNotFound   MediaErrorKind = "device_not_found"
	MediaDeviceBusy       MediaErrorKind = "device_busy"
	MediaUnknown          MediaErrorKind = "unknown"
)

// MediaAcquisitionError aborts a join attempt.
type MediaAcquisitionError struct {
	Kind MediaErrorKind
	Err  error
}

func (e *MediaAcquisitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("acquire media: %s", e.Kind)
	}
	return fmt.Sprintf("acquire media: %s: %v", e.Kind, e.Err)
}

func (e *MediaAcquisitionError) Unwrap() error { return e.Err }

type SignalingErrorKind string

const (
	SignalingUnauthorized  SignalingErrorKind = "unauthorized"
	SignalingNotFound      SignalingErrorKind = "not_found"
	SignalingQuotaExceeded SignalingErrorKind = "quota_exceeded"
	SignalingUnknown       SignalingErrorKind = "unknown"
)

// SignalingError is any failed request against the directory or relay.
type SignalingError struct {
	Op      string
	Kind    SignalingErrorKind
	Status  int
	Message string
	Err     error
}

func (e *SignalingError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *SignalingError) Unwrap() error { return e.Err }

type SessionErrorReason string

const (
	NegotiationFailed SessionErrorReason = "negotiation_failed"
	TransportFailed   SessionErrorReason = "transport_failed"
)

// SessionError is the reason attached to a Peer Session entering FAILED.
type SessionError struct {
	Peer   domain.UserID
	Reason SessionErrorReason
	Err    error
}

func (e *SessionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("session %s: %s", e.Peer, e.Reason)
	}
	return fmt.Sprintf("session %s: %s: %v", e.Peer, e.Reason, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// MediaKindOf returns the acquisition error kind in err's chain, or "".
func MediaKindOf(err error) MediaErrorKind {
	var me *MediaAcquisitionError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// SignalingKindOf returns the signaling error kind in err's chain, or "".
func SignalingKindOf(err error) SignalingErrorKind {
	var se *SignalingError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// SessionReasonOf returns the session failure reason in err's chain, or "".
func SessionReasonOf(err error) SessionErrorReason {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}
