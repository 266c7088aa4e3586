package peer

import "fmt"

type State int

const (
	StateNew State = iota
	StateOfferSent
	StateNegotiating
	StateConnected
	StateDisconnected
	StateFailed
	StateClosed
)

var stateNames = [...]string{
	StateNew:          "NEW",
	StateOfferSent:    "OFFER_SENT",
	StateNegotiating:  "NEGOTIATING",
	StateConnected:    "CONNECTED",
	StateDisconnected: "DISCONNECTED",
	StateFailed:       "FAILED",
	StateClosed:       "CLOSED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Lost reports whether the session can no longer carry media.
func (s State) Lost() bool {
	return s == StateDisconnected || s == StateFailed || s == StateClosed
}

var transitions = map[State][]State{
	StateNew:          {StateOfferSent, StateFailed, StateClosed},
	StateOfferSent:    {StateNegotiating, StateFailed, StateClosed},
	StateNegotiating:  {StateConnected, StateDisconnected, StateFailed, StateClosed},
	StateConnected:    {StateDisconnected, StateFailed, StateClosed},
	StateDisconnected: {StateFailed, StateClosed},
	StateFailed:       {StateClosed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
