package app

import "github.com/dkeye/Mesh/internal/domain"

// Policy decides how a lost session is re-driven. Sessions never retry on
// their own; the return value is the number of reconcile cycles during which
// the participant is skipped before a new offer may be sent.
type Policy interface {
	OnSessionLost(peer domain.UserID, cause error) (skipCycles int)
}

// SimplePolicy re-offers on the next reconcile that still sees the peer ONLINE.
type SimplePolicy struct{}

func (SimplePolicy) OnSessionLost(domain.UserID, error) int { return 0 }

// CooldownPolicy holds a lost peer off for a fixed number of cycles to avoid
// connection storms against a peer that keeps failing.
type CooldownPolicy struct {
	Cycles int
}

func (p CooldownPolicy) OnSessionLost(domain.UserID, error) int {
	if p.Cycles < 0 {
		return 0
	}
	return p.Cycles
}

// PolicyFor maps the configured cooldown to a Policy.
func PolicyFor(cooldownCycles int) Policy {
	if cooldownCycles <= 0 {
		return SimplePolicy{}
	}
	return CooldownPolicy{Cycles: cooldownCycles}
}
