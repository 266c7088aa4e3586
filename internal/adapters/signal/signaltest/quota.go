package signaltest

import (
	"sync"
	"time"

	"github.com/dkeye/Mesh/internal/domain"
)

// Quota is a sliding-window request limit per user.
type Quota struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewQuota(limit int, interval time.Duration) *Quota {
	return &Quota{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (q *Quota) Allow(uid domain.UserID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	windowStart := now.Add(-q.interval)

	attempts := q.history[uid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= q.limit {
		q.history[uid] = fresh
		return false
	}

	q.history[uid] = append(fresh, now)
	return true
}
