package domain

type ParticipantStatus string

const (
	StatusOnline  ParticipantStatus = "ONLINE"
	StatusOffline ParticipantStatus = "OFFLINE"
)

type Participant struct {
	ID     UserID            `json:"id"`
	Status ParticipantStatus `json:"status"`
}

func (p Participant) Online() bool { return p.Status == StatusOnline }

// Roster is one snapshot of the room membership as reported by the directory.
// It is recomputed on every poll and never persisted.
type Roster []Participant

// Remotes returns the ids of every ONLINE participant other than self,
// in roster order and without duplicates.
func (r Roster) Remotes(self UserID) []UserID {
	out := make([]UserID, 0, len(r))
	seen := make(map[UserID]struct{}, len(r))
	for _, p := range r {
		if p.ID == self || !p.Online() {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p.ID)
	}
	return out
}

// OnlineSet is Remotes as a set.
func (r Roster) OnlineSet(self UserID) map[UserID]struct{} {
	ids := r.Remotes(self)
	set := make(map[UserID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	copy(out, r)
	return out
}
