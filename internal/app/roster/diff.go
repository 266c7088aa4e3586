// Package roster turns periodic directory snapshots into session work.
package roster

import "github.com/dkeye/Mesh/internal/domain"

// Diff compares a roster snapshot with the participants that currently have
// a session. create lists ONLINE remotes without a session, in roster order;
// remove lists tracked participants that are gone or OFFLINE, in tracked order.
func Diff(r domain.Roster, tracked []domain.UserID, self domain.UserID) (create, remove []domain.UserID) {
	online := r.OnlineSet(self)
	have := make(map[domain.UserID]struct{}, len(tracked))
	for _, id := range tracked {
		have[id] = struct{}{}
		if _, ok := online[id]; !ok {
			remove = append(remove, id)
		}
	}
	for _, id := range r.Remotes(self) {
		if _, ok := have[id]; !ok {
			create = append(create, id)
		}
	}
	return create, remove
}
