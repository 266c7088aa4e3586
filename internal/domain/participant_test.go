package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterRemotes(t *testing.T) {
	r := Roster{
		{ID: "a", Status: StatusOnline},
		{ID: "b", Status: StatusOnline},
		{ID: "c", Status: StatusOffline},
		{ID: "b", Status: StatusOnline},
		{ID: "d", Status: StatusOnline},
	}

	assert.Equal(t, []UserID{"b", "d"}, r.Remotes("a"))
	assert.Len(t, r.OnlineSet("a"), 2)
	assert.Empty(t, Roster(nil).Remotes("a"))
}

func TestNewIDs(t *testing.T) {
	_, err := NewUserID("")
	require.ErrorIs(t, err, ErrUserIDEmpty)

	_, err = NewRoomID(string(make([]byte, MaxRoomIDLen+1)))
	require.ErrorIs(t, err, ErrRoomIDTooLong)

	id, err := NewRoomID("standup")
	require.NoError(t, err)
	assert.Equal(t, RoomID("standup"), id)
}
