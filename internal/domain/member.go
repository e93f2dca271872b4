package domain

import "time"

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Identity Identity
	Room     RoomName
	JoinedAt time.Time
}

func NewMember(identity Identity, room RoomName) *Member {
	return &Member{Identity: identity, Room: room, JoinedAt: time.Now().UTC()}
}
