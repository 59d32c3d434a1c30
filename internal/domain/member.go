package domain

import "time"

// Member represents a guest's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Name     GuestName
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(name GuestName) *Member {
	return &Member{Name: name, JoinedAt: time.Now()}
}
