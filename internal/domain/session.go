package domain

// ViewBoard is the persisted view marker of the in-room view. Only a
// session saved with this marker is eligible for resume.
const ViewBoard = "board"

// Session is the local binding of a client to a room.
type Session struct {
	RoomCode  RoomCode
	GuestName GuestName
	IsHost    bool
}

func (s Session) IsZero() bool { return s.RoomCode == "" && s.GuestName == "" }
