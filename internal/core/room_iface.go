package core

import (
	"github.com/dkeye/HelpWave/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// Departure describes what a removal did to the room.
type Departure struct {
	Removed  bool
	WasHost  bool
	NewHost  domain.GuestName
	Promoted bool
}

// RoomService is the live roster of one room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Code() domain.RoomCode
	MemberCount() int
	// Members lists guest names in join order.
	Members() []domain.GuestName
	Host() domain.GuestName
	IsHost(sid SessionID) bool

	// AddMember returns false if sid is already in the room. The first
	// member of an empty room becomes host; the bool result reports it.
	AddMember(sid SessionID, ms MemberSession) (added, host bool)
	RemoveMember(sid SessionID) Departure
	// Clear empties the roster and returns who was in it.
	Clear() []SessionID
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Code        domain.RoomCode  `json:"code"`
	MemberCount int              `json:"member_count"`
	Host        domain.GuestName `json:"host,omitempty"`
}

type RoomManager interface {
	GetOrCreate(code domain.RoomCode) RoomService
	Get(code domain.RoomCode) (RoomService, bool)
	List() []RoomInfo
	StopRoom(code domain.RoomCode)
}
