package client

import (
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

// RoomState is everything push events may change on the client.
type RoomState struct {
	Items       *Repository
	MemberCount int
	Host        domain.GuestName
}

// Effect tells the controller what session-level action an event calls for.
type Effect int

const (
	EffectNone Effect = iota
	// EffectPromoted: the local member became host.
	EffectPromoted
	// EffectTerminated: the host ended the room for everyone.
	EffectTerminated
)

// Apply reduces one push event onto the state. Events that reference an
// unknown item id are silent no-ops and every event is idempotent.
func Apply(st *RoomState, self domain.GuestName, ev protocol.Event) Effect {
	switch e := ev.(type) {
	case protocol.ItemCreated:
		st.Items.Prepend(e.Item)
	case protocol.ItemReplied:
		st.Items.AppendReply(e.ItemID, e.Reply)
	case protocol.ItemResolved:
		st.Items.Resolve(e.ItemID)
	case protocol.ItemFlagged:
		st.Items.Flag(e.ItemID)
	case protocol.MemberUpdate:
		st.MemberCount = e.Count
	case protocol.HostChanged:
		st.Host = e.NewHost
		if self != "" && e.NewHost == self {
			return EffectPromoted
		}
	case protocol.ForceLeaveAll:
		return EffectTerminated
	}
	return EffectNone
}
