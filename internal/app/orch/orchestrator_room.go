package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

// Join puts sid into the roster of code. Joining the room it is already
// in is a no-op; joining another room leaves the current one first.
func (o *Orchestrator) Join(sid core.SessionID, code domain.RoomCode, guest domain.GuestName) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, _, ok := o.Registry.RoomOf(sid); ok {
		if cur == code {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("repeated join ignored")
			return
		}
		o.leaveLocked(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(cur)).Msg("left previous room")
	}

	conn, ok := o.Registry.Signal(sid)
	if !ok {
		return
	}
	sess := core.NewMemberSession(domain.NewMember(guest), conn)
	room := o.Rooms.GetOrCreate(code)
	_, host := room.AddMember(sid, sess)
	o.Registry.UpdateRoom(sid, code, sess)
	o.Metrics.SetLiveRooms(len(o.Rooms.List()))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("client", o.Registry.ClientToken(sid)).Str("room", string(code)).Str("guest", string(guest)).Msg("added to room")

	if host {
		o.Publish(code, protocol.HostChanged{NewHost: guest})
	}
	o.publishMembers(room)
}

// Leave removes sid from its room, migrating the host role if needed.
func (o *Orchestrator) Leave(sid core.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.leaveLocked(sid)
}

func (o *Orchestrator) leaveLocked(sid core.SessionID) {
	code, _, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Registry.RemoveRoom(sid)
	room, ok := o.Rooms.Get(code)
	if !ok {
		return
	}
	d := room.RemoveMember(sid)
	if !d.Removed {
		return
	}
	if room.MemberCount() == 0 {
		o.Rooms.StopRoom(code)
		o.Metrics.SetLiveRooms(len(o.Rooms.List()))
		log.Info().Str("module", "orch").Str("room", string(code)).Msg("roster empty, room idle")
		return
	}
	if d.Promoted {
		o.Publish(code, protocol.HostChanged{NewHost: d.NewHost})
	}
	o.publishMembers(room)
}

// EndRoom ends code for every member. Only the current host may do it.
func (o *Orchestrator) EndRoom(sid core.SessionID, code domain.RoomCode) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	cur, _, ok := o.Registry.RoomOf(sid)
	if !ok || cur != code {
		return ErrNotInRoom
	}
	room, ok := o.Rooms.Get(code)
	if !ok {
		return ErrNotInRoom
	}
	if !room.IsHost(sid) {
		return ErrNotHost
	}

	o.Publish(code, protocol.ForceLeaveAll{})
	for _, member := range room.Clear() {
		o.Registry.RemoveRoom(member)
	}
	o.Rooms.StopRoom(code)
	o.Metrics.SetLiveRooms(len(o.Rooms.List()))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(code)).Msg("room ended by host")
	return nil
}

// OnDisconnect treats a dropped connection as a leave.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Registry.Unbind(sid)
	if f, ok := o.Policy.(interface{ Forget(core.SessionID) }); ok {
		f.Forget(sid)
	}
}

func (o *Orchestrator) publishMembers(room core.RoomService) {
	members := room.Members()
	o.Publish(room.Code(), protocol.MemberUpdate{Count: len(members), Members: members})
}
