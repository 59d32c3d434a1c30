package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/app/orch"
	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, sid core.SessionID, m protocol.JoinRoom) {
	name, err := domain.NewGuestName(string(m.GuestName))
	if err != nil {
		ctl.sendError(sid, "invalid guest name")
		return
	}
	code, err := domain.NormalizeRoomCode(string(m.RoomCode))
	if err != nil {
		ctl.sendError(sid, "invalid room code")
		return
	}

	ok, err := ctl.Rooms.RoomExists(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room", string(code)).Msg("room lookup failed")
		ctl.sendError(sid, "internal error")
		return
	}
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("room does not exist")
		ctl.sendError(sid, "room not found")
		return
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Str("guest", string(name)).Msg("join")
	ctl.Orch.Join(sid, code, name)
}

// handleLeave takes the member out of its room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID, m protocol.LeaveRoom) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(m.RoomCode)).Msg("leave")
	ctl.Orch.Leave(sid)
}

func (ctl *SignalWSController) handleForceLeaveAll(sid core.SessionID, m protocol.ForceLeaveAll) {
	code, err := domain.NormalizeRoomCode(string(m.RoomCode))
	if err != nil {
		if cur, _, ok := ctl.Orch.Registry.RoomOf(sid); ok {
			code = cur
		}
	}
	err = ctl.Orch.EndRoom(sid, code)
	switch {
	case errors.Is(err, orch.ErrNotHost), errors.Is(err, orch.ErrNotInRoom):
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", string(code)).Msg("force_leave_all refused")
		ctl.sendError(sid, err.Error())
	case err != nil:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("force_leave_all failed")
		ctl.sendError(sid, "internal error")
	}
}
