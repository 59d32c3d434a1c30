package orch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/app"
	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/metrics"
	"github.com/dkeye/HelpWave/internal/protocol"
)

var (
	ErrNotInRoom = errors.New("not in this room")
	ErrNotHost   = errors.New("only the host can end the room")
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Metrics  *metrics.Metrics

	// serializes membership changes so an emptied roster is never
	// dropped while someone joins it
	mu sync.Mutex
}

// Publish fans ev out to everyone currently in the room.
func (o *Orchestrator) Publish(code domain.RoomCode, ev protocol.Event) {
	o.publishFrom("", code, ev)
}

func (o *Orchestrator) publishFrom(from core.SessionID, code domain.RoomCode, ev protocol.Event) {
	room, ok := o.Rooms.Get(code)
	if !ok {
		return
	}
	data, err := protocol.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", ev.EventType()).Msg("encode event")
		return
	}
	res := room.Broadcast(from, data)
	o.Metrics.EventPublished(ev.EventType())
	o.Metrics.FramesDropped(len(res.Dropped))
	o.applyPolicy(room, res)
}

// SendTo delivers ev to a single connection.
func (o *Orchestrator) SendTo(sid core.SessionID, ev protocol.Event) {
	conn, ok := o.Registry.Signal(sid)
	if !ok {
		return
	}
	data, err := protocol.EncodeEvent(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", ev.EventType()).Msg("encode event")
		return
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("direct send failed")
	}
}

func (o *Orchestrator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.Code())).Str("sid", string(slow)).Msg("kicking slow member")
			o.Kick(slow)
		case app.DropFrame, app.NoAction:
		}
	}
}

// Kick closes the connection; the disconnect path does the leave.
func (o *Orchestrator) Kick(sid core.SessionID) {
	o.Registry.Cancel(sid)
}
