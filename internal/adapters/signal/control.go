package signal

import (
	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/protocol"
)

func (ctl *SignalWSController) handlePing(sid core.SessionID) {
	ctl.Orch.SendTo(sid, protocol.Pong{})
}
