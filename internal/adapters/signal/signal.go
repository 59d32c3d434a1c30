// Package signal serves the push channel: one websocket per client, frames
// in the {"type","data"} envelope.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/app/orch"
	"github.com/dkeye/HelpWave/internal/core"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/metrics"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const (
	defaultReadLimit  = 32 << 10
	defaultPingPeriod = 54 * time.Second
	writeWait         = 5 * time.Second
	sendBuffer        = 32
)

// RoomLookup tells the controller whether a room code was ever created.
type RoomLookup interface {
	RoomExists(ctx context.Context, code domain.RoomCode) (bool, error)
}

type SignalWSController struct {
	Orch       *orch.Orchestrator
	Rooms      RoomLookup
	Metrics    *metrics.Metrics
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(o *orch.Orchestrator, rooms RoomLookup, m *metrics.Metrics) *SignalWSController {
	return &SignalWSController{
		Orch:       o,
		Rooms:      rooms,
		Metrics:    m,
		ReadLimit:  defaultReadLimit,
		PingPeriod: defaultPingPeriod,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and serves the connection until either
// side closes it or ctx ends. Every connection gets its own sid; the
// client token only ties it to the browser or CLI that opened it.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", token).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, sendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, token, conn, cancel)
	ctl.Metrics.ConnectionOpened()

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
