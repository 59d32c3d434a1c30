// Package wsclient is the board client's push channel: one websocket to
// the backend, redialed until the context ends. The last join_room is
// replayed after every reconnect so the backend puts the connection back
// into the room.
package wsclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/protocol"
)

var ErrBackpressure = errors.New("backpressure")

var _ client.PushChannel = (*Client)(nil)

type Options struct {
	URL            string
	ReconnectDelay time.Duration
	PingPeriod     time.Duration
	Header         http.Header
	// Jar, when set, supplies the backend's client-token cookie on dial.
	Jar http.CookieJar
}

type Client struct {
	opts   Options
	dialer *websocket.Dialer
	send   chan []byte

	mu        sync.Mutex
	handlers  map[uint64]func(protocol.Event)
	nextID    uint64
	lastJoin  *protocol.JoinRoom
	connected bool
	// served is set once a connection came up; only later ones replay.
	served    bool
}

func New(opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 25 * time.Second
	}
	return &Client{
		opts:     opts,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Jar: opts.Jar},
		send:     make(chan []byte, 32),
		handlers: make(map[uint64]func(protocol.Event)),
	}
}

// Subscribe registers fn for every decoded event. The returned func
// removes it and is safe to call twice.
func (c *Client) Subscribe(fn func(protocol.Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

// Emit queues m for the current or next connection.
func (c *Client) Emit(m protocol.Message) error {
	data, err := protocol.EncodeMessage(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	switch v := m.(type) {
	case protocol.JoinRoom:
		c.lastJoin = &v
	case protocol.LeaveRoom, protocol.ForceLeaveAll:
		c.lastJoin = nil
	}
	c.mu.Unlock()

	select {
	case c.send <- data:
		return nil
	default:
		log.Warn().Str("module", "wsclient").Str("type", m.MessageType()).Msg("send queue full")
		return ErrBackpressure
	}
}

// Connected reports whether a websocket is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run dials and serves until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connectAndServe(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("module", "wsclient").Str("url", c.opts.URL).Msg("push channel down, redialing")
		}
		t := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Info().Str("module", "wsclient").Msg("push channel stopped")
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) connectAndServe(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
	if err != nil {
		return err
	}
	log.Info().Str("module", "wsclient").Str("url", c.opts.URL).Msg("push channel connected")

	c.mu.Lock()
	c.connected = true
	var replay *protocol.JoinRoom
	if c.served {
		replay = c.lastJoin
	}
	c.served = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	if replay != nil {
		data, err := protocol.EncodeMessage(*replay)
		if err == nil {
			err = c.write(conn, data)
		}
		if err != nil {
			_ = conn.Close()
			return err
		}
		log.Debug().Str("module", "wsclient").Str("room", string(replay.RoomCode)).Msg("replayed join after reconnect")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})
	g.Go(func() error { return c.writePump(gctx, conn) })
	g.Go(func() error { return c.readPump(conn) })
	return g.Wait()
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn) error {
	ping := time.NewTicker(c.opts.PingPeriod)
	defer ping.Stop()
	pingFrame, _ := protocol.EncodeMessage(protocol.Ping{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.send:
			if err := c.write(conn, data); err != nil {
				return err
			}
		case <-ping.C:
			if err := c.write(conn, pingFrame); err != nil {
				return err
			}
		}
	}
}

func (c *Client) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := protocol.DecodeEvent(data)
		if err != nil {
			log.Debug().Err(err).Str("module", "wsclient").Msg("skipping frame")
			continue
		}
		if e, ok := ev.(protocol.Error); ok {
			log.Warn().Str("module", "wsclient").Str("error", e.Error).Msg("backend reported an error")
		}
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev protocol.Event) {
	c.mu.Lock()
	hs := make([]func(protocol.Event), 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}
