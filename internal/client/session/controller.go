// Package session drives a board client through its views: entry, the
// create/join forms and the room itself. All state lives on one event loop
// goroutine; network calls run on the caller's goroutine and post their
// results back, tagged with the epoch they were issued in.
package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
)

var ErrStopped = errors.New("session controller stopped")

type State int

const (
	StateEntry State = iota
	StateCreateForm
	StateJoinForm
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateEntry:
		return "entry"
	case StateCreateForm:
		return "create"
	case StateJoinForm:
		return "join"
	case StateInRoom:
		return "board"
	default:
		return "unknown"
	}
}

type NoticeKind int

const (
	NoticeHostEnded NoticeKind = iota + 1
	NoticePromoted
)

// Notice is a server-driven message the user must acknowledge once.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// View is a read-only snapshot for the presentation layer.
type View struct {
	State       State
	RoomCode    domain.RoomCode
	GuestName   domain.GuestName
	IsHost      bool
	MemberCount int
	Host        domain.GuestName
	Open        []domain.Item
	Resolved    []domain.Item
}

type Controller struct {
	dir   client.Directory
	push  client.PushChannel
	store client.SessionStore

	tasks   chan func()
	notices chan Notice
	updates chan struct{}
	done    chan struct{}

	// owned by the loop
	state       State
	session     domain.Session
	room        client.RoomState
	epoch       uint64
	unsubscribe func()
}

func New(dir client.Directory, push client.PushChannel, store client.SessionStore) *Controller {
	return &Controller{
		dir:     dir,
		push:    push,
		store:   store,
		tasks:   make(chan func(), 64),
		notices: make(chan Notice, 8),
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
		room:    client.RoomState{Items: client.NewRepository()},
	}
}

// Start launches the event loop, which runs until ctx is done, and then
// resumes a stored session, if any, before returning.
func (c *Controller) Start(ctx context.Context) error {
	go c.loop(ctx)
	return c.Resume(ctx)
}

// Done is closed once the event loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Notices delivers one-time notices: room ended by host, promotion to host.
func (c *Controller) Notices() <-chan Notice { return c.notices }

// Updates signals that View() changed. Signals coalesce.
func (c *Controller) Updates() <-chan struct{} { return c.updates }

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			// The stored session is kept so the next start can resume.
			if c.unsubscribe != nil {
				c.unsubscribe()
				c.unsubscribe = nil
			}
			log.Info().Str("module", "client.session").Msg("event loop stopped")
			return
		case fn := <-c.tasks:
			fn()
		}
	}
}

// do runs fn on the loop and waits for it.
func (c *Controller) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case c.tasks <- func() { fn(); close(ran) }:
	case <-c.done:
		return ErrStopped
	}
	select {
	case <-ran:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// post queues fn without waiting.
func (c *Controller) post(fn func()) {
	select {
	case c.tasks <- fn:
	case <-c.done:
	}
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) pushNotice(n Notice) {
	select {
	case c.notices <- n:
	default:
		log.Warn().Str("module", "client.session").Str("notice", n.Message).Msg("notice dropped, nobody is reading")
	}
}

// View returns a copy of everything the presentation layer may render.
func (c *Controller) View() View {
	var v View
	_ = c.do(func() {
		v = View{
			State:       c.state,
			RoomCode:    c.session.RoomCode,
			GuestName:   c.session.GuestName,
			IsHost:      c.session.IsHost,
			MemberCount: c.room.MemberCount,
			Host:        c.room.Host,
		}
		if c.state == StateInRoom {
			v.Open = c.room.Items.Open()
			v.Resolved = c.room.Items.Resolved()
		}
	})
	return v
}

func (c *Controller) OpenCreateForm() error { return c.transition(StateEntry, StateCreateForm) }

func (c *Controller) OpenJoinForm() error { return c.transition(StateEntry, StateJoinForm) }

func (c *Controller) transition(from, to State) error {
	var err error
	if stopErr := c.do(func() {
		if c.state != from {
			err = client.ErrInvalidTransition
			return
		}
		if c.unsubscribe != nil {
			// A resume is still in flight.
			c.abandonLocked()
		} else {
			c.epoch++
		}
		c.state = to
		c.notify()
	}); stopErr != nil {
		return stopErr
	}
	return err
}

// Back returns from a form to the entry view, abandoning any room entry
// still in flight.
func (c *Controller) Back() error {
	var err error
	if stopErr := c.do(func() {
		if c.state != StateCreateForm && c.state != StateJoinForm {
			err = client.ErrInvalidTransition
			return
		}
		c.abandonLocked()
		c.state = StateEntry
		c.notify()
	}); stopErr != nil {
		return stopErr
	}
	return err
}

// current reports whether epoch is still the live one.
func (c *Controller) current(epoch uint64) bool {
	live := false
	_ = c.do(func() { live = c.epoch == epoch })
	return live
}
