package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

// Resume enters the stored room, if the store holds an eligible session.
func (c *Controller) Resume(ctx context.Context) error {
	var (
		s     domain.Session
		ok    bool
		epoch uint64
	)
	if err := c.do(func() {
		if c.state != StateEntry {
			return
		}
		s, ok = c.store.Load()
		epoch = c.epoch
	}); err != nil {
		return err
	}
	if !ok {
		return nil
	}
	log.Info().Str("module", "client.session").Str("room", string(s.RoomCode)).Str("guest", string(s.GuestName)).Bool("host", s.IsHost).Msg("resuming session")
	return c.enterRoom(ctx, epoch, s, true)
}

// SubmitCreate creates a room and enters it as host.
func (c *Controller) SubmitCreate(ctx context.Context, name string) error {
	guest, err := domain.NewGuestName(name)
	if err != nil {
		return &client.ValidationError{Field: "guest_name", Err: err}
	}
	epoch, err := c.formEpoch(StateCreateForm)
	if err != nil {
		return err
	}
	code, err := c.dir.CreateRoom(ctx, string(guest))
	if err != nil {
		return err
	}
	return c.enterRoom(ctx, epoch, domain.Session{RoomCode: code, GuestName: guest, IsHost: true}, false)
}

// SubmitJoin joins an existing room as a regular member. An unknown code
// leaves the controller in the join form.
func (c *Controller) SubmitJoin(ctx context.Context, name, code string) error {
	guest, err := domain.NewGuestName(name)
	if err != nil {
		return &client.ValidationError{Field: "guest_name", Err: err}
	}
	normalized, err := domain.NormalizeRoomCode(code)
	if err != nil {
		return &client.ValidationError{Field: "code", Err: err}
	}
	epoch, err := c.formEpoch(StateJoinForm)
	if err != nil {
		return err
	}
	canonical, err := c.dir.JoinRoom(ctx, string(guest), string(normalized))
	if err != nil {
		return err
	}
	return c.enterRoom(ctx, epoch, domain.Session{RoomCode: canonical, GuestName: guest}, false)
}

func (c *Controller) formEpoch(want State) (uint64, error) {
	var (
		epoch uint64
		err   error
	)
	if stopErr := c.do(func() {
		if c.state != want {
			err = client.ErrInvalidTransition
			return
		}
		epoch = c.epoch
	}); stopErr != nil {
		return 0, stopErr
	}
	return epoch, err
}

// enterRoom is the one way into a room, for fresh entries and resumes
// alike: subscribe and announce, fetch the snapshot, replace the
// repository, switch to the board and persist.
func (c *Controller) enterRoom(ctx context.Context, expect uint64, s domain.Session, resume bool) error {
	var (
		epoch uint64
		stale bool
	)
	if err := c.do(func() {
		if c.epoch != expect {
			stale = true
			return
		}
		c.epoch++
		epoch = c.epoch
		c.session = s
		c.resetRoomLocked()
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
		c.unsubscribe = c.push.Subscribe(func(ev protocol.Event) {
			c.post(func() { c.onEvent(epoch, ev) })
		})
		if err := c.push.Emit(protocol.JoinRoom{RoomCode: s.RoomCode, GuestName: s.GuestName}); err != nil {
			log.Warn().Err(err).Str("module", "client.session").Str("room", string(s.RoomCode)).Msg("join emission failed")
		}
	}); err != nil {
		return err
	}
	if stale {
		return client.ErrStale
	}

	items, fetchErr := c.dir.RoomItems(ctx, s.RoomCode)

	var result error
	if err := c.do(func() {
		if c.epoch != epoch {
			log.Debug().Str("module", "client.session").Str("room", string(s.RoomCode)).Msg("discarding stale snapshot")
			result = client.ErrStale
			return
		}
		if fetchErr != nil {
			c.abandonLocked()
			if resume && client.IsRejected(fetchErr) {
				c.store.Clear()
			}
			result = fetchErr
			return
		}
		c.room.Items.Replace(items)
		c.state = StateInRoom
		c.store.Save(c.session)
		c.notify()
		log.Info().Str("module", "client.session").Str("room", string(s.RoomCode)).Int("items", len(items)).Msg("entered room")
	}); err != nil {
		return err
	}
	return result
}

// Leave tears the room down locally. It always succeeds; the leave
// emission is best effort.
func (c *Controller) Leave() error {
	var err error
	if stopErr := c.do(func() {
		if c.state != StateInRoom {
			err = client.ErrNotInRoom
			return
		}
		c.teardownLocked()
		c.notify()
	}); stopErr != nil {
		return stopErr
	}
	return err
}

// EndRoomForAll asks the backend to end the room for every member, then
// leaves. The backend decides whether the request is authorized.
func (c *Controller) EndRoomForAll() error {
	var err error
	if stopErr := c.do(func() {
		if c.state != StateInRoom {
			err = client.ErrNotInRoom
			return
		}
		if !c.session.IsHost {
			err = client.ErrNotHost
			return
		}
		if emitErr := c.push.Emit(protocol.ForceLeaveAll{RoomCode: c.session.RoomCode}); emitErr != nil {
			log.Warn().Err(emitErr).Str("module", "client.session").Str("room", string(c.session.RoomCode)).Msg("force_leave_all emission failed")
		}
		c.teardownLocked()
		c.notify()
	}); stopErr != nil {
		return stopErr
	}
	return err
}

func (c *Controller) onEvent(epoch uint64, ev protocol.Event) {
	if epoch != c.epoch {
		log.Debug().Str("module", "client.session").Str("type", ev.EventType()).Msg("dropping event from an abandoned session")
		return
	}
	switch client.Apply(&c.room, c.session.GuestName, ev) {
	case client.EffectPromoted:
		if !c.session.IsHost {
			c.session.IsHost = true
			if c.state == StateInRoom {
				c.store.Save(c.session)
			}
			c.pushNotice(Notice{Kind: NoticePromoted, Message: "You are now the host"})
		}
	case client.EffectTerminated:
		log.Info().Str("module", "client.session").Str("room", string(c.session.RoomCode)).Msg("room ended by host")
		c.teardownLocked()
		c.pushNotice(Notice{Kind: NoticeHostEnded, Message: "Host ended the session"})
	}
	c.notify()
}

// abandonLocked drops an in-flight room entry without touching the store.
func (c *Controller) abandonLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
		c.emitLeaveLocked()
	}
	c.session = domain.Session{}
	c.resetRoomLocked()
	c.epoch++
}

func (c *Controller) teardownLocked() {
	c.emitLeaveLocked()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.store.Clear()
	c.session = domain.Session{}
	c.resetRoomLocked()
	c.state = StateEntry
	c.epoch++
}

func (c *Controller) emitLeaveLocked() {
	if c.session.IsZero() {
		return
	}
	m := protocol.LeaveRoom{RoomCode: c.session.RoomCode, GuestName: c.session.GuestName}
	if err := c.push.Emit(m); err != nil {
		log.Warn().Err(err).Str("module", "client.session").Str("room", string(m.RoomCode)).Msg("leave emission failed")
	}
}

func (c *Controller) resetRoomLocked() {
	c.room.Items.Clear()
	c.room.MemberCount = 0
	c.room.Host = ""
}
