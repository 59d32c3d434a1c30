package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
)

// Item actions never touch local state: the resulting push event is the
// only thing that changes the repository, for our own actions too.

func (c *Controller) PostItem(ctx context.Context, title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &client.ValidationError{Field: "title"}
	}
	s, epoch, err := c.inRoom()
	if err != nil {
		return err
	}
	err = c.dir.PostItem(ctx, client.NewItem{
		RoomCode:    s.RoomCode,
		GuestName:   s.GuestName,
		Title:       title,
		Description: strings.TrimSpace(description),
	})
	return c.settle(epoch, "post item", err)
}

func (c *Controller) Reply(ctx context.Context, id domain.ItemID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return &client.ValidationError{Field: "message"}
	}
	s, epoch, err := c.inRoom()
	if err != nil {
		return err
	}
	err = c.dir.PostReply(ctx, id, s.GuestName, message)
	return c.settle(epoch, "reply", err)
}

func (c *Controller) Resolve(ctx context.Context, id domain.ItemID) error {
	_, epoch, err := c.inRoom()
	if err != nil {
		return err
	}
	err = c.dir.ResolveItem(ctx, id)
	return c.settle(epoch, "resolve", err)
}

func (c *Controller) inRoom() (domain.Session, uint64, error) {
	var (
		s     domain.Session
		epoch uint64
		err   error
	)
	if stopErr := c.do(func() {
		if c.state != StateInRoom {
			err = client.ErrNotInRoom
			return
		}
		s, epoch = c.session, c.epoch
	}); stopErr != nil {
		return s, 0, stopErr
	}
	return s, epoch, err
}

// settle discards the outcome of a request whose session is gone.
func (c *Controller) settle(epoch uint64, op string, err error) error {
	if !c.current(epoch) {
		log.Debug().Str("module", "client.session").Str("op", op).Msg("discarding response from an abandoned session")
		return client.ErrStale
	}
	return err
}
