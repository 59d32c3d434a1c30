// Package client holds the board client's synchronization core: the item
// repository, the push event reducer and the ports the session controller
// talks through.
package client

import (
	"context"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
)

// Directory is the request/response side of the backend.
type Directory interface {
	CreateRoom(ctx context.Context, guest string) (domain.RoomCode, error)
	// JoinRoom returns a *RejectedError when the backend does not know the code.
	JoinRoom(ctx context.Context, guest, code string) (domain.RoomCode, error)
	RoomItems(ctx context.Context, code domain.RoomCode) ([]domain.Item, error)
	PostItem(ctx context.Context, p NewItem) error
	PostReply(ctx context.Context, id domain.ItemID, guest domain.GuestName, message string) error
	ResolveItem(ctx context.Context, id domain.ItemID) error
}

// NewItem is the body of a post action.
type NewItem struct {
	RoomCode    domain.RoomCode
	GuestName   domain.GuestName
	Title       string
	Description string
}

// PushChannel is the reliable, ordered, reconnecting push transport.
// Handlers may be called from any goroutine, one event at a time and in
// the order the backend emitted them.
type PushChannel interface {
	Emit(m protocol.Message) error
	Subscribe(fn func(protocol.Event)) (unsubscribe func())
}

// SessionStore persists the session across restarts. It is best effort:
// implementations log failures and never surface them.
type SessionStore interface {
	Save(s domain.Session)
	Load() (domain.Session, bool)
	Clear()
}
