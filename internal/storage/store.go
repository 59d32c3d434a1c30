// Package storage provides abstractions for persistent room data.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/HelpWave/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// FlaggedItem identifies an item the flagger just marked and the room to
// notify.
type FlaggedItem struct {
	ItemID   domain.ItemID
	RoomCode domain.RoomCode
}

// Store defines the persistence operations of the backend.
type Store interface {
	// CreateRoom inserts a room with the given code. Returns ErrConflict if
	// the code is taken.
	CreateRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error)

	// GetRoom looks a room up by its exact code.
	GetRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error)

	// CreateItem persists item and fills in ID, Status and CreatedAt.
	CreateItem(ctx context.Context, item *domain.Item) error

	// ListItems returns the doubts of a room newest first, replies included.
	ListItems(ctx context.Context, roomID int64) ([]domain.Item, error)

	// CreateReply persists reply and returns the code of the item's room.
	CreateReply(ctx context.Context, reply *domain.Reply) (domain.RoomCode, error)

	// ResolveItem marks the item resolved and returns its room code.
	ResolveItem(ctx context.Context, id domain.ItemID) (domain.RoomCode, error)

	// FlagStale flags every open, unflagged item created before cutoff.
	FlagStale(ctx context.Context, cutoff time.Time) ([]FlaggedItem, error)

	Close() error
}
