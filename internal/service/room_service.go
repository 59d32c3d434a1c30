// Package service holds the backend's room and item use cases. Every
// mutation is persisted first and then published to the room.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/protocol"
	"github.com/dkeye/HelpWave/internal/storage"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoFreeCode   = errors.New("could not find a free room code")
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Notifier fans an event out to the members of a room.
type Notifier interface {
	Publish(code domain.RoomCode, ev protocol.Event)
}

// CodeGenerator returns a candidate room code.
type CodeGenerator func() domain.RoomCode

// RandomCode draws RoomCodeLen characters from A-Z0-9.
func RandomCode() domain.RoomCode {
	b := make([]byte, domain.RoomCodeLen)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return domain.RoomCode(b)
}

type RoomService struct {
	store    storage.Store
	notify   Notifier
	newCode  CodeGenerator
	attempts int
}

type Option func(*RoomService)

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *RoomService) { s.newCode = gen }
}

func NewRoomService(store storage.Store, notify Notifier, opts ...Option) *RoomService {
	s := &RoomService{store: store, notify: notify, newCode: RandomCode, attempts: 32}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// CreateRoom picks an unused code and persists the room.
func (s *RoomService) CreateRoom(ctx context.Context, guest string) (domain.RoomCode, error) {
	name, err := domain.NewGuestName(guest)
	if err != nil {
		return "", invalid("guest_name: %v", err)
	}
	for range s.attempts {
		code := s.newCode()
		room, err := s.store.CreateRoom(ctx, code)
		if errors.Is(err, storage.ErrConflict) {
			log.Debug().Str("module", "service").Str("room", string(code)).Msg("room code taken, retrying")
			continue
		}
		if err != nil {
			return "", err
		}
		log.Info().Str("module", "service").Str("room", string(room.Code)).Str("guest", string(name)).Msg("room created")
		return room.Code, nil
	}
	return "", ErrNoFreeCode
}

// JoinRoom resolves a user-typed code to the canonical one.
func (s *RoomService) JoinRoom(ctx context.Context, code string) (domain.RoomCode, error) {
	room, err := s.room(ctx, code)
	if err != nil {
		return "", err
	}
	return room.Code, nil
}

func (s *RoomService) RoomExists(ctx context.Context, code domain.RoomCode) (bool, error) {
	_, err := s.room(ctx, string(code))
	if errors.Is(err, ErrRoomNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RoomItems returns the room's doubts newest first.
func (s *RoomService) RoomItems(ctx context.Context, code string) ([]domain.Item, error) {
	room, err := s.room(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, room.ID)
}

type NewItem struct {
	RoomCode    string
	GuestName   string
	Type        domain.ItemType
	Title       string
	Description string
}

// PostItem stores a doubt and publishes item_created. Blockers are
// accepted and stored as doubts.
func (s *RoomService) PostItem(ctx context.Context, in NewItem) (domain.Item, error) {
	name, err := domain.NewGuestName(in.GuestName)
	if err != nil {
		return domain.Item{}, invalid("guest_name: %v", err)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Item{}, invalid("title is required")
	}
	if len(title) > domain.MaxTitleLen {
		return domain.Item{}, invalid("title longer than %d", domain.MaxTitleLen)
	}
	switch in.Type {
	case "", domain.ItemDoubt, domain.ItemBlocker:
	default:
		return domain.Item{}, invalid("unknown item type %q", in.Type)
	}

	room, err := s.room(ctx, in.RoomCode)
	if err != nil {
		return domain.Item{}, err
	}
	item := domain.Item{
		RoomID:      room.ID,
		GuestName:   name,
		Type:        domain.ItemDoubt,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.store.CreateItem(ctx, &item); err != nil {
		return domain.Item{}, err
	}
	log.Info().Str("module", "service").Str("room", string(room.Code)).Int64("item", int64(item.ID)).Msg("item posted")
	s.notify.Publish(room.Code, protocol.ItemCreated{Item: item})
	return item, nil
}

// Reply appends a reply and publishes item_replied.
func (s *RoomService) Reply(ctx context.Context, id domain.ItemID, guest, message string) (domain.Reply, error) {
	name, err := domain.NewGuestName(guest)
	if err != nil {
		return domain.Reply{}, invalid("guest_name: %v", err)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Reply{}, invalid("message is required")
	}
	reply := domain.Reply{ItemID: id, GuestName: name, Message: message}
	code, err := s.store.CreateReply(ctx, &reply)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Reply{}, ErrItemNotFound
	}
	if err != nil {
		return domain.Reply{}, err
	}
	s.notify.Publish(code, protocol.ItemReplied{ItemID: id, Reply: reply})
	return reply, nil
}

// Resolve marks an item resolved and publishes item_resolved. Resolving
// twice publishes twice; clients treat it as idempotent.
func (s *RoomService) Resolve(ctx context.Context, id domain.ItemID) error {
	code, err := s.store.ResolveItem(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	s.notify.Publish(code, protocol.ItemResolved{ItemID: id})
	return nil
}

func (s *RoomService) room(ctx context.Context, raw string) (*domain.Room, error) {
	code, err := domain.NormalizeRoomCode(raw)
	if err != nil {
		return nil, invalid("code: %v", err)
	}
	room, err := s.store.GetRoom(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}
