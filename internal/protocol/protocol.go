// Package protocol defines the push-channel frames exchanged between the
// board client and the backend. Every frame is {"type": ..., "data": ...}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/HelpWave/internal/domain"
)

const (
	TypeJoinRoom      = "join_room"
	TypeLeaveRoom     = "leave_room"
	TypeForceLeaveAll = "force_leave_all"
	TypePing          = "ping"

	TypeItemCreated  = "item_created"
	TypeItemReplied  = "item_replied"
	TypeItemResolved = "item_resolved"
	TypeItemFlagged  = "item_flagged"
	TypeMemberUpdate = "member_update"
	TypeHostChanged  = "host_changed"
	TypePong         = "pong"
	TypeError        = "error"
)

var ErrUnknownType = errors.New("unknown frame type")

// Envelope is the outer shape of every frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is a client→server frame.
type Message interface {
	MessageType() string
}

// Event is a server→client frame.
type Event interface {
	EventType() string
}

type JoinRoom struct {
	RoomCode  domain.RoomCode  `json:"room_code"`
	GuestName domain.GuestName `json:"guest_name"`
}

type LeaveRoom struct {
	RoomCode  domain.RoomCode  `json:"room_code"`
	GuestName domain.GuestName `json:"guest_name"`
}

// ForceLeaveAll travels both ways: the host asks for it with the room
// code, the backend fans it out with no payload.
type ForceLeaveAll struct {
	RoomCode domain.RoomCode `json:"room_code,omitempty"`
}

type Ping struct{}

type ItemCreated struct {
	Item domain.Item
}

type ItemReplied struct {
	ItemID domain.ItemID `json:"item_id"`
	Reply  domain.Reply  `json:"reply"`
}

type ItemResolved struct {
	ItemID domain.ItemID `json:"item_id"`
}

type ItemFlagged struct {
	ItemID domain.ItemID `json:"item_id"`
}

type MemberUpdate struct {
	Count   int                `json:"count"`
	Members []domain.GuestName `json:"members,omitempty"`
}

type HostChanged struct {
	NewHost domain.GuestName `json:"new_host"`
}

type Pong struct{}

type Error struct {
	Error string `json:"error"`
}

func (JoinRoom) MessageType() string      { return TypeJoinRoom }
func (LeaveRoom) MessageType() string     { return TypeLeaveRoom }
func (ForceLeaveAll) MessageType() string { return TypeForceLeaveAll }
func (Ping) MessageType() string          { return TypePing }

func (ItemCreated) EventType() string   { return TypeItemCreated }
func (ItemReplied) EventType() string   { return TypeItemReplied }
func (ItemResolved) EventType() string  { return TypeItemResolved }
func (ItemFlagged) EventType() string   { return TypeItemFlagged }
func (MemberUpdate) EventType() string  { return TypeMemberUpdate }
func (HostChanged) EventType() string   { return TypeHostChanged }
func (ForceLeaveAll) EventType() string { return TypeForceLeaveAll }
func (Pong) EventType() string          { return TypePong }
func (Error) EventType() string         { return TypeError }

// EncodeMessage frames a client message.
func EncodeMessage(m Message) ([]byte, error) {
	return encode(m.MessageType(), m)
}

// EncodeEvent frames a server event. item_created carries the item itself
// as its payload.
func EncodeEvent(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case ItemCreated:
		return encode(ev.EventType(), ev.Item)
	case ForceLeaveAll, Pong:
		return encode(ev.EventType(), nil)
	default:
		return encode(e.EventType(), e)
	}
}

func encode(typ string, payload any) ([]byte, error) {
	env := Envelope{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// DecodeEvent parses a server→client frame.
func DecodeEvent(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bad envelope: %w", err)
	}
	switch env.Type {
	case TypeItemCreated:
		var it domain.Item
		if err := unmarshalData(env, &it); err != nil {
			return nil, err
		}
		return ItemCreated{Item: it}, nil
	case TypeItemReplied:
		var ev ItemReplied
		err := unmarshalData(env, &ev)
		return ev, err
	case TypeItemResolved:
		var ev ItemResolved
		err := unmarshalData(env, &ev)
		return ev, err
	case TypeItemFlagged:
		var ev ItemFlagged
		err := unmarshalData(env, &ev)
		return ev, err
	case TypeMemberUpdate:
		var ev MemberUpdate
		err := unmarshalData(env, &ev)
		return ev, err
	case TypeHostChanged:
		var ev HostChanged
		err := unmarshalData(env, &ev)
		return ev, err
	case TypeForceLeaveAll:
		return ForceLeaveAll{}, nil
	case TypePong:
		return Pong{}, nil
	case TypeError:
		var ev Error
		err := unmarshalData(env, &ev)
		return ev, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// DecodeMessage parses a client→server frame.
func DecodeMessage(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bad envelope: %w", err)
	}
	switch env.Type {
	case TypeJoinRoom:
		var m JoinRoom
		err := unmarshalData(env, &m)
		return m, err
	case TypeLeaveRoom:
		var m LeaveRoom
		err := unmarshalData(env, &m)
		return m, err
	case TypeForceLeaveAll:
		var m ForceLeaveAll
		err := unmarshalData(env, &m)
		return m, err
	case TypePing:
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func unmarshalData(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("bad %s payload: %w", env.Type, err)
	}
	return nil
}
