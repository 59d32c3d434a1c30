package domain

import (
	"errors"
	"strings"
)

const RoomCodeLen = 4

var ErrRoomCodeEmpty = errors.New("room code empty")

// RoomCode is the short human-typeable room identifier. Codes compare
// case-insensitively and are stored uppercase.
type RoomCode string

// NormalizeRoomCode trims and upper-cases user input.
func NormalizeRoomCode(raw string) (RoomCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrRoomCodeEmpty
	}
	return RoomCode(code), nil
}

type Room struct {
	ID        int64
	Code      RoomCode
	CreatedAt int64
}
