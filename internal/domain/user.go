// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxGuestNameLen = 50
	MaxTitleLen     = 100
)

var (
	ErrGuestNameTooLong = errors.New("guest name too long")
	ErrGuestNameEmpty   = errors.New("guest name empty")
)

// GuestName is the display name a member picks. It is only meaningful
// inside one room.
type GuestName string

// NewGuestName trims the raw input and validates it.
func NewGuestName(raw string) (GuestName, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrGuestNameEmpty
	}
	if len(name) > MaxGuestNameLen {
		return "", ErrGuestNameTooLong
	}
	return GuestName(name), nil
}
