// Package sessionstore persists the board client's session so a restart
// can resume the room it was in.
package sessionstore

import (
	"github.com/dkeye/HelpWave/internal/client"
	"github.com/dkeye/HelpWave/internal/domain"
)

const (
	keyRoomCode  = "roomCode"
	keyGuestName = "guestName"
	keyView      = "view"
	keyIsHost    = "isHost"
)

var keys = []string{keyRoomCode, keyGuestName, keyView, keyIsHost}

var (
	_ client.SessionStore = (*MemoryStore)(nil)
	_ client.SessionStore = (*SQLiteStore)(nil)
)

func encode(s domain.Session) map[string]string {
	host := "false"
	if s.IsHost {
		host = "true"
	}
	return map[string]string{
		keyRoomCode:  string(s.RoomCode),
		keyGuestName: string(s.GuestName),
		keyView:      domain.ViewBoard,
		keyIsHost:    host,
	}
}

// decode accepts only a complete set of fields saved from the board view.
func decode(fields map[string]string) (domain.Session, bool) {
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return domain.Session{}, false
		}
	}
	if fields[keyRoomCode] == "" || fields[keyGuestName] == "" || fields[keyView] != domain.ViewBoard {
		return domain.Session{}, false
	}
	return domain.Session{
		RoomCode:  domain.RoomCode(fields[keyRoomCode]),
		GuestName: domain.GuestName(fields[keyGuestName]),
		IsHost:    fields[keyIsHost] == "true",
	}, true
}
