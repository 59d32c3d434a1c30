package cli

import (
	"fmt"
	"strings"

	"github.com/dkeye/HelpWave/internal/client/session"
	"github.com/dkeye/HelpWave/internal/domain"
)

func (b *board) render() {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprint(b.out, renderView(b.ctl.View()))
}

func renderView(v session.View) string {
	var sb strings.Builder
	switch v.State {
	case session.StateEntry:
		sb.WriteString("\nHelpWave. Type `create [name]` or `join <code> [name]`.\n")
	case session.StateCreateForm:
		sb.WriteString("\nCreate a room: `create <name>` or `back`.\n")
	case session.StateJoinForm:
		sb.WriteString("\nJoin a room: `join <code> <name>` or `back`.\n")
	case session.StateInRoom:
		role := "member"
		if v.IsHost {
			role = "host"
		}
		fmt.Fprintf(&sb, "\n== Room %s == you: %s (%s) | members: %d", v.RoomCode, v.GuestName, role, v.MemberCount)
		if v.Host != "" {
			fmt.Fprintf(&sb, " | host: %s", v.Host)
		}
		sb.WriteString("\n")
		writeItems(&sb, "Open", v.Open)
		writeItems(&sb, "Resolved", v.Resolved)
	}
	return sb.String()
}

func writeItems(sb *strings.Builder, title string, items []domain.Item) {
	fmt.Fprintf(sb, "-- %s (%d)\n", title, len(items))
	for _, it := range items {
		flag := ""
		if it.Flagged {
			flag = " [!]"
		}
		fmt.Fprintf(sb, "  #%d%s %s (by %s)\n", it.ID, flag, it.Title, it.GuestName)
		if it.Description != "" {
			fmt.Fprintf(sb, "      %s\n", it.Description)
		}
		for _, r := range it.Replies {
			fmt.Fprintf(sb, "      > %s: %s\n", r.GuestName, r.Message)
		}
	}
}
