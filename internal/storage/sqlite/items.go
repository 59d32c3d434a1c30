package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/storage"
)

func (s *SQLiteStore) CreateItem(ctx context.Context, item *domain.Item) error {
	created := s.now().UnixMilli()
	item.Status = domain.StatusOpen
	item.Flagged = false

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO items (room_id, guest_name, type, title, description, status, flagged, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		item.RoomID, item.GuestName, item.Type, item.Title, item.Description, item.Status, created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read item id: %w", err)
	}
	item.ID = domain.ItemID(id)
	item.CreatedAt = formatTime(created)
	if item.Replies == nil {
		item.Replies = []domain.Reply{}
	}
	return nil
}

func (s *SQLiteStore) ListItems(ctx context.Context, roomID int64) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, guest_name, type, title, description, status, flagged, created_at
		 FROM items WHERE room_id = ? AND type != ?
		 ORDER BY created_at DESC, id DESC`,
		roomID, domain.ItemBlocker,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	items := []domain.Item{}
	index := make(map[domain.ItemID]int)
	for rows.Next() {
		var (
			it      domain.Item
			flagged int
			created int64
		)
		if err := rows.Scan(&it.ID, &it.RoomID, &it.GuestName, &it.Type, &it.Title, &it.Description, &it.Status, &flagged, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Flagged = flagged != 0
		it.CreatedAt = formatTime(created)
		it.Replies = []domain.Reply{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	// The pool holds one connection; release it before the next query.
	rows.Close()

	replyRows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.guest_name, r.message, r.created_at
		 FROM replies r JOIN items i ON i.id = r.item_id
		 WHERE i.room_id = ? ORDER BY r.id`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	defer replyRows.Close()

	for replyRows.Next() {
		var (
			r       domain.Reply
			created int64
		)
		if err := replyRows.Scan(&r.ID, &r.ItemID, &r.GuestName, &r.Message, &created); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		r.CreatedAt = formatTime(created)
		if i, ok := index[r.ItemID]; ok {
			items[i].Replies = append(items[i].Replies, r)
		}
	}
	if err := replyRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate replies: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) itemRoom(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id domain.ItemID) (domain.RoomCode, error) {
	var code domain.RoomCode
	err := q.QueryRowContext(ctx,
		"SELECT r.code FROM items i JOIN rooms r ON r.id = i.room_id WHERE i.id = ?",
		id,
	).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get item room: %w", err)
	}
	return code, nil
}

func (s *SQLiteStore) CreateReply(ctx context.Context, reply *domain.Reply) (domain.RoomCode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	code, err := s.itemRoom(ctx, tx, reply.ItemID)
	if err != nil {
		return "", err
	}

	created := s.now().UnixMilli()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO replies (item_id, guest_name, message, created_at) VALUES (?, ?, ?, ?)",
		reply.ItemID, reply.GuestName, reply.Message, created,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert reply: %w", err)
	}
	if reply.ID, err = res.LastInsertId(); err != nil {
		return "", fmt.Errorf("failed to read reply id: %w", err)
	}
	reply.CreatedAt = formatTime(created)

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return code, nil
}

func (s *SQLiteStore) ResolveItem(ctx context.Context, id domain.ItemID) (domain.RoomCode, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	code, err := s.itemRoom(ctx, tx, id)
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE items SET status = ? WHERE id = ?", domain.StatusResolved, id); err != nil {
		return "", fmt.Errorf("failed to resolve item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return code, nil
}

func (s *SQLiteStore) FlagStale(ctx context.Context, cutoff time.Time) ([]storage.FlaggedItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT i.id, r.code FROM items i JOIN rooms r ON r.id = i.room_id
		 WHERE i.status = ? AND i.flagged = 0 AND i.created_at < ?
		 ORDER BY i.id`,
		domain.StatusOpen, cutoff.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale items: %w", err)
	}
	var out []storage.FlaggedItem
	for rows.Next() {
		var f storage.FlaggedItem
		if err := rows.Scan(&f.ItemID, &f.RoomCode); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stale item: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate stale items: %w", err)
	}
	rows.Close()

	for _, f := range out {
		if _, err := tx.ExecContext(ctx, "UPDATE items SET flagged = 1 WHERE id = ?", f.ItemID); err != nil {
			return nil, fmt.Errorf("failed to flag item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return out, nil
}
