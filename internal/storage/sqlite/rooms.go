package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/HelpWave/internal/domain"
	"github.com/dkeye/HelpWave/internal/storage"
)

func (s *SQLiteStore) CreateRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	room := &domain.Room{Code: code, CreatedAt: s.now().UnixMilli()}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO rooms (code, created_at) VALUES (?, ?)",
		room.Code, room.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, storage.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert room: %w", err)
	}
	if room.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read room id: %w", err)
	}
	return room, nil
}

func (s *SQLiteStore) GetRoom(ctx context.Context, code domain.RoomCode) (*domain.Room, error) {
	room := &domain.Room{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, created_at FROM rooms WHERE code = ?",
		code,
	).Scan(&room.ID, &room.Code, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}
