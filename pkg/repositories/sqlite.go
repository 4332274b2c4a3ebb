package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS room_archives (
	code TEXT NOT NULL,
	snapshot TEXT NOT NULL,
	archived_at INTEGER NOT NULL,
	PRIMARY KEY (code, archived_at)
);
`

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) ArchiveRoom(ctx context.Context, code string, snapshot json.RawMessage, archivedAt time.Time) error {
	q := `
	INSERT OR REPLACE INTO room_archives (code, snapshot, archived_at)
	VALUES (?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, code, string(snapshot), archivedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert room archive: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadRoomArchive(ctx context.Context, code string) (*RoomArchive, error) {
	q := `
	SELECT code, snapshot, archived_at FROM room_archives
	WHERE code = ? ORDER BY archived_at DESC LIMIT 1;
	`
	var archive RoomArchive
	var snapshot string
	var archivedAt int64
	if err := r.db.QueryRowContext(ctx, q, code).Scan(&archive.Code, &snapshot, &archivedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room archive: %v", err)
	}
	archive.Snapshot = json.RawMessage(snapshot)
	archive.ArchivedAt = time.UnixMilli(archivedAt)

	return &archive, nil
}

func (r *SQLiteRepository) ListRoomArchives(ctx context.Context, limit int) ([]RoomArchive, error) {
	q := `
	SELECT code, snapshot, archived_at FROM room_archives
	ORDER BY archived_at DESC LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query room archives: %v", err)
	}
	defer rows.Close()

	var archives []RoomArchive
	for rows.Next() {
		var archive RoomArchive
		var snapshot string
		var archivedAt int64
		if err := rows.Scan(&archive.Code, &snapshot, &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room archive: %v", err)
		}
		archive.Snapshot = json.RawMessage(snapshot)
		archive.ArchivedAt = time.UnixMilli(archivedAt)
		archives = append(archives, archive)
	}

	return archives, nil
}
