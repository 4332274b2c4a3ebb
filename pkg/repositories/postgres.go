package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS room_archives (
	code TEXT NOT NULL,
	snapshot JSONB NOT NULL,
	archived_at BIGINT NOT NULL,
	PRIMARY KEY (code, archived_at)
);
`

func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	var username string
	var database string
	if err := conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		return nil, fmt.Errorf("failed to query database: %v", err)
	}
	log.Info("Connected to %s as %s", database, username)

	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) ArchiveRoom(ctx context.Context, code string, snapshot json.RawMessage, archivedAt time.Time) error {
	q := `
	INSERT INTO room_archives (code, snapshot, archived_at) VALUES ($1, $2, $3)
	ON CONFLICT (code, archived_at) DO UPDATE SET snapshot = $2;
	`
	_, err := r.conn.Exec(ctx, q, code, snapshot, archivedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert room archive: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadRoomArchive(ctx context.Context, code string) (*RoomArchive, error) {
	q := `
	SELECT code, snapshot, archived_at FROM room_archives
	WHERE code = $1 ORDER BY archived_at DESC LIMIT 1;
	`
	var archive RoomArchive
	var archivedAt int64
	if err := r.conn.QueryRow(ctx, q, code).Scan(&archive.Code, &archive.Snapshot, &archivedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room archive: %v", err)
	}
	archive.ArchivedAt = time.UnixMilli(archivedAt)

	return &archive, nil
}

func (r *PostgresRepository) ListRoomArchives(ctx context.Context, limit int) ([]RoomArchive, error) {
	q := `
	SELECT code, snapshot, archived_at FROM room_archives
	ORDER BY archived_at DESC LIMIT $1;
	`
	rows, err := r.conn.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query room archives: %v", err)
	}
	defer rows.Close()

	var archives []RoomArchive
	for rows.Next() {
		var archive RoomArchive
		var archivedAt int64
		if err := rows.Scan(&archive.Code, &archive.Snapshot, &archivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room archive: %v", err)
		}
		archive.ArchivedAt = time.UnixMilli(archivedAt)
		archives = append(archives, archive)
	}

	return archives, nil
}
