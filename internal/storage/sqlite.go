package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"miniflux_bot/internal/model"
	"miniflux_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateChannel inserts a new channel record and populates its ID and CreatedAt.
func (s *SQLite) CreateChannel(ctx context.Context, ch *model.TrackedChannel) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (channel, feed_id, title, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ch.Channel, ch.FeedID, ch.Title, string(ch.Status), now,
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	ch.ID = id
	ch.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetChannel returns a single channel record by its ID.
func (s *SQLite) GetChannel(ctx context.Context, id int64) (*model.TrackedChannel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel, feed_id, title, status, created_at FROM channels WHERE id = ?`, id,
	)
	return scanChannel(row)
}

// GetChannelByName returns a single channel record by its channel identity.
func (s *SQLite) GetChannelByName(ctx context.Context, channel string) (*model.TrackedChannel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel, feed_id, title, status, created_at
		 FROM channels WHERE channel = ? COLLATE NOCASE`, channel,
	)
	return scanChannel(row)
}

// ListChannels returns all channel records with the given status.
func (s *SQLite) ListChannels(ctx context.Context, status model.ChannelStatus) ([]model.TrackedChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, feed_id, title, status, created_at
		 FROM channels WHERE status = ? ORDER BY id`, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var channels []model.TrackedChannel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// UpdateChannel persists changes to an existing channel record.
func (s *SQLite) UpdateChannel(ctx context.Context, ch *model.TrackedChannel) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE channels SET channel = ?, feed_id = ?, title = ?, status = ? WHERE id = ?`,
		ch.Channel, ch.FeedID, ch.Title, string(ch.Status), ch.ID,
	)
	if err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %d not found", ch.ID)
	}
	return nil
}

// DeleteChannel removes a channel record by its ID.
func (s *SQLite) DeleteChannel(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChannel(row scannable) (*model.TrackedChannel, error) {
	var ch model.TrackedChannel
	var statusStr string
	var created sql.NullString
	err := row.Scan(&ch.ID, &ch.Channel, &ch.FeedID, &ch.Title, &statusStr, &created)
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	ch.Status = model.ChannelStatus(statusStr)
	if created.Valid {
		ch.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &ch, nil
}
