package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"report_bot/internal/match"
	"report_bot/internal/model"
	"report_bot/migrations"
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

// CreateSubscription inserts a new subscription and populates its ID and CreatedAt.
func (s *SQLite) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (guild_id, channel_id, tags, on_users_in_server, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sub.GuildID, sub.ChannelID, joinTags(sub.Tags), boolToInt(sub.OnUsersInServer), now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	sub.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListSubscriptions returns every subscription in store order.
func (s *SQLite) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, channel_id, tags, on_users_in_server, created_at
		 FROM subscriptions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// ListGuildSubscriptions returns all subscriptions scoped to the given guild.
func (s *SQLite) ListGuildSubscriptions(ctx context.Context, guildID string) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, channel_id, tags, on_users_in_server, created_at
		 FROM subscriptions WHERE guild_id = ? ORDER BY id`, guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query guild subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// DeleteSubscription removes a subscription by its ID.
func (s *SQLite) DeleteSubscription(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// GetReportMessage returns the message row for (reportID, guildID, channelID),
// or nil when no row exists.
func (s *SQLite) GetReportMessage(ctx context.Context, reportID int64, guildID, channelID string) (*model.ReportMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report_id, guild_id, channel_id, message_id, deleted, insert_date, update_date
		 FROM report_messages WHERE report_id = ? AND guild_id = ? AND channel_id = ?`,
		reportID, guildID, channelID,
	)
	var m model.ReportMessage
	var deleted int
	var insertStr, updateStr string
	err := row.Scan(&m.ReportID, &m.GuildID, &m.ChannelID, &m.MessageID, &deleted, &insertStr, &updateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan report message: %w", err)
	}
	m.Deleted = deleted == 1
	m.InsertDate, _ = time.Parse(timeLayout, insertStr)
	m.UpdateDate, _ = time.Parse(timeLayout, updateStr)
	return &m, nil
}

// UpsertReportMessage inserts or overwrites the row for the message's
// identity key and populates its timestamps.
func (s *SQLite) UpsertReportMessage(ctx context.Context, msg *model.ReportMessage) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO report_messages (report_id, guild_id, channel_id, message_id, deleted, insert_date, update_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(report_id, guild_id, channel_id) DO UPDATE SET
		   message_id = excluded.message_id,
		   deleted = excluded.deleted,
		   update_date = excluded.update_date`,
		msg.ReportID, msg.GuildID, msg.ChannelID, msg.MessageID, boolToInt(msg.Deleted), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert report message: %w", err)
	}
	msg.UpdateDate, _ = time.Parse(timeLayout, now)
	if msg.InsertDate.IsZero() {
		msg.InsertDate = msg.UpdateDate
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinTags(tags []int64) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, id := range tags {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var tagsStr, createdStr string
		var onUsers int
		if err := rows.Scan(&sub.ID, &sub.GuildID, &sub.ChannelID, &tagsStr, &onUsers, &createdStr); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		tags, err := match.ParseTags(splitTags(tagsStr))
		if err != nil {
			return nil, fmt.Errorf("subscription %d: %w", sub.ID, err)
		}
		sub.Tags = tags
		sub.OnUsersInServer = onUsers == 1
		sub.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
