package datastore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aleister1102/courier/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// MessageArchive persists materialized messages in SQLite so channel history
// survives restarts.
type MessageArchive struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewMessageArchive opens (or creates) the archive at dataSourceName and ensures the schema.
func NewMessageArchive(dataSourceName string, logger zerolog.Logger) (*MessageArchive, error) {
	logger = logger.With().Str("component", "MessageArchive").Logger()
	logger.Info().Str("db_path", dataSourceName).Msg("Initializing message archive")

	if dataSourceName != ":memory:" {
		dbDir := filepath.Dir(dataSourceName)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create archive directory")
			return nil, fmt.Errorf("failed to create archive directory %s: %w", dbDir, err)
		}
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		logger.Error().Err(err).Str("db_path", dataSourceName).Msg("Failed to open message archive")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	dbInstance.SetMaxOpenConns(1)

	archive := &MessageArchive{
		db:     dbInstance,
		logger: logger,
	}

	if err := archive.InitSchema(); err != nil {
		archive.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return archive, nil
}

// Close closes the database connection.
func (a *MessageArchive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// InitSchema creates the messages table if it doesn't already exist.
func (a *MessageArchive) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		channel_id INTEGER NOT NULL,
		webhook_id INTEGER,
		body TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages (channel_id, id DESC);
	`
	if _, err := a.db.Exec(query); err != nil {
		a.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	a.logger.Debug().Msg("Schema initialized (messages table ensured)")
	return nil
}

// Save inserts or replaces msg
func (a *MessageArchive) Save(msg *models.Message) error {
	if msg == nil {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}

	var webhookID sql.NullInt64
	if !msg.WebhookID.IsZero() {
		webhookID = sql.NullInt64{Int64: int64(msg.WebhookID), Valid: true}
	}

	query := `INSERT OR REPLACE INTO messages (id, channel_id, webhook_id, body) VALUES (?, ?, ?, ?)`
	if _, err := a.db.Exec(query, int64(msg.ID), int64(msg.ChannelID), webhookID, string(body)); err != nil {
		a.logger.Error().Err(err).Str("message_id", msg.ID.String()).Msg("Failed to archive message")
		return fmt.Errorf("failed to archive message %s: %w", msg.ID, err)
	}
	return nil
}

// Recent returns up to limit messages of channelID, newest first. A limit of
// zero or less returns all of them.
func (a *MessageArchive) Recent(channelID models.Snowflake, limit int) ([]*models.Message, error) {
	query := `SELECT body FROM messages WHERE channel_id = ? ORDER BY id DESC`
	args := []any{int64(channelID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages of channel %s: %w", channelID, err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		var msg models.Message
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			a.logger.Warn().Err(err).Str("channel_id", channelID.String()).Msg("Skipping unreadable archived message")
			continue
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// Count returns the number of archived messages of channelID
func (a *MessageArchive) Count(channelID models.Snowflake) (int, error) {
	var count int
	err := a.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE channel_id = ?`, int64(channelID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages of channel %s: %w", channelID, err)
	}
	return count, nil
}
