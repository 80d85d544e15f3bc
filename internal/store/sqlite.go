// Package store provides storage backends for the concert survey service.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the DSN from options.
// The DSN is a file path; missing parent directories are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetConcert(id string) (*models.Concert, error) {
	row := s.db.QueryRow(`SELECT id, title, date, venue, organization, program, is_active, created_at FROM concerts WHERE id = ?`, id)
	concert, err := scanConcertRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConcert not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConcert failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get concert %s: %w", id, err)
	}
	return concert, nil
}

func (s *SQLiteStore) ListActiveConcerts() ([]models.Concert, error) {
	rows, err := s.db.Query(`SELECT id, title, date, venue, organization, program, is_active, created_at FROM concerts WHERE is_active = 1`)
	if err != nil {
		slog.Error("SQLiteStore ListActiveConcerts query failed", "error", err)
		return nil, fmt.Errorf("failed to query concerts: %w", err)
	}
	defer rows.Close()
	return collectConcerts(rows)
}

func (s *SQLiteStore) SaveConcert(c models.Concert) error {
	programJSON, err := json.Marshal(c.Program)
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO concerts (id, title, date, venue, organization, program, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Date, c.Venue, c.Organization, string(programJSON), c.IsActive, c.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveConcert failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to save concert %s: %w", c.ID, err)
	}
	slog.Debug("SQLiteStore SaveConcert succeeded", "id", c.ID)
	return nil
}

func (s *SQLiteStore) CreateConversation(c models.Conversation) error {
	participantJSON, messagesJSON, err := marshalConversationFields(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversations (id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ConcertID, participantJSON, messagesJSON, c.Status, c.StartedAt, c.CompletedAt, c.LastActivityAt)
	if err != nil {
		slog.Error("SQLiteStore CreateConversation failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to create conversation %s: %w", c.ID, err)
	}
	slog.Debug("SQLiteStore CreateConversation succeeded", "id", c.ID, "concertID", c.ConcertID)
	return nil
}

func (s *SQLiteStore) GetConversation(id string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at FROM conversations WHERE id = ?`, id)
	conversation, err := scanConversationRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversation not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversation failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	return conversation, nil
}

func (s *SQLiteStore) UpdateConversationMessages(id string, messages []models.Message, lastActivityAt time.Time) error {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	res, err := s.db.Exec(`UPDATE conversations SET messages = ?, last_activity_at = ? WHERE id = ?`,
		string(messagesJSON), lastActivityAt, id)
	if err != nil {
		slog.Error("SQLiteStore UpdateConversationMessages failed", "error", err, "id", id)
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	return requireRowAffected(res, id)
}

func (s *SQLiteStore) UpdateConversationStatus(id string, status models.ConversationStatus, at time.Time) error {
	var res sql.Result
	var err error
	if status == models.ConversationStatusCompleted {
		res, err = s.db.Exec(`UPDATE conversations SET status = ?, completed_at = ?, last_activity_at = ? WHERE id = ?`,
			status, at, at, id)
	} else {
		res, err = s.db.Exec(`UPDATE conversations SET status = ?, last_activity_at = ? WHERE id = ?`,
			status, at, id)
	}
	if err != nil {
		slog.Error("SQLiteStore UpdateConversationStatus failed", "error", err, "id", id, "status", status)
		return fmt.Errorf("failed to update conversation status %s: %w", id, err)
	}
	return requireRowAffected(res, id)
}

func (s *SQLiteStore) ListConversationsForConcert(concertID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`SELECT id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at FROM conversations WHERE concert_id = ?`, concertID)
	if err != nil {
		slog.Error("SQLiteStore ListConversationsForConcert query failed", "error", err, "concertID", concertID)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()
	return collectConversations(rows)
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
