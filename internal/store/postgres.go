// Package store provides storage backends for the concert survey service.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetConcert(id string) (*models.Concert, error) {
	row := s.db.QueryRow(`SELECT id, title, date, venue, organization, program, is_active, created_at FROM concerts WHERE id = $1`, id)
	concert, err := scanConcertRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConcert not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConcert failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get concert %s: %w", id, err)
	}
	return concert, nil
}

func (s *PostgresStore) ListActiveConcerts() ([]models.Concert, error) {
	rows, err := s.db.Query(`SELECT id, title, date, venue, organization, program, is_active, created_at FROM concerts WHERE is_active = TRUE`)
	if err != nil {
		slog.Error("PostgresStore ListActiveConcerts query failed", "error", err)
		return nil, fmt.Errorf("failed to query concerts: %w", err)
	}
	defer rows.Close()
	return collectConcerts(rows)
}

func (s *PostgresStore) SaveConcert(c models.Concert) error {
	programJSON, err := json.Marshal(c.Program)
	if err != nil {
		return fmt.Errorf("failed to marshal program: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO concerts (id, title, date, venue, organization, program, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, date = EXCLUDED.date, venue = EXCLUDED.venue,
			organization = EXCLUDED.organization, program = EXCLUDED.program, is_active = EXCLUDED.is_active`,
		c.ID, c.Title, c.Date, c.Venue, c.Organization, string(programJSON), c.IsActive, c.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveConcert failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to save concert %s: %w", c.ID, err)
	}
	slog.Debug("PostgresStore SaveConcert succeeded", "id", c.ID)
	return nil
}

func (s *PostgresStore) CreateConversation(c models.Conversation) error {
	participantJSON, messagesJSON, err := marshalConversationFields(c)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO conversations (id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ConcertID, participantJSON, messagesJSON, c.Status, c.StartedAt, c.CompletedAt, c.LastActivityAt)
	if err != nil {
		slog.Error("PostgresStore CreateConversation failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to create conversation %s: %w", c.ID, err)
	}
	slog.Debug("PostgresStore CreateConversation succeeded", "id", c.ID, "concertID", c.ConcertID)
	return nil
}

func (s *PostgresStore) GetConversation(id string) (*models.Conversation, error) {
	row := s.db.QueryRow(`SELECT id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at FROM conversations WHERE id = $1`, id)
	conversation, err := scanConversationRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversation not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversation failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	return conversation, nil
}

func (s *PostgresStore) UpdateConversationMessages(id string, messages []models.Message, lastActivityAt time.Time) error {
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	res, err := s.db.Exec(`UPDATE conversations SET messages = $1, last_activity_at = $2 WHERE id = $3`,
		string(messagesJSON), lastActivityAt, id)
	if err != nil {
		slog.Error("PostgresStore UpdateConversationMessages failed", "error", err, "id", id)
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	return requireRowAffected(res, id)
}

func (s *PostgresStore) UpdateConversationStatus(id string, status models.ConversationStatus, at time.Time) error {
	var res sql.Result
	var err error
	if status == models.ConversationStatusCompleted {
		res, err = s.db.Exec(`UPDATE conversations SET status = $1, completed_at = $2, last_activity_at = $3 WHERE id = $4`,
			status, at, at, id)
	} else {
		res, err = s.db.Exec(`UPDATE conversations SET status = $1, last_activity_at = $2 WHERE id = $3`,
			status, at, id)
	}
	if err != nil {
		slog.Error("PostgresStore UpdateConversationStatus failed", "error", err, "id", id, "status", status)
		return fmt.Errorf("failed to update conversation status %s: %w", id, err)
	}
	return requireRowAffected(res, id)
}

func (s *PostgresStore) ListConversationsForConcert(concertID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`SELECT id, concert_id, participant, messages, status, started_at, completed_at, last_activity_at FROM conversations WHERE concert_id = $1`, concertID)
	if err != nil {
		slog.Error("PostgresStore ListConversationsForConcert query failed", "error", err, "concertID", concertID)
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()
	return collectConversations(rows)
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
