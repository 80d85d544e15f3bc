package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

// rowScanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// marshalConversationFields serializes the participant snapshot and message
// list for the JSON document columns.
func marshalConversationFields(c models.Conversation) (string, string, error) {
	participantJSON, err := json.Marshal(c.Participant)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal participant: %w", err)
	}
	messages := c.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	return string(participantJSON), string(messagesJSON), nil
}

// scanConcertRow scans one concert row, decoding the program JSON column.
func scanConcertRow(row rowScanner) (*models.Concert, error) {
	var c models.Concert
	var programJSON string
	err := row.Scan(&c.ID, &c.Title, &c.Date, &c.Venue, &c.Organization, &programJSON, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(programJSON), &c.Program); err != nil {
		return nil, fmt.Errorf("failed to decode program: %w", err)
	}
	return &c, nil
}

// scanConversationRow scans one conversation row, decoding the participant
// and messages JSON columns.
func scanConversationRow(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	var participantJSON, messagesJSON string
	var completedAt sql.NullTime
	err := row.Scan(&c.ID, &c.ConcertID, &participantJSON, &messagesJSON, &c.Status, &c.StartedAt, &completedAt, &c.LastActivityAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participantJSON), &c.Participant); err != nil {
		return nil, fmt.Errorf("failed to decode participant: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &c.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return &c, nil
}

// collectConcerts drains a concert result set.
func collectConcerts(rows *sql.Rows) ([]models.Concert, error) {
	var concerts []models.Concert
	for rows.Next() {
		c, err := scanConcertRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan concert row: %w", err)
		}
		concerts = append(concerts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate concert rows: %w", err)
	}
	return concerts, nil
}

// collectConversations drains a conversation result set.
func collectConversations(rows *sql.Rows) ([]models.Conversation, error) {
	var conversations []models.Conversation
	for rows.Next() {
		c, err := scanConversationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation rows: %w", err)
	}
	return conversations, nil
}

// requireRowAffected converts a zero-row update into a NotFound error so the
// engine can distinguish missing conversations from write failures.
func requireRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver cannot report; assume the write landed
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", id, models.ErrConversationNotFound)
	}
	return nil
}
