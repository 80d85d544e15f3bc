// Package store provides storage backends for the concert survey service.
//
// Concerts are read-mostly context records; conversations are the only
// mutable aggregate. Writes to a conversation's message list are
// last-writer-wins: the design assumes at most one in-flight turn per
// conversation, enforced by the client awaiting each reply before sending
// the next message.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

// Store is the document-store contract consumed by the conversation engine
// and the API layer. Lookups return (nil, nil) when the record is absent.
type Store interface {
	GetConcert(id string) (*models.Concert, error)
	ListActiveConcerts() ([]models.Concert, error)
	SaveConcert(c models.Concert) error

	CreateConversation(c models.Conversation) error
	GetConversation(id string) (*models.Conversation, error)
	UpdateConversationMessages(id string, messages []models.Message, lastActivityAt time.Time) error
	UpdateConversationStatus(id string, status models.ConversationStatus, at time.Time) error
	ListConversationsForConcert(concertID string) ([]models.Conversation, error)

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite file path as the store DSN.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string as the store DSN.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL-style DSNs and "sqlite"
// for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded in-memory store used in tests and as the
// default backend when no DSN is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	concerts      map[string]models.Concert
	conversations map[string]models.Conversation
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		concerts:      make(map[string]models.Concert),
		conversations: make(map[string]models.Conversation),
	}
}

func (s *InMemoryStore) GetConcert(id string) (*models.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.concerts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *InMemoryStore) ListActiveConcerts() ([]models.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var concerts []models.Concert
	for _, c := range s.concerts {
		if c.IsActive {
			concerts = append(concerts, c)
		}
	}
	return concerts, nil
}

func (s *InMemoryStore) SaveConcert(c models.Concert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concerts[c.ID] = c
	return nil
}

func (s *InMemoryStore) CreateConversation(c models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *InMemoryStore) GetConversation(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	// Copy the message list so callers cannot alias the stored slice.
	c.Messages = append([]models.Message(nil), c.Messages...)
	return &c, nil
}

func (s *InMemoryStore) UpdateConversationMessages(id string, messages []models.Message, lastActivityAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return models.ErrConversationNotFound
	}
	c.Messages = append([]models.Message(nil), messages...)
	c.LastActivityAt = lastActivityAt
	s.conversations[id] = c
	return nil
}

func (s *InMemoryStore) UpdateConversationStatus(id string, status models.ConversationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return models.ErrConversationNotFound
	}
	c.Status = status
	c.LastActivityAt = at
	if status == models.ConversationStatusCompleted {
		c.CompletedAt = &at
	}
	s.conversations[id] = c
	return nil
}

func (s *InMemoryStore) ListConversationsForConcert(concertID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var conversations []models.Conversation
	for _, c := range s.conversations {
		if c.ConcertID == concertID {
			conversations = append(conversations, c)
		}
	}
	return conversations, nil
}

func (s *InMemoryStore) Close() error { return nil }
