package store

import (
	"os"
	"testing"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

// Requires a running PostgreSQL instance; set TEST_DATABASE_URL to run.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(WithPostgresDSN(dsn))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer s.Close()

	s.db.Exec("DELETE FROM conversations")
	s.db.Exec("DELETE FROM concerts")

	concert := models.Concert{
		ID:        "pg-c1",
		Title:     "Test Concert",
		Date:      time.Now().UTC(),
		Program:   []models.ProgramItem{{ID: "p1", Composer: "Bartók", WorkTitle: "Concerto for Orchestra"}},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveConcert(concert); err != nil {
		t.Fatalf("failed to save concert: %v", err)
	}
	got, err := s.GetConcert("pg-c1")
	if err != nil || got == nil || len(got.Program) != 1 {
		t.Fatalf("concert round trip failed: (%v, %v)", got, err)
	}

	conv := models.Conversation{
		ID:        "pg-conv1",
		ConcertID: "pg-c1",
		Participant: models.Participant{
			Name: "Test", Role: models.RoleConductor, PiecesToDiscuss: []string{"p1"},
		},
		Status:         models.ConversationStatusInProgress,
		StartedAt:      time.Now().UTC(),
		LastActivityAt: time.Now().UTC(),
	}
	if err := s.CreateConversation(conv); err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	if err := s.UpdateConversationStatus("pg-conv1", models.ConversationStatusCompleted, time.Now().UTC()); err != nil {
		t.Fatalf("failed to complete conversation: %v", err)
	}
	loaded, err := s.GetConversation("pg-conv1")
	if err != nil || loaded == nil {
		t.Fatalf("conversation round trip failed: (%v, %v)", loaded, err)
	}
	if loaded.Status != models.ConversationStatusCompleted || loaded.CompletedAt == nil {
		t.Errorf("completion not persisted: %+v", loaded)
	}
}
