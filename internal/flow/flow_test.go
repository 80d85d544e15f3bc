package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/genai"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/store"
)

// fakeClient is a canned model client for engine tests.
type fakeClient struct {
	response string
	err      error

	calls            int
	lastSystemPrompt string
	lastMessages     []genai.Message
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt string, messages []genai.Message) (string, error) {
	f.calls++
	f.lastSystemPrompt = systemPrompt
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func seedStore(t *testing.T) (*store.InMemoryStore, string) {
	t.Helper()
	st := store.NewInMemoryStore()
	concert := models.Concert{
		ID:           "concert-1",
		Title:        "Winter Concert",
		Date:         time.Date(2026, time.December, 5, 19, 30, 0, 0, time.UTC),
		Venue:        "Main Hall",
		Organization: "City Philharmonic",
		Program: []models.ProgramItem{
			{ID: "p1", Composer: "Sibelius", WorkTitle: "Symphony No. 2"},
			{ID: "p2", Composer: "Grieg", WorkTitle: "Piano Concerto"},
		},
		IsActive: true,
	}
	if err := st.SaveConcert(concert); err != nil {
		t.Fatalf("failed to seed concert: %v", err)
	}
	conversation := models.Conversation{
		ID:        "conv-1",
		ConcertID: "concert-1",
		Participant: models.Participant{
			Name:            "Maria",
			Role:            models.RoleConductor,
			PiecesToDiscuss: []string{"p1"},
		},
		Status:         models.ConversationStatusInProgress,
		StartedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	if err := st.CreateConversation(conversation); err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	return st, conversation.ID
}

func TestProcessTurnInitialization(t *testing.T) {
	st, convID := seedStore(t)
	client := &fakeClient{response: "Hello Maria! Excited to talk about the Sibelius."}
	engine := NewEngine(st, client, nil, nil)

	result, err := engine.ProcessTurn(context.Background(), convID, StartSentinel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsComplete {
		t.Error("greeting should not complete the conversation")
	}
	if result.Message != client.response {
		t.Errorf("unexpected reply: %q", result.Message)
	}

	// The start sentinel is never stored; only the greeting is.
	conv, _ := st.GetConversation(convID)
	if len(conv.Messages) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Role != models.MessageRoleAssistant {
		t.Errorf("stored message role = %q, want assistant", conv.Messages[0].Role)
	}

	// The model sees a synthetic instruction, not the sentinel.
	if len(client.lastMessages) != 1 || strings.Contains(client.lastMessages[0].Content, StartSentinel) {
		t.Errorf("unexpected initialization messages: %+v", client.lastMessages)
	}
	if !strings.Contains(client.lastSystemPrompt, "Sibelius") {
		t.Error("system prompt should describe the discussed program")
	}
	// Only the selected piece is in the prompt.
	if strings.Contains(client.lastSystemPrompt, "Grieg") {
		t.Error("system prompt should be limited to pieces the participant chose")
	}
}

func TestProcessTurnEmptyHistoryIsInitialization(t *testing.T) {
	st, convID := seedStore(t)
	client := &fakeClient{response: "Welcome!"}
	engine := NewEngine(st, client, nil, nil)

	if _, err := engine.ProcessTurn(context.Background(), convID, "I love this program"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv, _ := st.GetConversation(convID)
	if len(conv.Messages) != 1 {
		t.Fatalf("a turn on an empty conversation must not store the user message, got %d messages", len(conv.Messages))
	}
}

func TestProcessTurnContinuation(t *testing.T) {
	st, convID := seedStore(t)
	st.UpdateConversationMessages(convID, []models.Message{
		{ID: "m1", Role: models.MessageRoleAssistant, Content: "Hi! What drew you to the Sibelius?", Timestamp: time.Now()},
	}, time.Now())

	client := &fakeClient{response: "That passage is striking. Which measures?"}
	engine := NewEngine(st, client, nil, nil)

	result, err := engine.ProcessTurn(context.Background(), convID, "The brass chorale around mm. 245-260 gives me chills.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsComplete {
		t.Error("turn should not be complete")
	}

	conv, _ := st.GetConversation(convID)
	if len(conv.Messages) != 3 {
		t.Fatalf("expected 3 stored messages, got %d", len(conv.Messages))
	}
	userMsg := conv.Messages[1]
	if userMsg.Role != models.MessageRoleUser {
		t.Fatalf("expected user message second, got %q", userMsg.Role)
	}
	if len(userMsg.ScoreReferences) != 1 || userMsg.ScoreReferences[0].Value != "mm. 245-260" {
		t.Errorf("user score references not extracted: %+v", userMsg.ScoreReferences)
	}
	if userMsg.ScoreReferences[0].PieceID != "p1" {
		t.Errorf("reference attributed to %q, want p1", userMsg.ScoreReferences[0].PieceID)
	}
	if conv.Messages[2].Role != models.MessageRoleAssistant {
		t.Errorf("expected assistant message last, got %q", conv.Messages[2].Role)
	}

	// History plus the new utterance went to the model.
	if len(client.lastMessages) != 2 {
		t.Errorf("expected 2 messages sent to model, got %d", len(client.lastMessages))
	}
}

func TestProcessTurnCompletionSentinel(t *testing.T) {
	st, convID := seedStore(t)
	st.UpdateConversationMessages(convID, []models.Message{
		{ID: "m1", Role: models.MessageRoleAssistant, Content: "Anything else?", Timestamp: time.Now()},
	}, time.Now())

	client := &fakeClient{response: "Thank you so much, Maria! [CONVERSATION_COMPLETE]"}
	engine := NewEngine(st, client, nil, nil)

	result, err := engine.ProcessTurn(context.Background(), convID, "No, that's everything.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsComplete {
		t.Error("expected completion signal")
	}
	if strings.Contains(result.Message, "[CONVERSATION_COMPLETE]") {
		t.Error("sentinel must be stripped from the reply")
	}

	conv, _ := st.GetConversation(convID)
	for _, m := range conv.Messages {
		if strings.Contains(m.Content, "[CONVERSATION_COMPLETE]") {
			t.Errorf("stored message contains the sentinel: %q", m.Content)
		}
	}
	// The engine reports completion but does not transition status itself.
	if conv.Status != models.ConversationStatusInProgress {
		t.Errorf("status = %q, want in_progress", conv.Status)
	}
}

func TestProcessTurnModelFailurePersistsNothing(t *testing.T) {
	st, convID := seedStore(t)
	st.UpdateConversationMessages(convID, []models.Message{
		{ID: "m1", Role: models.MessageRoleAssistant, Content: "Hello!", Timestamp: time.Now()},
	}, time.Now())

	client := &fakeClient{err: errors.New("rate limited")}
	engine := NewEngine(st, client, nil, nil)

	_, err := engine.ProcessTurn(context.Background(), convID, "The coda is tricky.")
	if !errors.Is(err, models.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}

	conv, _ := st.GetConversation(convID)
	if len(conv.Messages) != 1 {
		t.Errorf("a failed turn must persist nothing, got %d messages", len(conv.Messages))
	}
}

func TestProcessTurnTerminalConversation(t *testing.T) {
	st, convID := seedStore(t)
	st.UpdateConversationStatus(convID, models.ConversationStatusCompleted, time.Now())

	client := &fakeClient{response: "should never be called"}
	engine := NewEngine(st, client, nil, nil)

	_, err := engine.ProcessTurn(context.Background(), convID, "One more thing...")
	if !errors.Is(err, models.ErrConversationComplete) {
		t.Fatalf("expected ErrConversationComplete, got %v", err)
	}
	if client.calls != 0 {
		t.Error("model must not be called for terminal conversations")
	}

	conv, _ := st.GetConversation(convID)
	if len(conv.Messages) != 0 {
		t.Errorf("message list changed on rejected turn: %d messages", len(conv.Messages))
	}
}

func TestProcessTurnAbandonedConversation(t *testing.T) {
	st, convID := seedStore(t)
	st.UpdateConversationStatus(convID, models.ConversationStatusAbandoned, time.Now())

	engine := NewEngine(st, &fakeClient{response: "hi"}, nil, nil)
	_, err := engine.ProcessTurn(context.Background(), convID, "hello?")
	if !errors.Is(err, models.ErrConversationComplete) {
		t.Fatalf("expected ErrConversationComplete, got %v", err)
	}
}

func TestProcessTurnConversationNotFound(t *testing.T) {
	st, _ := seedStore(t)
	engine := NewEngine(st, &fakeClient{response: "hi"}, nil, nil)
	_, err := engine.ProcessTurn(context.Background(), "missing", "hello")
	if !errors.Is(err, models.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestMarkComplete(t *testing.T) {
	st, convID := seedStore(t)
	engine := NewEngine(st, &fakeClient{}, nil, nil)

	if err := engine.MarkComplete(context.Background(), convID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv, _ := st.GetConversation(convID)
	if conv.Status != models.ConversationStatusCompleted {
		t.Errorf("status = %q, want completed", conv.Status)
	}
	if conv.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	// Idempotent.
	if err := engine.MarkComplete(context.Background(), convID); err != nil {
		t.Errorf("repeat completion should succeed, got %v", err)
	}

	if err := engine.MarkComplete(context.Background(), "missing"); !errors.Is(err, models.ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}
