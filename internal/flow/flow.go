// Package flow implements the conversation engine: one survey turn per call,
// from resolving the conversation through persisting the updated message list.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/events"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/genai"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/metrics"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/prompt"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/scoreref"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/store"
	"github.com/google/uuid"
)

// Engine orchestrates conversational turns. Each turn is one isolated unit
// of work: the model call is the only blocking operation, and a failed call
// persists nothing.
type Engine struct {
	st        store.Store
	client    genai.ClientInterface
	publisher *events.Publisher // optional, nil-safe
	mtr       *metrics.Metrics  // optional, nil-safe
}

// NewEngine creates a conversation engine with its dependencies.
func NewEngine(st store.Store, client genai.ClientInterface, publisher *events.Publisher, mtr *metrics.Metrics) *Engine {
	slog.Debug("flow.NewEngine: creating engine", "hasPublisher", publisher != nil, "hasMetrics", mtr != nil)
	return &Engine{st: st, client: client, publisher: publisher, mtr: mtr}
}

// ProcessTurn executes exactly one conversational turn and returns the
// assistant's reply, its extracted score references, and the completion flag.
//
// An incoming message equal to StartSentinel — or any message arriving on a
// conversation with zero messages — is an initialization turn: the model is
// asked for its greeting and no user message is stored. The caller is
// responsible for the separate, idempotent transition to completed when
// IsComplete is reported; the engine itself never changes conversation
// status.
func (e *Engine) ProcessTurn(ctx context.Context, conversationID, userMessage string) (*models.TurnResult, error) {
	conversation, err := e.st.GetConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conversation == nil {
		slog.Warn("Engine.ProcessTurn: conversation not found", "conversationID", conversationID)
		return nil, models.ErrConversationNotFound
	}
	if conversation.IsTerminal() {
		slog.Warn("Engine.ProcessTurn: turn rejected on terminal conversation", "conversationID", conversationID, "status", conversation.Status)
		return nil, models.ErrConversationComplete
	}

	concert, err := e.st.GetConcert(conversation.ConcertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load concert: %w", err)
	}
	if concert == nil {
		slog.Error("Engine.ProcessTurn: owning concert not found", "conversationID", conversationID, "concertID", conversation.ConcertID)
		return nil, models.ErrConcertNotFound
	}

	pieces := conversation.DiscussedPieces(concert)
	pieceIDs := make([]string, 0, len(pieces))
	for _, p := range pieces {
		pieceIDs = append(pieceIDs, p.ID)
	}

	systemPrompt := prompt.BuildSystemPrompt(concert, &conversation.Participant, pieces)

	isInitialization := userMessage == StartSentinel || len(conversation.Messages) == 0
	var apiMessages []genai.Message
	if isInitialization {
		apiMessages = []genai.Message{genai.UserMessage(initializationInstruction)}
	} else {
		apiMessages = prompt.BuildMessagesForAPI(conversation.Messages, userMessage)
	}

	slog.Debug("Engine.ProcessTurn: calling model",
		"conversationID", conversationID,
		"initialization", isInitialization,
		"historyLength", len(conversation.Messages),
		"pieceCount", len(pieces))

	modelStart := time.Now()
	rawResponse, err := e.client.Complete(ctx, systemPrompt, apiMessages)
	e.mtr.ObserveModelCall(time.Since(modelStart), err == nil)
	if err != nil {
		slog.Error("Engine.ProcessTurn: model call failed", "error", err, "conversationID", conversationID)
		e.mtr.RecordTurn("model_error")
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}

	cleanedResponse, isComplete := StripCompletionSentinel(rawResponse)

	var userRefs []models.ScoreReference
	if !isInitialization && userMessage != StartSentinel {
		userRefs = scoreref.Extract(userMessage, pieceIDs)
	}
	assistantRefs := scoreref.Extract(cleanedResponse, pieceIDs)

	now := time.Now()
	updated := append([]models.Message(nil), conversation.Messages...)
	if !isInitialization {
		updated = append(updated, models.Message{
			ID:              uuid.NewString(),
			Role:            models.MessageRoleUser,
			Content:         userMessage,
			Timestamp:       now,
			ScoreReferences: userRefs,
		})
	}
	updated = append(updated, models.Message{
		ID:              uuid.NewString(),
		Role:            models.MessageRoleAssistant,
		Content:         cleanedResponse,
		Timestamp:       now,
		ScoreReferences: assistantRefs,
	})

	if err := e.st.UpdateConversationMessages(conversationID, updated, now); err != nil {
		slog.Error("Engine.ProcessTurn: failed to persist messages", "error", err, "conversationID", conversationID)
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	e.mtr.RecordTurn("ok")
	if isComplete {
		e.mtr.RecordCompletionSignal()
	}
	e.publisher.PublishTurn(events.ConversationEvent{
		ConversationID: conversationID,
		ConcertID:      conversation.ConcertID,
		IsComplete:     isComplete,
		ReferenceCount: len(userRefs) + len(assistantRefs),
		Timestamp:      now.UTC(),
	})

	slog.Info("Engine.ProcessTurn: turn completed",
		"conversationID", conversationID,
		"initialization", isInitialization,
		"isComplete", isComplete,
		"assistantRefs", len(assistantRefs),
		"userRefs", len(userRefs))

	return &models.TurnResult{
		Message:         cleanedResponse,
		ScoreReferences: assistantRefs,
		IsComplete:      isComplete,
	}, nil
}

// MarkComplete transitions a conversation to the completed status. The
// transition is idempotent: completing an already-completed conversation is
// not an error.
func (e *Engine) MarkComplete(ctx context.Context, conversationID string) error {
	conversation, err := e.st.GetConversation(conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if conversation == nil {
		return models.ErrConversationNotFound
	}
	if conversation.Status == models.ConversationStatusCompleted {
		slog.Debug("Engine.MarkComplete: already completed", "conversationID", conversationID)
		return nil
	}

	now := time.Now()
	if err := e.st.UpdateConversationStatus(conversationID, models.ConversationStatusCompleted, now); err != nil {
		return fmt.Errorf("failed to complete conversation: %w", err)
	}

	e.mtr.RecordConversationCompleted()
	e.publisher.PublishCompleted(events.ConversationEvent{
		ConversationID: conversationID,
		ConcertID:      conversation.ConcertID,
		IsComplete:     true,
		Timestamp:      now.UTC(),
	})
	slog.Info("Engine.MarkComplete: conversation completed", "conversationID", conversationID)
	return nil
}
