// Package models defines the core data structures for the concert survey service.
//
// It includes the concert program, participant, conversation, and score
// reference types shared across modules, along with request validation.
package models

import (
	"errors"
	"time"
)

// ParticipantRole identifies the respondent's relationship to the concert.
type ParticipantRole string

const (
	RoleConductor       ParticipantRole = "conductor"
	RoleSoloist         ParticipantRole = "soloist"
	RolePrincipalPlayer ParticipantRole = "principal_player"
	RoleSectionPlayer   ParticipantRole = "section_player"
	RoleArtisticPlanner ParticipantRole = "artistic_planner"
	RoleComposer        ParticipantRole = "composer"
	RoleOther           ParticipantRole = "other"
)

// IsValidParticipantRole checks if the given role is part of the fixed enumeration.
func IsValidParticipantRole(r ParticipantRole) bool {
	switch r {
	case RoleConductor, RoleSoloist, RolePrincipalPlayer, RoleSectionPlayer,
		RoleArtisticPlanner, RoleComposer, RoleOther:
		return true
	default:
		return false
	}
}

// ScoreReferenceType classifies an extracted score citation.
type ScoreReferenceType string

const (
	ReferenceTypeMeasure       ScoreReferenceType = "measure"
	ReferenceTypeRehearsalMark ScoreReferenceType = "rehearsal_mark"
	ReferenceTypeMovement      ScoreReferenceType = "movement"
	ReferenceTypeSection       ScoreReferenceType = "section"
	ReferenceTypeOther         ScoreReferenceType = "other"
)

// MessageRole identifies which side of the conversation produced a message.
type MessageRole string

const (
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleUser      MessageRole = "user"
)

// ConversationStatus tracks the lifecycle of a survey session.
// Both completed and abandoned are terminal.
type ConversationStatus string

const (
	ConversationStatusInProgress ConversationStatus = "in_progress"
	ConversationStatusCompleted  ConversationStatus = "completed"
	ConversationStatusAbandoned  ConversationStatus = "abandoned"
)

// Error variables for better error handling and testability
var (
	ErrConcertNotFound      = errors.New("concert not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationComplete = errors.New("conversation already complete")
	ErrModelUnavailable     = errors.New("model service unavailable")

	ErrEmptyParticipantName = errors.New("participant name cannot be empty")
	ErrInvalidRole          = errors.New("invalid participant role")
	ErrEmptyPieceSelection  = errors.New("at least one piece must be selected")
	ErrEmptyConcertID       = errors.New("concertId is required")
	ErrEmptyMessage         = errors.New("message cannot be empty")
	ErrEmptyConcertTitle    = errors.New("concert title cannot be empty")
	ErrEmptyProgram         = errors.New("concert program cannot be empty")
)

// ProgramItem is one musical work in a concert program.
type ProgramItem struct {
	ID            string   `json:"id"`
	Composer      string   `json:"composer"`
	ComposerDates string   `json:"composerDates,omitempty"`
	WorkTitle     string   `json:"workTitle"`
	Movements     []string `json:"movements,omitempty"`
	Duration      int      `json:"duration,omitempty"` // minutes
	Soloist       string   `json:"soloist,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Order         int      `json:"order"` // display sort only, need not be contiguous
}

// Concert is read-only context for the survey core.
type Concert struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Date         time.Time     `json:"date"`
	Venue        string        `json:"venue"`
	Organization string        `json:"organization"`
	Program      []ProgramItem `json:"program"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Participant is a survey respondent's profile for one conversation.
type Participant struct {
	Name            string          `json:"name"`
	Role            ParticipantRole `json:"role"`
	Instrument      string          `json:"instrument,omitempty"`
	PiecesToDiscuss []string        `json:"piecesToDiscuss"`
}

// Validate checks the participant fields required to open a conversation.
func (p *Participant) Validate() error {
	if p.Name == "" {
		return ErrEmptyParticipantName
	}
	if !IsValidParticipantRole(p.Role) {
		return ErrInvalidRole
	}
	if len(p.PiecesToDiscuss) == 0 {
		return ErrEmptyPieceSelection
	}
	return nil
}

// ScoreReference is an extracted citation to a location in a musical work.
// Created once per extraction call, immutable, attached to exactly one message.
type ScoreReference struct {
	PieceID       string             `json:"pieceId"`
	ReferenceType ScoreReferenceType `json:"referenceType"`
	Value         string             `json:"value"`
	RawText       string             `json:"rawText"`
	Context       string             `json:"context"`
}

// Message is one turn in a conversation. Messages are append-only and never
// reordered; content never contains the completion sentinel after
// post-processing.
type Message struct {
	ID              string           `json:"id"`
	Role            MessageRole      `json:"role"`
	Content         string           `json:"content"`
	Timestamp       time.Time        `json:"timestamp"`
	ScoreReferences []ScoreReference `json:"scoreReferences,omitempty"`
}

// Conversation is the aggregate survey session.
type Conversation struct {
	ID             string             `json:"id"`
	ConcertID      string             `json:"concertId"`
	Participant    Participant        `json:"participant"`
	Messages       []Message          `json:"messages"`
	Status         ConversationStatus `json:"status"`
	StartedAt      time.Time          `json:"startedAt"`
	CompletedAt    *time.Time         `json:"completedAt,omitempty"`
	LastActivityAt time.Time          `json:"lastActivityAt"`
}

// IsTerminal reports whether the conversation accepts no further turns.
func (c *Conversation) IsTerminal() bool {
	return c.Status == ConversationStatusCompleted || c.Status == ConversationStatusAbandoned
}

// DiscussedPieces returns the subset of the concert program the participant
// agreed to discuss, preserving program order.
func (c *Conversation) DiscussedPieces(concert *Concert) []ProgramItem {
	selected := make(map[string]bool, len(c.Participant.PiecesToDiscuss))
	for _, id := range c.Participant.PiecesToDiscuss {
		selected[id] = true
	}
	var pieces []ProgramItem
	for _, item := range concert.Program {
		if selected[item.ID] {
			pieces = append(pieces, item)
		}
	}
	return pieces
}

// CreateConversationRequest is the payload for opening a new conversation.
type CreateConversationRequest struct {
	ConcertID   string      `json:"concertId"`
	Participant Participant `json:"participant"`
}

// Validate performs validation on a CreateConversationRequest.
func (r *CreateConversationRequest) Validate() error {
	if r.ConcertID == "" {
		return ErrEmptyConcertID
	}
	return r.Participant.Validate()
}

// TurnRequest is the payload for advancing a conversation by one turn.
type TurnRequest struct {
	Message string `json:"message"`
}

// Validate checks the turn payload.
func (r *TurnRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// CreateConcertRequest is the payload for seeding a concert.
type CreateConcertRequest struct {
	Title        string        `json:"title"`
	Date         time.Time     `json:"date"`
	Venue        string        `json:"venue"`
	Organization string        `json:"organization"`
	Program      []ProgramItem `json:"program"`
	IsActive     bool          `json:"isActive"`
}

// Validate checks the concert seed payload.
func (r *CreateConcertRequest) Validate() error {
	if r.Title == "" {
		return ErrEmptyConcertTitle
	}
	if len(r.Program) == 0 {
		return ErrEmptyProgram
	}
	return nil
}

// TurnResult is what one conversational turn returns to the caller.
type TurnResult struct {
	Message         string           `json:"message"`
	ScoreReferences []ScoreReference `json:"scoreReferences"`
	IsComplete      bool             `json:"isComplete"`
}
