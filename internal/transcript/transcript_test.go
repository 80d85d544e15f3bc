package transcript

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

func fixtureConcert() *models.Concert {
	return &models.Concert{
		ID:           "concert-1",
		Title:        "Spring Gala",
		Date:         time.Date(2026, time.April, 18, 20, 0, 0, 0, time.UTC),
		Venue:        "Grand Theatre",
		Organization: "Chamber Society",
		Program: []models.ProgramItem{
			{ID: "p1", Composer: "Ravel", WorkTitle: "String Quartet in F"},
			{ID: "p2", Composer: "Debussy", WorkTitle: "String Quartet in G minor"},
		},
	}
}

func fixtureConversation() *models.Conversation {
	return &models.Conversation{
		ID:        "conv-1",
		ConcertID: "concert-1",
		Participant: models.Participant{
			Name:            "Elena",
			Role:            models.RolePrincipalPlayer,
			Instrument:      "Violin",
			PiecesToDiscuss: []string{"p1"},
		},
		Messages: []models.Message{
			{ID: "m1", Role: models.MessageRoleAssistant, Content: "Hi Elena! Tell me about the Ravel."},
			{ID: "m2", Role: models.MessageRoleUser, Content: "The second movement pizzicato is the heart of it."},
		},
		Status: models.ConversationStatusCompleted,
	}
}

func TestFormatText(t *testing.T) {
	generatedAt := time.Date(2026, time.April, 20, 12, 0, 0, 0, time.UTC)
	text := FormatText(fixtureConversation(), fixtureConcert(), generatedAt)

	for _, want := range []string{
		"CONCERT SURVEY TRANSCRIPT",
		"Concert: Spring Gala",
		"Organization: Chamber Society",
		"Date: 4/18/2026",
		"Venue: Grand Theatre",
		"PARTICIPANT",
		"Name: Elena",
		"Role: principal player",
		"Instrument: Violin",
		"  • Ravel: String Quartet in F",
		"CONVERSATION",
		"[INTERVIEWER]",
		"Hi Elena! Tell me about the Ravel.",
		"[ELENA]",
		"Generated: 2026-04-20T12:00:00Z",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q", want)
		}
	}

	// Only selected pieces are listed.
	if strings.Contains(text, "Debussy") {
		t.Error("transcript should list only the pieces the participant discussed")
	}
}

func TestFormatTextDeterministic(t *testing.T) {
	generatedAt := time.Date(2026, time.April, 20, 12, 0, 0, 0, time.UTC)
	a := FormatText(fixtureConversation(), fixtureConcert(), generatedAt)
	b := FormatText(fixtureConversation(), fixtureConcert(), generatedAt)
	if a != b {
		t.Error("rendering the same conversation twice must produce identical output")
	}
}

func TestFormatTextScrubsSentinel(t *testing.T) {
	conv := fixtureConversation()
	conv.Messages = append(conv.Messages, models.Message{
		ID:   "m3",
		Role: models.MessageRoleAssistant,
		// Defensive: stored content should already be clean.
		Content: "Thanks for your time! [CONVERSATION_COMPLETE]",
	})
	text := FormatText(conv, fixtureConcert(), time.Now())
	if strings.Contains(text, "[CONVERSATION_COMPLETE]") {
		t.Error("transcript must not contain the completion sentinel")
	}
	if !strings.Contains(text, "Thanks for your time!") {
		t.Error("message content around the sentinel must survive")
	}
}

func TestFormatTextEmptyConversation(t *testing.T) {
	conv := fixtureConversation()
	conv.Messages = nil
	text := FormatText(conv, fixtureConcert(), time.Now())

	if !strings.Contains(text, "CONCERT SURVEY TRANSCRIPT") || !strings.Contains(text, "CONVERSATION") {
		t.Error("headers must render even with no messages")
	}
	if strings.Contains(text, "[INTERVIEWER]") {
		t.Error("no speaker blocks expected for an empty conversation")
	}
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(fixtureConversation(), fixtureConcert())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Conversation models.Conversation `json:"conversation"`
		Concert      struct {
			ID      string               `json:"id"`
			Title   string               `json:"title"`
			Program []models.ProgramItem `json:"program"`
		} `json:"concert"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.Conversation.ID != "conv-1" {
		t.Errorf("conversation id = %q", doc.Conversation.ID)
	}
	if doc.Concert.Title != "Spring Gala" || len(doc.Concert.Program) != 2 {
		t.Errorf("unexpected concert payload: %+v", doc.Concert)
	}
}
