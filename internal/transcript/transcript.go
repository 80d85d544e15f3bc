// Package transcript renders finished (or in-progress) conversations for
// export, as a plain-text transcript or a JSON document.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/prompt"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════════"
	lightRule = "───────────────────────────────────────────────────────────────"
)

// FormatText renders the conversation as a human-readable transcript.
// generatedAt is stamped into the footer so rendering stays deterministic
// for a fixed input.
func FormatText(conversation *models.Conversation, concert *models.Concert, generatedAt time.Time) string {
	participant := conversation.Participant

	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString("CONCERT SURVEY TRANSCRIPT\n")
	b.WriteString(heavyRule + "\n\n")

	fmt.Fprintf(&b, "Concert: %s\n", concert.Title)
	fmt.Fprintf(&b, "Organization: %s\n", concert.Organization)
	fmt.Fprintf(&b, "Date: %s\n", concert.Date.Format("1/2/2006"))
	fmt.Fprintf(&b, "Venue: %s\n\n", concert.Venue)

	b.WriteString(lightRule + "\n")
	b.WriteString("PARTICIPANT\n")
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "Name: %s\n", participant.Name)
	fmt.Fprintf(&b, "Role: %s\n", strings.ReplaceAll(string(participant.Role), "_", " "))
	if participant.Instrument != "" {
		fmt.Fprintf(&b, "Instrument: %s\n", participant.Instrument)
	}
	b.WriteString("\nPieces discussed:\n")
	for _, piece := range conversation.DiscussedPieces(concert) {
		fmt.Fprintf(&b, "  • %s: %s\n", piece.Composer, piece.WorkTitle)
	}
	b.WriteString("\n")

	b.WriteString(lightRule + "\n")
	b.WriteString("CONVERSATION\n")
	b.WriteString(lightRule + "\n\n")

	for _, message := range conversation.Messages {
		speaker := strings.ToUpper(participant.Name)
		if message.Role == models.MessageRoleAssistant {
			speaker = "INTERVIEWER"
		}
		content := strings.TrimSpace(strings.ReplaceAll(message.Content, prompt.CompletionSentinel, ""))
		fmt.Fprintf(&b, "[%s]\n%s\n\n", speaker, content)
	}

	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(&b, "Generated: %s", generatedAt.UTC().Format(time.RFC3339))

	return b.String()
}

// concertSummary is the trimmed concert view embedded in JSON exports.
type concertSummary struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Organization string               `json:"organization"`
	Date         time.Time            `json:"date"`
	Venue        string               `json:"venue"`
	Program      []models.ProgramItem `json:"program"`
}

type jsonExport struct {
	Conversation *models.Conversation `json:"conversation"`
	Concert      concertSummary       `json:"concert"`
}

// ExportJSON renders the conversation with its concert context as an
// indented JSON document.
func ExportJSON(conversation *models.Conversation, concert *models.Concert) ([]byte, error) {
	doc := jsonExport{
		Conversation: conversation,
		Concert: concertSummary{
			ID:           concert.ID,
			Title:        concert.Title,
			Organization: concert.Organization,
			Date:         concert.Date,
			Venue:        concert.Venue,
			Program:      concert.Program,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript export: %w", err)
	}
	return data, nil
}
