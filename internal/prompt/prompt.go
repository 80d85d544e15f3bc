// Package prompt assembles the interviewer system prompt and the role-tagged
// message sequence sent to the model.
//
// Both builders are pure: missing optional fields are simply omitted from
// the rendered output, and there are no failure modes.
package prompt

import (
	"fmt"
	"strings"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/genai"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
)

// CompletionSentinel is the exact phrase the model must emit at the end of
// its final message to signal that the interview is finished.
const CompletionSentinel = "[CONVERSATION_COMPLETE]"

// FormatRole renders a participant role for display ("principal_player" ->
// "Principal Player").
func FormatRole(role models.ParticipantRole) string {
	words := strings.Split(string(role), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// BuildSystemPrompt produces the natural-language instruction block for the
// interviewer: persona rules, participant and concert identification, the
// numbered list of pieces to discuss, and the completion-sentinel protocol.
func BuildSystemPrompt(concert *models.Concert, participant *models.Participant, pieces []models.ProgramItem) string {
	var b strings.Builder

	b.WriteString("You are a warm, knowledgeable music interviewer conducting a brief conversation with a musician about an upcoming performance. Your goal is to gather insights that will help audience members appreciate the music more deeply through score annotations.\n\n")

	b.WriteString("## Your Persona\n")
	b.WriteString("- You are genuinely curious and enthusiastic about music\n")
	b.WriteString("- You have deep knowledge of classical music repertoire, history, and performance practice\n")
	b.WriteString("- You ask follow-up questions when something interesting comes up\n")
	b.WriteString("- You're conversational, not formal or stiff\n")
	b.WriteString("- You use the participant's name occasionally (but not excessively)\n")
	b.WriteString("- You acknowledge and build on what they share\n")
	b.WriteString("- You're concise - your messages should rarely exceed 2-3 sentences\n\n")

	b.WriteString("## The Participant\n")
	fmt.Fprintf(&b, "- Name: %s\n", participant.Name)
	fmt.Fprintf(&b, "- Role: %s\n", FormatRole(participant.Role))
	if participant.Instrument != "" {
		fmt.Fprintf(&b, "- Instrument/Voice: %s\n", participant.Instrument)
	}
	b.WriteString("\n")

	b.WriteString("## The Concert\n")
	fmt.Fprintf(&b, "- %s\n", concert.Organization)
	fmt.Fprintf(&b, "- %s\n", concert.Title)
	fmt.Fprintf(&b, "- Date: %s\n", concert.Date.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "- Venue: %s\n\n", concert.Venue)

	b.WriteString("## Program to Discuss\n")
	for i, piece := range pieces {
		fmt.Fprintf(&b, "%d. %s", i+1, piece.Composer)
		if piece.ComposerDates != "" {
			fmt.Fprintf(&b, " (%s)", piece.ComposerDates)
		}
		fmt.Fprintf(&b, ": %s\n", piece.WorkTitle)
		if len(piece.Movements) > 0 {
			fmt.Fprintf(&b, "   Movements: %s\n", strings.Join(piece.Movements, ", "))
		}
		if piece.Soloist != "" {
			fmt.Fprintf(&b, "   Soloist: %s\n", piece.Soloist)
		}
		if piece.Notes != "" {
			fmt.Fprintf(&b, "   Context: %s\n", piece.Notes)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Conversation Goals\n")
	b.WriteString("Gather insights in these areas (naturally, not as a checklist):\n")
	b.WriteString("1. **Interpretation choices**: What artistic decisions are being made? Why?\n")
	b.WriteString("2. **Specific passages**: Are there particular moments they find interesting, challenging, or important?\n")
	b.WriteString("3. **Historical/musical context**: What should listeners know about this work?\n")
	b.WriteString("4. **Emotional intent**: What feelings or ideas do they hope to convey?\n")
	b.WriteString("5. **Listening tips**: What should the audience pay attention to?\n\n")

	b.WriteString("## Important Guidelines\n")
	b.WriteString("- Start with a warm greeting and an easy opening question\n")
	b.WriteString("- Discuss one piece at a time, going deeper before moving on\n")
	b.WriteString("- When they mention specific measures or passages, ask for details\n")
	b.WriteString("- Use musical terminology appropriately but keep things accessible\n")
	b.WriteString("- Encourage specific references: \"Which measures?\" \"Around what rehearsal mark?\"\n")
	b.WriteString("- If they give short answers, gently probe for more detail\n")
	b.WriteString("- Keep the conversation moving - don't linger too long on one topic\n")
	b.WriteString("- When transitioning between pieces, do so naturally\n")
	b.WriteString("- After covering all pieces, wrap up warmly and thank them\n\n")

	b.WriteString("## Score Reference Format\n")
	b.WriteString("When participants mention specific locations, encourage formats like:\n")
	b.WriteString("- \"measures 34-56\" or \"mm. 34-56\"\n")
	b.WriteString("- \"Rehearsal letter B\" or \"Reh. B\"\n")
	b.WriteString("- \"the development section\"\n")
	b.WriteString("- \"the coda\"\n")
	b.WriteString("- \"movement II, opening\"\n\n")

	b.WriteString("## Ending the Conversation\n")
	fmt.Fprintf(&b, "When you've covered all the pieces they wanted to discuss and feel the conversation has reached a natural conclusion, end your final message with the exact phrase: %s\n\n", CompletionSentinel)
	b.WriteString("This signals the system to wrap up. Don't use this phrase until you've genuinely finished the conversation.\n\n")

	b.WriteString("Begin the conversation now with a warm greeting.")

	return b.String()
}

// BuildMessagesForAPI maps stored conversation messages to role-tagged
// content pairs in original order, appending the new user utterance (when
// non-empty) as the final element. The system prompt is transmitted on a
// separate channel and is never part of the sequence.
func BuildMessagesForAPI(history []models.Message, newUserMessage string) []genai.Message {
	messages := make([]genai.Message, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, genai.Message{Role: string(msg.Role), Content: msg.Content})
	}
	if newUserMessage != "" {
		messages = append(messages, genai.UserMessage(newUserMessage))
	}
	return messages
}
