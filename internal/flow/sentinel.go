package flow

import (
	"strings"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/prompt"
)

// StartSentinel is the reserved client value that requests the opening
// assistant greeting. It is never stored as a message.
const StartSentinel = "[START_CONVERSATION]"

// initializationInstruction is the synthetic user message sent on an
// initialization turn instead of the start sentinel.
const initializationInstruction = "Please begin the conversation with your greeting."

// StripCompletionSentinel removes the completion sentinel from a raw model
// response and reports whether the response signaled completion.
//
// Only a trailing occurrence (after whitespace trim) is honored as the
// completion signal; repeated trailing occurrences collapse to one signal.
// Occurrences buried mid-message are scrubbed from the content — stored
// content must never contain the literal — but do not signal completion.
// A response consisting solely of the sentinel collapses to empty content,
// which is valid and still signals completion.
func StripCompletionSentinel(raw string) (string, bool) {
	complete := false
	s := strings.TrimSpace(raw)
	for strings.HasSuffix(s, prompt.CompletionSentinel) {
		complete = true
		s = strings.TrimSpace(strings.TrimSuffix(s, prompt.CompletionSentinel))
	}
	if strings.Contains(s, prompt.CompletionSentinel) {
		s = strings.TrimSpace(strings.ReplaceAll(s, prompt.CompletionSentinel, ""))
	}
	return s, complete
}
