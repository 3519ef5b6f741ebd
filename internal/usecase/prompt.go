package usecase

import (
	"fmt"
	"strings"

	"civic-chat/internal/domain"
	"civic-chat/internal/faq"
)

const (
	promptPreamble = "You are a friendly assistant that answers based on the provided FAQ context first, then uses general knowledge if needed."
	promptClosing  = "Please provide a helpful response. If the question relates to the FAQ topics above, use that information. Otherwise, provide a general helpful response."
)

// buildPrompt renders the FAQ corpus, the prior turns (oldest first) and the new
// message into a single text prompt for the generative provider.
func buildPrompt(entries []faq.Entry, history []domain.Message, message string) string {
	return strings.Join([]string{
		promptPreamble,
		"",
		"FAQ Context:",
		faqContext(entries),
		"",
		"Conversation History:",
		conversationHistory(history),
		"",
		"User: " + message,
		"",
		promptClosing,
	}, "\n")
}

func faqContext(entries []faq.Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return strings.Join(blocks, "\n\n")
}

func conversationHistory(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
