package prompt

import (
	"strconv"
	"strings"

	"traveldocs-relay/internal/domain"
)

// MaxHistoryMessages is the number of trailing chat messages included as context.
const MaxHistoryMessages = 6

// Sections lists the Markdown headings the model must produce, in order.
var Sections = []string{
	"Summary",
	"Required Documents",
	"Passport Requirements",
	"Additional Documents",
	"Travel Advisories / Notes",
}

var sectionHints = []string{
	"1-2 sentences",
	"bulleted list",
	"bulleted list",
	"bulleted list",
	"short",
}

// Build assembles the instruction prompt for a question and optional chat history.
// The output starts with Preamble() and ends with the question verbatim.
func Build(question string, history []domain.ChatMessage) string {
	var b strings.Builder
	b.WriteString(Preamble())

	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, msg := range lastMessages(history, MaxHistoryMessages) {
			b.WriteString(speaker(msg.Role))
			b.WriteString(": ")
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nUser question: ")
	b.WriteString(question)
	return b.String()
}

// Preamble returns the fixed persona, refusal policy and output structure.
func Preamble() string {
	lines := []string{
		"You are an expert travel-documentation assistant. You help travellers understand visas, passports, entry requirements and the documents they need for a trip.",
		"If a question is not about travel documentation or entry requirements, politely decline and explain that you can only help with travel documentation.",
		"When given a question, respond in Markdown with headings in this exact order:",
	}
	for i, section := range Sections {
		lines = append(lines, strconv.Itoa(i+1)+". "+section+" ("+sectionHints[i]+")")
	}
	lines = append(lines,
		"If a section does not apply, write \"None\" or \"Not applicable\" under its heading.",
		"Keep answers practical and concise. If you are unsure, say so and point to official government or embassy resources.",
		"",
	)
	return strings.Join(lines, "\n")
}

func lastMessages(history []domain.ChatMessage, n int) []domain.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func speaker(role domain.Role) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
