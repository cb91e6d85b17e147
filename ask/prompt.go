package ask

import (
	"strings"

	"github.com/poiesic/superior/core"
)

// DefaultContextLimit is the maximum number of characters of retrieved
// context sent to the chat model.
const DefaultContextLimit = 12000

// DefaultSystemPrompt instructs the chat model to answer from the supplied
// context only.
const DefaultSystemPrompt = "You are Superior AI, a cautious property analyst. " +
	"Use ONLY the provided context and data. If data is missing, say what's missing. " +
	"Return concise, factual answers with short references."

// BuildContext renders matches as "[title] content" blocks separated by a
// blank line, in retrieval order.
func BuildContext(matches []*core.Match) string {
	var sb strings.Builder
	for i, m := range matches {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(m.Document.Title)
		sb.WriteString("] ")
		sb.WriteString(m.Document.Content)
	}
	return sb.String()
}

// Truncate returns the first limit characters of s.
// Characters are counted as runes so multi-byte text is never split.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// buildMessages assembles the system and user messages for a request.
func buildMessages(systemPrompt, query, address, context string) []core.Message {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(context)
	if address != "" {
		sb.WriteString("\n\nFocus address: ")
		sb.WriteString(address)
	}

	return []core.Message{
		{Role: core.RoleSystem, Content: systemPrompt},
		{Role: core.RoleUser, Content: sb.String()},
	}
}

// References returns the non-empty sources of matches in first-seen order
// without duplicates. The result is never nil.
func References(matches []*core.Match) []string {
	refs := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		src := m.Document.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		refs = append(refs, src)
	}
	return refs
}
