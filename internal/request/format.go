package request

import (
	"strings"

	"loon-cli/internal/model"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func roleFor(src model.Source) string {
	switch src {
	case model.SourceModel:
		return "assistant"
	case model.SourceSystem:
		return "system"
	default:
		return "user"
	}
}

func formatChat(nodes []model.Node) []chatMessage {
	out := make([]chatMessage, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, chatMessage{Role: roleFor(n.Message.Source), Content: n.Message.Content})
	}
	return out
}

// formatPrompt renders the context as a plain-text transcript. Each message is
// prefixed with its source except system messages, and messages are separated
// by a blank line.
func formatPrompt(nodes []model.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var b strings.Builder
		if n.Message.Source != model.SourceSystem {
			b.WriteString(string(n.Message.Source))
			b.WriteString(": ")
		}
		b.WriteString(n.Message.Content)
		b.WriteString("\n")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

// requestBody builds the JSON payload for card. Card parameters are merged in
// last but never override model, messages or prompt.
func requestBody(nodes []model.Node, card model.ModelCard) map[string]any {
	body := make(map[string]any, len(card.Parameters)+2)
	for k, v := range card.Parameters {
		body[k] = v
	}
	body["model"] = card.Model
	switch card.Format {
	case model.FormatCompletion:
		body["prompt"] = formatPrompt(nodes)
		delete(body, "messages")
	default:
		body["messages"] = formatChat(nodes)
		delete(body, "prompt")
	}
	return body
}
