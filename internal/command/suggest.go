package command

import (
	"fmt"
	"strings"

	"loon-cli/internal/model"
)

type Suggestion struct {
	Text        string
	DisplayText string
	Description string
}

// Suggest lists the commands whose text starts with input, with one model call
// entry per configured card.
func Suggest(input string, cfg model.Config) []Suggestion {
	prefix := strings.TrimLeft(input, " \t")
	all := []Suggestion{
		{Text: "view", DisplayText: "view", Description: "Toggle between outline and path view"},
		{Text: "theme", DisplayText: "theme", Description: "Toggle between light and dark theme"},
	}
	for _, name := range cfg.CardNames() {
		card, _ := cfg.Card(name)
		label := card.Name
		if label == "" {
			label = card.Model
		}
		all = append(all, Suggestion{
			Text:        "@" + name,
			DisplayText: "@" + name + " [count]",
			Description: fmt.Sprintf("Generate completions using %s", label),
		})
	}
	all = append(all,
		Suggestion{Text: "key add", DisplayText: "key add <service> <key>", Description: "Store an API key"},
		Suggestion{Text: "key remove", DisplayText: "key remove <service>", Description: "Forget an API key"},
		Suggestion{Text: "circular on", DisplayText: "circular on|off", Description: "Wrap sibling navigation at the ends"},
		Suggestion{Text: "circular off", DisplayText: "circular on|off", Description: "Stop sibling navigation at the ends"},
	)

	var out []Suggestion
	for _, s := range all {
		if strings.HasPrefix(s.Text, prefix) {
			out = append(out, s)
		}
	}
	return out
}
