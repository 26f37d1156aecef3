package tui

import (
	"context"

	"loon-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive UI on s and blocks until the user quits.
// Completions still in flight when it returns are cancelled.
func Run(ctx context.Context, s *session.Session) error {
	applyColorProfilePreference()
	applyGlyphPreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newAppModel(ctx, s)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
