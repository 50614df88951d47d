package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/kanban/pkg/board"
)

// RenderSnapshot renders a single frame of the board without starting a
// program. The refresh timer is never scheduled.
func RenderSnapshot(store *board.Store, width, height int, now time.Time, opts ...Option) string {
	opts = append(opts, WithClock(func() time.Time { return now }))
	m := NewModel(store, opts...)
	defer m.Stop()

	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.View()
}
