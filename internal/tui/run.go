package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenwick/hindsight/internal/mirror"
)

// Run opens the review browser over a built queue and blocks until the
// reviewer quits. Callers should handle the empty queue themselves; opening
// a browser on nothing is treated as a programming error.
func Run(items []mirror.ReviewItem, hi, lo float64) error {
	if len(items) == 0 {
		return fmt.Errorf("review queue is empty")
	}

	p := tea.NewProgram(newModel(items, hi, lo), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review browser failed: %w", err)
	}
	return nil
}
