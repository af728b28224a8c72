package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// refresh reloads the ledger off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	ledger := m.ledger
	ctx := m.ctx
	return func() tea.Msg {
		return refreshedMsg{connectivity: ledger.Refresh(ctx)}
	}
}
