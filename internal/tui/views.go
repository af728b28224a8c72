package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/view"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}

	if m.ledger.Connectivity() == model.Offline {
		sections = append(sections, m.renderOffline())
	} else {
		sections = append(sections,
			m.renderFilters(),
			m.renderOverview(),
			m.table.View(),
		)
	}

	sections = append(sections, m.help.View(m.keymap))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render(cli.MoneyIcon + " finflow")

	var status string
	switch {
	case m.refreshing:
		status = m.spinner.View() + m.theme.StatusPending.Render(" refreshing…")
	case m.ledger.Connectivity() == model.Online:
		status = m.theme.StatusSuccess.Render("● online")
	case m.ledger.Connectivity() == model.Offline:
		status = m.theme.StatusError.Render("● offline")
	default:
		status = m.theme.StatusPending.Render("● checking")
	}

	server := m.theme.Subtitle.Render(m.baseURL)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status, "  ", server)
}

func (m Model) renderFilters() string {
	f := m.Filter()

	month := view.All
	if f.YearMonth != "" {
		month = f.YearMonth
	}
	category := view.All
	if m.categoryIdx > 0 && m.categoryIdx <= len(m.options.Categories) {
		category = m.options.Categories[m.categoryIdx-1].Name
	}

	return m.theme.Subtitle.Render(fmt.Sprintf("Month: %s   Category: %s   Chart: %s   Currency: %s",
		month, category, m.settings.ChartType, m.settings.Currency.Label()))
}

func (m Model) renderOverview() string {
	txns := m.visible()

	var summary, chart strings.Builder
	_ = cli.RenderSummary(&summary, view.Summarize(txns), m.settings.Currency)
	_ = cli.RenderChart(&chart, view.CategorySeries(txns), m.settings.ChartType, m.settings.Currency)

	left := strings.TrimRight(summary.String(), "\n")
	right := strings.TrimRight(chart.String(), "\n")

	if m.width < 100 {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (m Model) renderOffline() string {
	var b strings.Builder
	_ = cli.RenderOffline(&b, m.baseURL, m.ledger.LastError())
	hint := m.theme.Subtitle.Render("Press r to retry.")
	return lipgloss.JoinVertical(lipgloss.Left, strings.TrimRight(b.String(), "\n"), hint)
}
