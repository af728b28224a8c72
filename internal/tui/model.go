// Package tui implements the interactive finance dashboard.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/finflow/internal/cli"
	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/tui/themes"
	"github.com/Veraticus/finflow/internal/view"
)

// Ledger is the state the dashboard displays.
type Ledger interface {
	Refresh(ctx context.Context) model.Connectivity
	Transactions() []model.Transaction
	Categories() []model.Category
	Connectivity() model.Connectivity
	LastError() string
}

// Model holds the dashboard state.
type Model struct {
	ctx         context.Context
	ledger      Ledger
	theme       themes.Theme
	keymap      KeyMap
	help        help.Model
	spinner     spinner.Model
	table       table.Model
	settings    model.Settings
	baseURL     string
	options     view.Options
	width       int
	height      int
	monthIdx    int // 0 means all months
	categoryIdx int // 0 means all categories
	refreshing  bool
	quitting    bool
}

// New creates the dashboard model.
func New(ctx context.Context, ledger Ledger, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	tbl := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cfg.Theme.Border).
		BorderBottom(true).
		Bold(true)
	styles.Selected = cfg.Theme.Selected
	tbl.SetStyles(styles)

	return Model{
		ctx:      ctx,
		ledger:   ledger,
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		table:    tbl,
		settings: cfg.Settings,
		baseURL:  cfg.BaseURL,
		width:    cfg.Width,
		height:   cfg.Height,
	}
}

// Init starts the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRefresh())
}

func (m *Model) startRefresh() tea.Cmd {
	m.refreshing = true
	return m.refresh()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.rebuild()
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		m.rebuild()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Refresh):
		if m.refreshing {
			return m, nil
		}
		return m, m.startRefresh()

	case key.Matches(msg, m.keymap.NextMonth):
		m.monthIdx = (m.monthIdx + 1) % (len(m.options.Months) + 1)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keymap.NextCategory):
		m.categoryIdx = (m.categoryIdx + 1) % (len(m.options.Categories) + 1)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keymap.ClearFilters):
		m.monthIdx, m.categoryIdx = 0, 0
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keymap.NextChart):
		m.settings.ChartType = m.settings.ChartType.Next()
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Filter returns the active filter.
func (m Model) Filter() view.Filter {
	f := view.Filter{}
	if m.monthIdx > 0 && m.monthIdx <= len(m.options.Months) {
		f.YearMonth = m.options.Months[m.monthIdx-1]
	}
	if m.categoryIdx > 0 && m.categoryIdx <= len(m.options.Categories) {
		f.CategoryID = m.options.Categories[m.categoryIdx-1].ID
	}
	return f
}

// visible returns the transactions that pass the active filter.
func (m Model) visible() []model.Transaction {
	return view.FilterTransactions(m.ledger.Transactions(), m.Filter())
}

// rebuild recomputes the filter options and table rows from the ledger.
func (m *Model) rebuild() {
	m.options = view.FilterOptions(m.ledger.Transactions(), m.ledger.Categories())
	if m.monthIdx > len(m.options.Months) {
		m.monthIdx = 0
	}
	if m.categoryIdx > len(m.options.Categories) {
		m.categoryIdx = 0
	}

	txns := m.visible()
	rows := make([]table.Row, 0, len(txns))
	for _, t := range txns {
		amount := cli.FormatNumber(t.Amount)
		if t.Type == model.TypeExpense {
			amount = "-" + amount
		}
		rows = append(rows, table.Row{t.Date, string(t.Type), t.Category.Name, amount, t.Description})
	}
	m.table.SetRows(rows)
}

func columns(width int) []table.Column {
	desc := width - 10 - 8 - 16 - 14 - 12
	if desc < 12 {
		desc = 12
	}
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Type", Width: 8},
		{Title: "Category", Width: 16},
		{Title: "Amount", Width: 14},
		{Title: "Description", Width: desc},
	}
}
