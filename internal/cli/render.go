package cli

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/view"
)

const chartWidth = 40

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

// FormatNumber renders d with thousands separators and at most two decimals.
func FormatNumber(d decimal.Decimal) string {
	s := d.Round(2).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	if hasFrac {
		return sign + b.String() + "." + frac
	}
	return sign + b.String()
}

// FormatAmount renders an amount followed by the currency label.
func FormatAmount(d decimal.Decimal, currency model.Currency) string {
	return FormatNumber(d) + " " + currency.Label()
}

// FormatConnectivity renders the connection status.
func FormatConnectivity(c model.Connectivity) string {
	switch c {
	case model.Online:
		return SuccessStyle.Render(OnlineIcon + " online")
	case model.Offline:
		return ErrorStyle.Render(OfflineIcon + " offline")
	default:
		return SubtleStyle.Render("checking…")
	}
}

// RenderSummary writes the income, expense and balance totals.
func RenderSummary(w io.Writer, s view.Summary, currency model.Currency) error {
	balance := FormatAmount(s.Balance, currency)
	if s.Balance.IsNegative() {
		balance = ExpenseStyle.Render(balance)
	} else {
		balance = IncomeStyle.Render(balance)
	}

	content := fmt.Sprintf("Income:   %s\n", StyleAmount(FormatAmount(s.TotalIncome, currency), true)) +
		fmt.Sprintf("Expenses: %s\n", StyleAmount(FormatAmount(s.TotalExpenses, currency), false)) +
		fmt.Sprintf("Balance:  %s", balance)

	_, err := fmt.Fprintln(w, RenderBox(MoneyIcon+" Summary", content))
	return err
}

// RenderTransactions writes a table of transactions.
func RenderTransactions(w io.Writer, txns []model.Transaction, currency model.Currency) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No transactions found."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Date"),
		headerStyle.Render("Type"),
		headerStyle.Render("Category"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Description"))
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 10),
		strings.Repeat("-", 7),
		strings.Repeat("-", 15),
		strings.Repeat("-", 15),
		strings.Repeat("-", 30))

	for _, t := range txns {
		amount := FormatAmount(t.Amount, currency)
		if t.Type == model.TypeExpense {
			amount = "-" + amount
		}
		desc := t.Description
		if desc == "" {
			desc = SubtleStyle.Render("(no description)")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Type, t.Category.Name,
			StyleAmount(amount, t.Type == model.TypeIncome), desc)
	}

	return tw.Flush()
}

// RenderCategories writes a table of categories.
func RenderCategories(w io.Writer, cats []model.Category) error {
	if len(cats) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No categories found. Use 'finflow categories add' to create one."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Name"),
		headerStyle.Render("Type"))
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 20),
		strings.Repeat("-", 7))

	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, StyleAmount(string(c.Type), c.Type == model.TypeIncome))
	}

	return tw.Flush()
}

// RenderChart writes the expense series in the given chart style.
func RenderChart(w io.Writer, points []view.SeriesPoint, chart model.ChartType, currency model.Currency) error {
	if len(points) == 0 {
		_, err := fmt.Fprintln(w, SubtleStyle.Render("No expenses to chart."))
		return err
	}

	var body string
	switch chart {
	case model.ChartBar:
		body = barChart(points, currency)
	case model.ChartLine:
		body = lineChart(points, currency)
	default:
		body = pieChart(points, currency)
	}

	_, err := fmt.Fprintln(w, RenderBox(fmt.Sprintf("%s Expenses by category (%s)", ChartIcon, chart), body))
	return err
}

func nameWidth(points []view.SeriesPoint) int {
	width := 0
	for _, p := range points {
		width = max(width, lipgloss.Width(p.Name))
	}
	return width
}

// sliceColors cycles across pie slices.
var sliceColors = []lipgloss.Color{
	PrimaryColor, ExpenseColor, WarningColor, IncomeColor, lipgloss.Color("#C792EA"), lipgloss.Color("#F78C6C"),
}

func sliceStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(sliceColors[i%len(sliceColors)])
}

func barChart(points []view.SeriesPoint, currency model.Currency) string {
	bars := make([]barchart.BarData, 0, len(points))
	for _, p := range points {
		bars = append(bars, barchart.BarData{
			Label:  p.Name,
			Values: []barchart.BarValue{{Name: p.Name, Value: p.Value.InexactFloat64(), Style: ExpenseStyle}},
		})
	}

	width := nameWidth(points)
	bc := barchart.New(chartWidth+width+1, 2*len(points)-1,
		barchart.WithDataSet(bars),
		barchart.WithHorizontalBars())
	bc.Draw()

	legend := make([]string, 0, len(points))
	for _, p := range points {
		legend = append(legend, fmt.Sprintf("%-*s %s", width, p.Name, FormatAmount(p.Value, currency)))
	}

	return bc.View() + "\n\n" + strings.Join(legend, "\n")
}

// pieChart draws the shares as one stacked bar with a percentage legend.
func pieChart(points []view.SeriesPoint, currency model.Currency) string {
	total := view.SeriesTotal(points)
	width := nameWidth(points)

	slices := make([]barchart.BarValue, 0, len(points))
	legend := make([]string, 0, len(points))
	for i, p := range points {
		share := decimal.Zero
		if total.IsPositive() {
			share = p.Value.Div(total).Mul(decimal.NewFromInt(100))
		}
		slices = append(slices, barchart.BarValue{Name: p.Name, Value: p.Value.InexactFloat64(), Style: sliceStyle(i)})
		legend = append(legend, fmt.Sprintf("%s %-*s %5s%% %s",
			sliceStyle(i).Render("■"), width, p.Name, share.StringFixed(1), SubtleStyle.Render(FormatAmount(p.Value, currency))))
	}

	bc := barchart.New(chartWidth, 1,
		barchart.WithDataSet([]barchart.BarData{{Values: slices}}),
		barchart.WithHorizontalBars())
	bc.Draw()

	return bc.View() + "\n\n" + strings.Join(legend, "\n")
}

func lineChart(points []view.SeriesPoint, currency model.Currency) string {
	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Value.InexactFloat64())
	}

	sl := sparkline.New(len(points), 4)
	sl.PushAll(values)
	sl.Draw()

	width := nameWidth(points)
	legend := make([]string, 0, len(points))
	for i, p := range points {
		legend = append(legend, fmt.Sprintf("%2d. %-*s %s", i+1, width, p.Name, FormatAmount(p.Value, currency)))
	}

	return PrimaryStyle.Render(sl.View()) + "\n\n" + strings.Join(legend, "\n")
}

// RenderOffline writes the connection diagnostic shown when the server
// could not be reached.
func RenderOffline(w io.Writer, baseURL, lastError string) error {
	port := "(unknown)"
	if u, err := url.Parse(baseURL); err == nil {
		switch {
		case u.Port() != "":
			port = u.Port()
		case u.Scheme == "https":
			port = "443"
		case u.Scheme == "http":
			port = "80"
		}
	}

	diag := fmt.Sprintf("> Target Server:  %s\n", baseURL) +
		"> Status:         OFFLINE or BLOCKED\n" +
		fmt.Sprintf("> Error:          %s\n", lastError) +
		"\n" +
		"POSSIBLE CAUSES & SOLUTIONS:\n" +
		"[1] WRONG PORT / SERVER DOWN\n" +
		"    If the error says \"connection refused\"\n" +
		fmt.Sprintf("    -> ACTION: Check that the backend is running on port %s.\n", port) +
		"    -> ACTION: Run 'finflow server set <url>' to change the address.\n" +
		"[2] WRONG HOST\n" +
		"    If the error says \"no such host\" or times out\n" +
		"    -> ACTION: Check the host name and any firewall or proxy in between.\n" +
		"[3] SCHEME MISMATCH\n" +
		"    Is the backend serving HTTP while the address uses HTTPS (or the reverse)?\n" +
		"    -> ACTION: Match the scheme in the server address to the backend."

	title := ErrorStyle.Bold(true).Render(OfflineIcon + " Cannot reach the server")
	_, err := fmt.Fprintln(w, OfflineBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", diag)))
	return err
}

// RenderSettings writes the current settings and server address.
func RenderSettings(w io.Writer, s model.Settings, baseURL string) error {
	content := fmt.Sprintf("Currency:   %s (%s)\n", s.Currency, s.Currency.Label()) +
		fmt.Sprintf("Chart type: %s\n", s.ChartType) +
		fmt.Sprintf("Server:     %s", baseURL)

	_, err := fmt.Fprintln(w, RenderBox("Settings", content))
	return err
}
