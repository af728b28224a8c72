package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finflow/internal/model"
	"github.com/Veraticus/finflow/internal/view"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "0", want: "0"},
		{input: "999", want: "999"},
		{input: "1000", want: "1,000"},
		{input: "50000", want: "50,000"},
		{input: "1234567.891", want: "1,234,567.89"},
		{input: "-520000", want: "-520,000"},
		{input: "0.5", want: "0.5"},
		{input: "12345678901234567.89", want: "12,345,678,901,234,567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "50,000 Rial", FormatAmount(decimal.NewFromInt(50000), model.CurrencyIRR))
	assert.Equal(t, "12.5 Euro", FormatAmount(decimal.RequireFromString("12.50"), model.CurrencyEUR))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	s := view.Summary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.NewFromInt(50000),
		Balance:       decimal.NewFromInt(-50000),
	}

	require.NoError(t, RenderSummary(&buf, s, model.CurrencyUSD))

	out := buf.String()
	assert.Contains(t, out, "Income:   0 Dollar")
	assert.Contains(t, out, "Expenses: 50,000 Dollar")
	assert.Contains(t, out, "Balance:  -50,000 Dollar")
}

func TestRenderTransactions(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderTransactions(&buf, nil, model.CurrencyIRR))
		assert.Contains(t, buf.String(), "No transactions found.")
	})

	t.Run("rows", func(t *testing.T) {
		var buf bytes.Buffer
		txns := []model.Transaction{
			{
				ID: "t1", Type: model.TypeExpense, Amount: decimal.NewFromInt(50000), Date: "2024-03-01",
				Description: "lunch", Category: model.Category{ID: "c1", Name: "Food", Type: model.TypeExpense},
			},
			{
				ID: "t2", Type: model.TypeIncome, Amount: decimal.NewFromInt(900000), Date: "2024-02-28",
				Category: model.Category{ID: "c2", Name: "Salary", Type: model.TypeIncome},
			},
		}

		require.NoError(t, RenderTransactions(&buf, txns, model.CurrencyIRR))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[2], "t1")
		assert.Contains(t, lines[2], "-50,000 Rial")
		assert.Contains(t, lines[2], "lunch")
		assert.Contains(t, lines[3], "900,000 Rial")
		assert.Contains(t, lines[3], "(no description)")
	})
}

func TestRenderCategories(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCategories(&buf, []model.Category{
		{ID: "c1", Name: "Food", Type: model.TypeExpense},
	}))
	assert.Contains(t, buf.String(), "Food")
	assert.Contains(t, buf.String(), "expense")

	buf.Reset()
	require.NoError(t, RenderCategories(&buf, nil))
	assert.Contains(t, buf.String(), "finflow categories add")
}

func TestRenderChart(t *testing.T) {
	points := []view.SeriesPoint{
		{Name: "Food", Value: decimal.NewFromInt(75)},
		{Name: "Rent", Value: decimal.NewFromInt(25)},
	}

	tests := []struct {
		chart model.ChartType
		want  []string
	}{
		{chart: model.ChartBar, want: []string{"Food", "Rent", "75 Rial", "25 Rial"}},
		{chart: model.ChartPie, want: []string{"■", "75.0%", "25.0%", "75 Rial"}},
		{chart: model.ChartLine, want: []string{" 1. Food", " 2. Rent", "75 Rial"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.chart), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderChart(&buf, points, tt.chart, model.CurrencyIRR))

			out := buf.String()
			assert.Contains(t, out, "Expenses by category ("+string(tt.chart)+")")
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderChart(&buf, nil, model.ChartPie, model.CurrencyIRR))
		assert.Contains(t, buf.String(), "No expenses to chart.")
	})
}

func TestRenderOffline(t *testing.T) {
	tests := []struct {
		baseURL  string
		wantPort string
	}{
		{baseURL: "http://localhost:8080", wantPort: "port 8080"},
		{baseURL: "https://finance.example.com", wantPort: "port 443"},
		{baseURL: "http://10.0.0.2", wantPort: "port 80"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderOffline(&buf, tt.baseURL, "connection refused"))

			out := buf.String()
			assert.Contains(t, out, "Target Server:  "+tt.baseURL)
			assert.Contains(t, out, "OFFLINE or BLOCKED")
			assert.Contains(t, out, "connection refused")
			assert.Contains(t, out, tt.wantPort)
			assert.Contains(t, out, "finflow server set")
		})
	}
}

func TestRenderSettings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSettings(&buf, model.DefaultSettings(), "http://localhost:8080"))

	out := buf.String()
	assert.Contains(t, out, "IRR (Rial)")
	assert.Contains(t, out, "pie")
	assert.Contains(t, out, "http://localhost:8080")
}

func TestFormatConnectivity(t *testing.T) {
	assert.Contains(t, FormatConnectivity(model.Online), "online")
	assert.Contains(t, FormatConnectivity(model.Offline), "offline")
	assert.Contains(t, FormatConnectivity(model.Checking), "checking")
}
