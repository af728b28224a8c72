// Package view derives display data from the synchronized collections.
// Every function here is pure.
package view

import (
	"slices"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/finflow/internal/model"
)

// All is the filter value that disables a filter.
const All = "all"

// Filter narrows the transaction list. Empty or All fields match everything.
type Filter struct {
	CategoryID model.ID
	YearMonth  string // YYYY-MM
}

// Summary holds the totals for a set of transactions.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
}

// SeriesPoint is one slice or bar of the expense chart.
type SeriesPoint struct {
	Name  string
	Value decimal.Decimal
}

// Options lists the choices offered for filtering.
type Options struct {
	Months     []string
	Categories []model.Category
}

func isAll(s string) bool {
	return s == "" || strings.EqualFold(s, All)
}

// FilterTransactions returns the transactions matching f, newest first.
// Entries with the same date keep their relative order.
func FilterTransactions(all []model.Transaction, f Filter) []model.Transaction {
	result := make([]model.Transaction, 0, len(all))
	for _, txn := range all {
		if !isAll(string(f.CategoryID)) && txn.Category.ID != f.CategoryID {
			continue
		}
		if !isAll(f.YearMonth) && !strings.HasPrefix(txn.Date, f.YearMonth) {
			continue
		}
		result = append(result, txn)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})

	return result
}

// AvailableMonths returns the distinct YYYY-MM months present, newest first.
func AvailableMonths(all []model.Transaction) []string {
	seen := make(map[string]bool)
	months := make([]string, 0)
	for _, txn := range all {
		month := txn.Month()
		if month == "" || seen[month] {
			continue
		}
		seen[month] = true
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Summarize totals income and expenses. The balance is income minus expenses.
func Summarize(txns []model.Transaction) Summary {
	income := decimal.Zero
	expenses := decimal.Zero
	for _, txn := range txns {
		switch txn.Type {
		case model.TypeIncome:
			income = income.Add(txn.Amount)
		case model.TypeExpense:
			expenses = expenses.Add(txn.Amount)
		}
	}

	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
	}
}

// CategorySeries sums expenses per category name in first-seen order.
// Distinct categories sharing a name are reported as one point.
func CategorySeries(txns []model.Transaction) []SeriesPoint {
	index := make(map[string]int)
	points := make([]SeriesPoint, 0)
	for _, txn := range txns {
		if txn.Type != model.TypeExpense {
			continue
		}
		name := txn.Category.Name
		if i, ok := index[name]; ok {
			points[i].Value = points[i].Value.Add(txn.Amount)
			continue
		}
		index[name] = len(points)
		points = append(points, SeriesPoint{Name: name, Value: txn.Amount})
	}
	return points
}

// SeriesTotal sums the values of points.
func SeriesTotal(points []SeriesPoint) decimal.Decimal {
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(p.Value)
	}
	return total
}

// CategoriesOfType returns the categories of type t in their original order.
func CategoriesOfType(cats []model.Category, t model.TransactionType) []model.Category {
	result := make([]model.Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == t {
			result = append(result, c)
		}
	}
	return result
}

// DefaultCategory returns the first category of type t, used to pre-select
// a category when none was chosen.
func DefaultCategory(cats []model.Category, t model.TransactionType) (model.Category, bool) {
	idx := slices.IndexFunc(cats, func(c model.Category) bool { return c.Type == t })
	if idx < 0 {
		return model.Category{}, false
	}
	return cats[idx], true
}

// FilterOptions returns the months and the expense categories offered as
// filter choices.
func FilterOptions(txns []model.Transaction, cats []model.Category) Options {
	return Options{
		Months:     AvailableMonths(txns),
		Categories: CategoriesOfType(cats, model.TypeExpense),
	}
}
