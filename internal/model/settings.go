package model

import (
	"fmt"
	"strings"
)

// Currency is an ISO currency code from the supported set.
type Currency string

// Supported currencies.
const (
	CurrencyIRR Currency = "IRR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// CurrencyOption pairs a currency with its display label.
type CurrencyOption struct {
	Code  Currency
	Label string
}

// CurrencyOptions lists the supported currencies in display order.
var CurrencyOptions = []CurrencyOption{
	{Code: CurrencyIRR, Label: "Rial"},
	{Code: CurrencyUSD, Label: "Dollar"},
	{Code: CurrencyEUR, Label: "Euro"},
}

// Label returns the display label, falling back to the rial label for
// unknown codes.
func (c Currency) Label() string {
	for _, opt := range CurrencyOptions {
		if opt.Code == c {
			return opt.Label
		}
	}
	return CurrencyOptions[0].Label
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	for _, opt := range CurrencyOptions {
		if opt.Code == c {
			return true
		}
	}
	return false
}

// ParseCurrency normalises and validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// ChartType selects how category series are charted.
type ChartType string

// Chart types.
const (
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
	ChartLine ChartType = "line"
)

// ChartTypes lists the chart types in cycling order.
var ChartTypes = []ChartType{ChartBar, ChartPie, ChartLine}

// Valid reports whether c is a known chart type.
func (c ChartType) Valid() bool {
	return c == ChartBar || c == ChartPie || c == ChartLine
}

// Next returns the chart type after c, wrapping around.
func (c ChartType) Next() ChartType {
	for i, ct := range ChartTypes {
		if ct == c {
			return ChartTypes[(i+1)%len(ChartTypes)]
		}
	}
	return ChartTypes[0]
}

// ParseChartType normalises and validates a chart type.
func ParseChartType(s string) (ChartType, error) {
	c := ChartType(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("invalid chart type %q (want bar, pie or line)", s)
	}
	return c, nil
}

// Settings holds process-wide user preferences.
type Settings struct {
	Currency  Currency  `json:"currency"`
	ChartType ChartType `json:"chartType"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Currency:  CurrencyIRR,
		ChartType: ChartPie,
	}
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	Currency  *Currency
	ChartType *ChartType
}

// Apply merges the non-nil fields of p into s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.ChartType != nil {
		s.ChartType = *p.ChartType
	}
	return s
}

// Connectivity is the belief about whether the remote API is reachable.
type Connectivity string

// Connectivity states.
const (
	Online   Connectivity = "online"
	Offline  Connectivity = "offline"
	Checking Connectivity = "checking"
)
