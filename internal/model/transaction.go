package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Transaction represents a single dated income or expense entry.
type Transaction struct {
	Amount      decimal.Decimal `json:"amount"`
	ID          ID              `json:"id"`
	Type        TransactionType `json:"type"`
	Date        string          `json:"date"` // YYYY-MM-DD
	Description string          `json:"description"`
	Category    Category        `json:"category"` // Snapshot; the authoritative link is Category.ID
}

// Month returns the YYYY-MM prefix of the transaction date.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return t.Date
	}
	return t.Date[:7]
}

// Draft returns the transaction without its id.
func (t Transaction) Draft() TransactionDraft {
	return TransactionDraft{
		Type:        t.Type,
		Amount:      t.Amount,
		Category:    t.Category,
		Date:        t.Date,
		Description: t.Description,
	}
}

// TransactionDraft carries everything needed to create a transaction.
type TransactionDraft struct {
	Amount      decimal.Decimal `validate:"nonnegative_amount"`
	Type        TransactionType `validate:"required,oneof=income expense"`
	Date        string          `validate:"required,datetime=2006-01-02"`
	Description string
	Category    Category
}

// Request converts the draft into the wire request, which references the
// category by id only.
func (d TransactionDraft) Request() TransactionRequest {
	return TransactionRequest{
		Type:        d.Type,
		Amount:      d.Amount,
		CategoryID:  d.Category.ID,
		Date:        d.Date,
		Description: d.Description,
	}
}

// TransactionRequest is the body of create and update transaction calls.
type TransactionRequest struct {
	Amount      decimal.Decimal
	Type        TransactionType
	CategoryID  ID
	Date        string
	Description string
}

// MarshalJSON writes the amount as a JSON number, which is what the
// backend's numeric field expects.
func (r TransactionRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        TransactionType `json:"type"`
		Amount      json.Number     `json:"amount"`
		CategoryID  ID              `json:"categoryId"`
		Date        string          `json:"date"`
		Description string          `json:"description"`
	}{
		Type:        r.Type,
		Amount:      json.Number(r.Amount.String()),
		CategoryID:  r.CategoryID,
		Date:        r.Date,
		Description: r.Description,
	})
}
