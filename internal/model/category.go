package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TransactionType indicates whether a category or transaction is income or expense.
type TransactionType string

const (
	// TypeIncome represents money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money going out.
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseTransactionType accepts "income"/"expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid transaction type %q (want income or expense)", s)
	}
	return t, nil
}

// ID is a server-assigned identifier. The backend may serialise it as a
// JSON number; it is always handled as a string on this side.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// Category is a named, typed label that transactions are grouped under.
type Category struct {
	ID   ID              `json:"id" validate:"required"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// CategoryDraft is a category that has not been assigned an id yet.
// It is also the request body for creating and updating categories.
type CategoryDraft struct {
	Name string          `json:"name" validate:"notblank"`
	Type TransactionType `json:"type" validate:"required,oneof=income expense"`
}

// Draft returns the mutable fields of c.
func (c Category) Draft() CategoryDraft {
	return CategoryDraft{Name: c.Name, Type: c.Type}
}
