package domain

import (
	"encoding/json"
	"time"
)

// TransactionType is the direction of a transaction: money entering or
// leaving the account.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// CategoryOther is the fallback category assigned when no keyword matches.
const CategoryOther = "Other"

// Categories is the closed set of spending categories, in classifier table
// order. The order is load-bearing: the first category whose keyword list
// matches a description wins.
var Categories = []string{
	"Food & Dining",
	"Groceries",
	"Transportation",
	"Shopping",
	"Bills & Utilities",
	"Healthcare",
	"Entertainment",
	"Education",
	"ATM",
	"Transfer",
	CategoryOther,
}

// Transaction represents one normalized transaction extracted from an
// uploaded statement file. Amount is always a non-negative magnitude;
// direction is carried separately in Type. CreatedAt marks ingestion time
// and is distinct from the statement Date.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	Amount      float64
	Type        TransactionType
	Category    string
	Balance     *float64 // running balance if the statement provides one
	CreatedAt   time.Time
}

// transactionJSON is the wire shape: dates travel as epoch milliseconds so
// the frontend can consume them without format negotiation.
type transactionJSON struct {
	ID          string          `json:"id"`
	Date        int64           `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Balance     *float64        `json:"balance,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Date:        t.Date.UnixMilli(),
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Category:    t.Category,
		Balance:     t.Balance,
		CreatedAt:   t.CreatedAt.UnixMilli(),
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.ID = w.ID
	t.Date = time.UnixMilli(w.Date).UTC()
	t.Description = w.Description
	t.Amount = w.Amount
	t.Type = w.Type
	t.Category = w.Category
	t.Balance = w.Balance
	t.CreatedAt = time.UnixMilli(w.CreatedAt).UTC()
	return nil
}

// ValidCategory reports whether name is one of the known categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
