package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ametlin/budgetlens/internal/domain"
)

// Expense is one imported statement transaction, persisted as a budget
// entry.
type Expense struct {
	ID          string                 `json:"id"`
	SourceID    string                 `json:"sourceId"`
	Date        string                 `json:"date"` // YYYY-MM-DD
	Description string                 `json:"description"`
	Amount      float64                `json:"amount"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
}

// ImportTransactions converts accepted transactions into expense rows.
// All rows are written in one database transaction; either every record
// lands or none do. Returns the number of rows inserted.
func (s *Store) ImportTransactions(ctx context.Context, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (id, source_id, date, description, amount, type, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare import: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			t.ID,
			t.Date.Format("2006-01-02"),
			t.Description,
			t.Amount,
			string(t.Type),
			t.Category,
		)
		if err != nil {
			return 0, fmt.Errorf("store: insert expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit import: %w", err)
	}
	return len(txs), nil
}

// ListExpenses returns expenses, newest first. month filters to a
// YYYY-MM month when non-empty.
func (s *Store) ListExpenses(ctx context.Context, month string) ([]Expense, error) {
	query := `
		SELECT id, source_id, date, description, amount, type, category
		FROM expenses`
	args := []interface{}{}
	if month != "" {
		query += ` WHERE strftime('%Y-%m', date) = ?`
		args = append(args, month)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.SourceID, &e.Date, &e.Description, &e.Amount, &e.Type, &e.Category); err != nil {
			return nil, fmt.Errorf("store: scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// CategorySummary aggregates one category's spending for a month against
// its budget limit, if one is set.
type CategorySummary struct {
	Category string   `json:"category"`
	Spent    float64  `json:"spent"`
	Limit    *float64 `json:"limit,omitempty"`
}

// MonthlySummary sums expense-type rows per category for the given
// YYYY-MM month and attaches the matching budget limits.
func (s *Store) MonthlySummary(ctx context.Context, month string) ([]CategorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.category, SUM(e.amount), b.monthly_limit
		FROM expenses e
		LEFT JOIN budgets b ON b.category = e.category AND b.month = ?
		WHERE e.type = ? AND strftime('%Y-%m', e.date) = ?
		GROUP BY e.category
		ORDER BY SUM(e.amount) DESC`,
		month, string(domain.TypeExpense), month)
	if err != nil {
		return nil, fmt.Errorf("store: monthly summary: %w", err)
	}
	defer rows.Close()

	var summaries []CategorySummary
	for rows.Next() {
		var cs CategorySummary
		if err := rows.Scan(&cs.Category, &cs.Spent, &cs.Limit); err != nil {
			return nil, fmt.Errorf("store: scan summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	return summaries, rows.Err()
}

// MonthOf formats a time as the YYYY-MM month key used throughout the
// store.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
