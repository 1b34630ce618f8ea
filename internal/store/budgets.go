package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Budget is a monthly spending limit for one category.
type Budget struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Month    string  `json:"month"` // YYYY-MM
	Limit    float64 `json:"limit"`
}

// UpsertBudget creates or replaces the budget for a category/month pair
// and returns the stored budget.
func (s *Store) UpsertBudget(ctx context.Context, b Budget) (Budget, error) {
	if b.Category == "" || b.Month == "" {
		return Budget{}, fmt.Errorf("store: budget needs a category and a month")
	}
	if b.Limit < 0 {
		return Budget{}, fmt.Errorf("store: budget limit cannot be negative")
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	// The write and the ID read-back run in one transaction; the conflict
	// path keeps the original row ID, and a concurrent upsert for the same
	// category/month must not slip in between.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Budget{}, fmt.Errorf("store: begin upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO budgets (id, category, month, monthly_limit)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category, month) DO UPDATE SET monthly_limit = excluded.monthly_limit`,
		b.ID, b.Category, b.Month, b.Limit)
	if err != nil {
		return Budget{}, fmt.Errorf("store: upsert budget: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT id FROM budgets WHERE category = ? AND month = ?`, b.Category, b.Month)
	if err := row.Scan(&b.ID); err != nil {
		return Budget{}, fmt.Errorf("store: read budget id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Budget{}, fmt.Errorf("store: commit upsert: %w", err)
	}
	return b, nil
}

// ListBudgets returns budgets, optionally filtered to a YYYY-MM month.
func (s *Store) ListBudgets(ctx context.Context, month string) ([]Budget, error) {
	query := `SELECT id, category, month, monthly_limit FROM budgets`
	args := []interface{}{}
	if month != "" {
		query += ` WHERE month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY month DESC, category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Month, &b.Limit); err != nil {
			return nil, fmt.Errorf("store: scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
