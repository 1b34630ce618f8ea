package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ametlin/budgetlens/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTransactions() []domain.Transaction {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Transaction{
		{
			ID:          "tx-1",
			Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Description: "Swiggy lunch",
			Amount:      420,
			Type:        domain.TypeExpense,
			Category:    "Food & Dining",
			CreatedAt:   now,
		},
		{
			ID:          "tx-2",
			Date:        time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
			Description: "Salary credit",
			Amount:      50000,
			Type:        domain.TypeIncome,
			Category:    "Other",
			CreatedAt:   now,
		},
		{
			ID:          "tx-3",
			Date:        time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			Description: "Uber trip",
			Amount:      180,
			Type:        domain.TypeExpense,
			Category:    "Transportation",
			CreatedAt:   now,
		},
	}
}

func TestImportAndListExpenses(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.ImportTransactions(ctx, sampleTransactions())
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if n != 3 {
		t.Errorf("imported: got %d, want 3", n)
	}

	expenses, err := s.ListExpenses(ctx, "")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("expenses: got %d, want 3", len(expenses))
	}

	// Newest first.
	if expenses[0].Date != "2024-02-10" {
		t.Errorf("order: first expense date %q, want 2024-02-10", expenses[0].Date)
	}
	if expenses[0].SourceID != "tx-3" {
		t.Errorf("source id: got %q, want tx-3", expenses[0].SourceID)
	}
}

func TestListExpensesByMonth(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	txs := sampleTransactions()
	txs = append(txs, domain.Transaction{
		ID:          "tx-4",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "March rent",
		Amount:      15000,
		Type:        domain.TypeExpense,
		Category:    "Bills & Utilities",
		CreatedAt:   time.Now(),
	})

	if _, err := s.ImportTransactions(ctx, txs); err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}

	feb, err := s.ListExpenses(ctx, "2024-02")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(feb) != 3 {
		t.Errorf("february expenses: got %d, want 3", len(feb))
	}

	mar, err := s.ListExpenses(ctx, "2024-03")
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(mar) != 1 {
		t.Errorf("march expenses: got %d, want 1", len(mar))
	}
}

func TestImportEmptyIsNoop(t *testing.T) {
	s := testStore(t)

	n, err := s.ImportTransactions(context.Background(), nil)
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if n != 0 {
		t.Errorf("imported: got %d, want 0", n)
	}
}

func TestUpsertBudget(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b, err := s.UpsertBudget(ctx, Budget{Category: "Food & Dining", Month: "2024-02", Limit: 5000})
	if err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}
	if b.ID == "" {
		t.Error("expected budget ID to be assigned")
	}

	// Upserting the same category/month replaces the limit, keeps the ID.
	b2, err := s.UpsertBudget(ctx, Budget{Category: "Food & Dining", Month: "2024-02", Limit: 6000})
	if err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}
	if b2.ID != b.ID {
		t.Errorf("upsert changed budget ID: %q -> %q", b.ID, b2.ID)
	}

	budgets, err := s.ListBudgets(ctx, "2024-02")
	if err != nil {
		t.Fatalf("ListBudgets failed: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets: got %d, want 1", len(budgets))
	}
	if budgets[0].Limit != 6000 {
		t.Errorf("limit: got %v, want 6000", budgets[0].Limit)
	}
}

func TestUpsertBudgetConcurrentSameKey(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := s.UpsertBudget(ctx, Budget{
				Category: "Food & Dining",
				Month:    "2024-02",
				Limit:    float64(1000 + i),
			})
			ids[i], errs[i] = b.ID, err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	budgets, err := s.ListBudgets(ctx, "2024-02")
	if err != nil {
		t.Fatalf("ListBudgets failed: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets: got %d, want 1", len(budgets))
	}

	// Every caller must see the row that actually exists, not a stale ID.
	for i, id := range ids {
		if id != budgets[0].ID {
			t.Errorf("upsert %d returned ID %q, stored row has %q", i, id, budgets[0].ID)
		}
	}
}

func TestUpsertBudgetValidation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.UpsertBudget(ctx, Budget{Month: "2024-02", Limit: 100}); err == nil {
		t.Error("expected error for missing category")
	}
	if _, err := s.UpsertBudget(ctx, Budget{Category: "Food & Dining", Month: "2024-02", Limit: -1}); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestMonthlySummary(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.ImportTransactions(ctx, sampleTransactions()); err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if _, err := s.UpsertBudget(ctx, Budget{Category: "Food & Dining", Month: "2024-02", Limit: 5000}); err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}

	summaries, err := s.MonthlySummary(ctx, "2024-02")
	if err != nil {
		t.Fatalf("MonthlySummary failed: %v", err)
	}

	// Income rows are excluded: only the two expense categories appear.
	if len(summaries) != 2 {
		t.Fatalf("summaries: got %d, want 2", len(summaries))
	}

	byCategory := map[string]CategorySummary{}
	for _, cs := range summaries {
		byCategory[cs.Category] = cs
	}

	food := byCategory["Food & Dining"]
	if food.Spent != 420 {
		t.Errorf("food spent: got %v, want 420", food.Spent)
	}
	if food.Limit == nil || *food.Limit != 5000 {
		t.Errorf("food limit: got %v, want 5000", food.Limit)
	}

	transport := byCategory["Transportation"]
	if transport.Spent != 180 {
		t.Errorf("transport spent: got %v, want 180", transport.Spent)
	}
	if transport.Limit != nil {
		t.Errorf("transport limit: got %v, want nil (no budget set)", transport.Limit)
	}
}

func TestMonthOf(t *testing.T) {
	got := MonthOf(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	if got != "2024-02" {
		t.Errorf("MonthOf = %q, want 2024-02", got)
	}
}
