package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ametlin/budgetlens/internal/classify"
	"github.com/ametlin/budgetlens/internal/config"
	"github.com/ametlin/budgetlens/internal/domain"
	"github.com/ametlin/budgetlens/internal/logger"
	"github.com/ametlin/budgetlens/internal/statement"
	"github.com/ametlin/budgetlens/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "import":
		runImport(log)
	case "expenses":
		runExpenses(log)
	case "budget":
		runBudget(log)
	case "summary":
		runSummary(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("BudgetLens CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse     Parse a bank statement file and print the transactions")
	fmt.Println("  import    Parse a statement and import its transactions as expenses")
	fmt.Println("  expenses  List stored expenses, optionally for one month")
	fmt.Println("  budget    Set a monthly budget for a category")
	fmt.Println("  summary   Show per-category spending for a month")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newParser(log zerolog.Logger) *statement.Parser {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	classifier := classify.New()
	if cfg.CategoriesPath != "" {
		classifier, err = classify.NewFromFile(cfg.CategoriesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CategoriesPath).Msg("Failed to load category rules")
		}
	}
	return statement.NewParser(classifier, log)
}

func openStore(log zerolog.Logger) *store.Store {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to open database")
	}
	return st
}

func parseFile(log zerolog.Logger, path string) []domain.Transaction {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read file")
	}

	txs, err := newParser(log).ParseFile(filepath.Base(path), data)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Parse failed")
	}
	return txs
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "", "Path to the statement file")
	asJSON := fs.Bool("json", false, "Print transactions as JSON")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	txs := parseFile(log, *file)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(txs); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode transactions")
		}
		return
	}

	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, tx := range txs {
		fmt.Printf("\n%d. %s\n", i+1, tx.Description)
		fmt.Printf("   Date:     %s\n", tx.Date.Format("2006-01-02"))
		fmt.Printf("   Amount:   %.2f (%s)\n", tx.Amount, tx.Type)
		fmt.Printf("   Category: %s\n", tx.Category)
		if tx.Balance != nil {
			fmt.Printf("   Balance:  %.2f\n", *tx.Balance)
		}
	}
	fmt.Println()
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Path to the statement file")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	txs := parseFile(log, *file)

	st := openStore(log)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := st.ImportTransactions(ctx, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Imported %d of %d transactions.\n", n, len(txs))
}

func runExpenses(log zerolog.Logger) {
	fs := flag.NewFlagSet("expenses", flag.ExitOnError)
	month := fs.String("month", "", "Month filter in YYYY-MM form (default: all)")
	fs.Parse(os.Args[2:])

	st := openStore(log)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expenses, err := st.ListExpenses(ctx, *month)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list expenses")
	}

	fmt.Printf("\n=== Expenses (%d) ===\n", len(expenses))
	for _, e := range expenses {
		fmt.Printf("%s  %-10s %10.2f  %-18s %s\n", e.Date, e.Type, e.Amount, e.Category, e.Description)
	}
	fmt.Println()
}

func runBudget(log zerolog.Logger) {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	category := fs.String("category", "", "Category name")
	month := fs.String("month", store.MonthOf(time.Now()), "Month in YYYY-MM form")
	limit := fs.Float64("limit", 0, "Monthly spending limit")
	fs.Parse(os.Args[2:])

	if *category == "" {
		log.Fatal().Msg("Error: --category is required")
	}

	st := openStore(log)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	budget, err := st.UpsertBudget(ctx, store.Budget{
		Category: *category,
		Month:    *month,
		Limit:    *limit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set budget")
	}

	fmt.Printf("Budget for %s in %s set to %.2f.\n", budget.Category, budget.Month, budget.Limit)
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	month := fs.String("month", store.MonthOf(time.Now()), "Month in YYYY-MM form")
	fs.Parse(os.Args[2:])

	st := openStore(log)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summaries, err := st.MonthlySummary(ctx, *month)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build summary")
	}

	fmt.Printf("\n=== Spending for %s ===\n", *month)
	for _, s := range summaries {
		if s.Limit != nil {
			fmt.Printf("%-18s %10.2f  (limit %.2f)\n", s.Category, s.Spent, *s.Limit)
		} else {
			fmt.Printf("%-18s %10.2f\n", s.Category, s.Spent)
		}
	}
	fmt.Println()
}
