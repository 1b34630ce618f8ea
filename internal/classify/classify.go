// Package classify infers transaction direction and spending category from
// statement text. All matching is case-insensitive substring matching over
// fixed, ordered keyword tables.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ametlin/budgetlens/internal/domain"
)

// CategoryRule pairs a category name with its keyword list. Rules are
// evaluated in slice order and the first match wins, so the ordering of
// the built-in table below is part of the contract: "uber eats" must hit
// Food & Dining before "uber" can hit Transportation.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// categoriesFile is the shape of an optional user-supplied YAML file with
// extra category rules.
type categoriesFile struct {
	Categories []CategoryRule `yaml:"categories"`
}

var builtinRules = []CategoryRule{
	{Name: "Food & Dining", Keywords: []string{
		"swiggy", "zomato", "uber eats", "restaurant", "cafe", "coffee",
		"pizza", "dominos", "mcdonald", "kfc", "starbucks", "burger",
		"dining", "eatery", "food",
	}},
	{Name: "Groceries", Keywords: []string{
		"bigbasket", "grofers", "blinkit", "dmart", "grocery", "supermarket",
		"walmart", "kirana", "fresh", "mart",
	}},
	{Name: "Transportation", Keywords: []string{
		"uber", "ola", "lyft", "rapido", "taxi", "cab", "metro", "bus",
		"train", "irctc", "fuel", "petrol", "diesel", "parking", "toll",
	}},
	{Name: "Shopping", Keywords: []string{
		"amazon", "flipkart", "myntra", "ajio", "snapdeal", "mall",
		"store", "shopping", "retail",
	}},
	{Name: "Bills & Utilities", Keywords: []string{
		"electricity", "water bill", "gas bill", "broadband", "internet",
		"mobile", "recharge", "postpaid", "prepaid", "dth", "utility",
		"bill payment", "rent",
	}},
	{Name: "Healthcare", Keywords: []string{
		"hospital", "pharmacy", "medical", "medicine", "doctor", "clinic",
		"apollo", "diagnostic", "lab test", "health",
	}},
	{Name: "Entertainment", Keywords: []string{
		"netflix", "spotify", "prime video", "hotstar", "disney", "movie",
		"cinema", "pvr", "inox", "bookmyshow", "game", "gaming",
	}},
	{Name: "Education", Keywords: []string{
		"school", "college", "university", "tuition", "course", "udemy",
		"coursera", "books", "exam fee",
	}},
	{Name: "ATM", Keywords: []string{
		"atm", "cash withdrawal", "cash wdl",
	}},
	{Name: "Transfer", Keywords: []string{
		"transfer", "neft", "imps", "rtgs", "upi", "fund trf",
	}},
}

// Direction keyword lists, checked against the description. Credit signals
// are evaluated before debit signals.
var (
	incomeKeywords  = []string{"credit", "deposit", "salary", "refund", "interest", "dividend"}
	expenseKeywords = []string{"debit", "withdrawal", "payment", "purchase", "fee", "charge"}
)

// Classifier assigns a direction and a category to parsed transactions.
// It holds only immutable rule tables and is safe for concurrent use.
type Classifier struct {
	rules []CategoryRule
}

// New returns a classifier with the built-in category table.
func New() *Classifier {
	return &Classifier{rules: builtinRules}
}

// NewFromFile returns a classifier with the built-in table plus any
// user-defined rules from the given YAML file. User rules are appended
// after the built-ins so they can never shadow a built-in match; they only
// catch descriptions that would otherwise fall through to Other.
func NewFromFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read %s: %w", path, err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("classify: parse %s: %w", path, err)
	}

	rules := make([]CategoryRule, 0, len(builtinRules)+len(file.Categories))
	rules = append(rules, builtinRules...)
	for _, r := range file.Categories {
		if r.Name == "" || len(r.Keywords) == 0 {
			return nil, fmt.Errorf("classify: %s: every category needs a name and at least one keyword", path)
		}
		rules = append(rules, r)
	}

	return &Classifier{rules: rules}, nil
}

// Category returns the first category in table order whose keyword list
// has a substring match against the description, or Other.
func (c *Classifier) Category(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule.Name
			}
		}
	}
	return domain.CategoryOther
}

// Direction infers income vs expense. Precedence: explicit credit signals
// (type field containing "cr"/"credit", or an income keyword in the
// description), then explicit debit signals, then the sign of the raw
// parsed amount. The sign default assumes bank exports list debits as
// positive numbers; it is a heuristic, not a guarantee.
func (c *Classifier) Direction(description, typeField string, signedAmount float64) domain.TransactionType {
	desc := strings.ToLower(description)
	typ := strings.ToLower(typeField)

	if strings.Contains(typ, "cr") || containsAny(desc, incomeKeywords) {
		return domain.TypeIncome
	}
	if strings.Contains(typ, "dr") || strings.Contains(typ, "debit") || containsAny(desc, expenseKeywords) {
		return domain.TypeExpense
	}

	if signedAmount > 0 {
		return domain.TypeExpense
	}
	return domain.TypeIncome
}

// Categories returns the effective category names in table order, ending
// with the Other fallback.
func (c *Classifier) Categories() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	return append(names, domain.CategoryOther)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
