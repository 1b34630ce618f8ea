package statement

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ametlin/budgetlens/internal/classify"
	"github.com/ametlin/budgetlens/internal/domain"
	"github.com/ametlin/budgetlens/internal/logger"
)

func testParser() *Parser {
	p := NewParser(classify.New(), logger.NewWithWriter(nopWriter{}))
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	p.newID = func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
	return p
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestParseFileCSVQuoteAwareness(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		`01/02/2024,"Smith, John",100` + "\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}
	if txs[0].Description != "Smith, John" {
		t.Errorf("description: got %q, want %q", txs[0].Description, "Smith, John")
	}
	if txs[0].Amount != 100 {
		t.Errorf("amount: got %v, want 100", txs[0].Amount)
	}
}

func TestParseFileCSVColumnCountRejection(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		"01/02/2024,short row\n" + // 2 fields, dropped
		"02/02/2024,too,many,fields\n" + // 4 fields, dropped
		"03/02/2024,valid purchase,50\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1 (malformed rows dropped, valid kept)", len(txs))
	}
	if txs[0].Description != "valid purchase" {
		t.Errorf("description: got %q", txs[0].Description)
	}
}

func TestParseFileDateFormatPriority(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n01/02/2024,corner shop,10\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}

	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !txs[0].Date.Equal(want) {
		t.Errorf("date: got %v, want %v (day-first layout is tried first)", txs[0].Date, want)
	}
}

func TestParseFileAmountNormalization(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		`01/02/2024,quoted rupees,"₹1,250.50"` + "\n" +
		"02/02/2024,garbage amount,abc\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2 (garbage amount normalizes to 0, not rejection)", len(txs))
	}
	if txs[0].Amount != 1250.50 {
		t.Errorf("amount: got %v, want 1250.50", txs[0].Amount)
	}
	if txs[1].Amount != 0 {
		t.Errorf("amount: got %v, want 0", txs[1].Amount)
	}
}

func TestParseFileNonFiniteAmountNormalizesToZero(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		"01/02/2024,odd export row,NaN\n" +
		"02/02/2024,another odd row,Inf\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	for _, tx := range txs {
		if tx.Amount != 0 {
			t.Errorf("%q: amount %v, want 0 (non-finite values are garbage)", tx.Description, tx.Amount)
		}
	}
}

func TestParseFileDirectionAndCategory(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		"01/02/2024,Salary Credit ABC Corp,50000\n" +
		"02/02/2024,POS Purchase XYZ,999\n" +
		"03/02/2024,Uber Eats order,340\n" +
		"04/02/2024,uber trip downtown,180\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("transactions: got %d, want 4", len(txs))
	}

	if txs[0].Type != domain.TypeIncome {
		t.Errorf("salary credit: got %q, want income despite positive amount", txs[0].Type)
	}
	if txs[1].Type != domain.TypeExpense {
		t.Errorf("pos purchase: got %q, want expense", txs[1].Type)
	}
	if txs[2].Category != "Food & Dining" {
		t.Errorf("uber eats: got %q, want Food & Dining", txs[2].Category)
	}
	if txs[3].Category != "Transportation" {
		t.Errorf("uber trip: got %q, want Transportation", txs[3].Category)
	}
}

func TestParseFileUnparseableDateRejectsRow(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n" +
		"someday,mystery shop,100\n" +
		"01/02/2024,real shop,100\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}
	if txs[0].Description != "real shop" {
		t.Errorf("description: got %q", txs[0].Description)
	}
}

func TestParseFileTSV(t *testing.T) {
	p := testParser()

	data := []byte("Date\tDescription\tAmount\tBalance\n" +
		"01/02/2024\tNetflix subscription\t649\t12,500.00\n")

	txs, err := p.ParseFile("statement.tsv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}
	if txs[0].Category != "Entertainment" {
		t.Errorf("category: got %q, want Entertainment", txs[0].Category)
	}
	if txs[0].Balance == nil || *txs[0].Balance != 12500.00 {
		t.Errorf("balance: got %v, want 12500.00", txs[0].Balance)
	}
}

func TestParseFileJSONArray(t *testing.T) {
	p := testParser()

	data := []byte(`[
		{"Date": "2024-02-01", "Description": "NEFT from employer salary", "Amount": -50000, "Type": "CR"},
		{"Date": "2024-02-03", "Description": "ATM cash wdl", "Amount": 2000}
	]`)

	txs, err := p.ParseFile("statement.json", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].Type != domain.TypeIncome {
		t.Errorf("type: got %q, want income", txs[0].Type)
	}
	if txs[0].Amount != 50000 {
		t.Errorf("amount: got %v, want magnitude 50000", txs[0].Amount)
	}
	if txs[1].Category != "ATM" {
		t.Errorf("category: got %q, want ATM", txs[1].Category)
	}
}

func TestParseFileJSONNonArrayYieldsEmpty(t *testing.T) {
	p := testParser()

	txs, err := p.ParseFile("statement.json", []byte(`{"not": "an array"}`))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions: got %d, want 0", len(txs))
	}
}

func TestParseFileJSONMalformedIsFatal(t *testing.T) {
	p := testParser()

	_, err := p.ParseFile("statement.json", []byte(`[{"a": 1}`))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestParseFileText(t *testing.T) {
	p := testParser()

	data := []byte("Statement for account 1234\n" +
		"01/02/2024\tSwiggy lunch order\t420.00\n" +
		"02/02/2024    IMPS transfer to savings    5,000.00\n" +
		"just a note line\n")

	txs, err := p.ParseFile("statement.txt", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].Category != "Food & Dining" {
		t.Errorf("category: got %q, want Food & Dining", txs[0].Category)
	}
	if txs[1].Amount != 5000 {
		t.Errorf("amount: got %v, want 5000", txs[1].Amount)
	}
}

func TestParseFileXML(t *testing.T) {
	p := testParser()

	data := []byte(`<statement>
		<transaction>
			<date>05/01/2024</date>
			<narration>UPI payment to grocer</narration>
			<amount>-200</amount>
		</transaction>
		<transaction>
			<date>06/01/2024</date>
			<narration>Interest credit</narration>
			<amount>35.50</amount>
		</transaction>
	</statement>`)

	txs, err := p.ParseFile("statement.xml", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].Type != domain.TypeExpense {
		t.Errorf("type: got %q, want expense", txs[0].Type)
	}
	if txs[0].Category != "Transfer" {
		t.Errorf("category: got %q, want Transfer", txs[0].Category)
	}
	if txs[1].Type != domain.TypeIncome {
		t.Errorf("type: got %q, want income", txs[1].Type)
	}
}

func TestParseFileXMLMalformedIsFatal(t *testing.T) {
	p := testParser()

	_, err := p.ParseFile("statement.xml", []byte(`<statement><transaction>`))
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestParseFileExcelIsFatal(t *testing.T) {
	p := testParser()

	_, err := p.ParseFile("statement.xlsx", []byte{0x50, 0x4b, 0x03, 0x04})
	if !errors.Is(err, ErrExcelUnsupported) {
		t.Errorf("expected ErrExcelUnsupported, got %v", err)
	}

	_, err = p.ParseFile("statement.xls", []byte{0xd0, 0xcf})
	if !errors.Is(err, ErrExcelUnsupported) {
		t.Errorf("expected ErrExcelUnsupported, got %v", err)
	}
}

func TestParseFileEmptyIsFatal(t *testing.T) {
	p := testParser()

	if _, err := p.ParseFile("statement.csv", nil); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestParseFileAutoDetectFallbackChain(t *testing.T) {
	p := testParser()

	// Not valid JSON as a whole, no comma, no tab, not XML-tagged: falls
	// all the way to the loose text extractor, which finds no 3-part
	// lines. The call succeeds with an empty result.
	data := []byte("{\"a\":1}\n{\"b\":2}\n")

	txs, err := p.ParseFile("statement", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions: got %d, want 0", len(txs))
	}
}

func TestParseFileAutoDetectCSV(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n01/02/2024,corner shop,10\n")

	txs, err := p.ParseFile("statement.dat", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("transactions: got %d, want 1", len(txs))
	}
}

func TestParseFileAutoDetectJSON(t *testing.T) {
	p := testParser()

	data := []byte(`[{"date": "2024-02-01", "description": "refund from store", "amount": 99}]`)

	txs, err := p.ParseFile("download", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d, want 1", len(txs))
	}
	if txs[0].Type != domain.TypeIncome {
		t.Errorf("type: got %q, want income (refund keyword)", txs[0].Type)
	}
}

func TestParseFileAssignsIDsAndCreatedAt(t *testing.T) {
	p := testParser()

	data := []byte("Date,Description,Amount\n01/02/2024,shop one,10\n02/02/2024,shop two,20\n")

	txs, err := p.ParseFile("statement.csv", data)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("transactions: got %d, want 2", len(txs))
	}
	if txs[0].ID == txs[1].ID {
		t.Error("expected unique IDs per transaction")
	}
	if txs[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if txs[0].CreatedAt.Equal(txs[0].Date) {
		t.Error("CreatedAt must be ingestion time, not the statement date")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"statement.csv", FormatCSV},
		{"statement.TSV", FormatTSV},
		{"export.json", FormatJSON},
		{"notes.txt", FormatText},
		{"feed.xml", FormatXML},
		{"book.xlsx", FormatExcel},
		{"book.xls", FormatExcel},
		{"scan.pdf", FormatPDF},
		{"mystery.dat", FormatUnknown},
		{"noextension", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.name); got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
