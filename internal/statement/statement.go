// Package statement converts uploaded bank statement files of assorted
// formats into normalized transactions. Format-specific extractors reduce
// every input shape to ordered header/value pairs; a single shared mapping
// and classification path turns those into transactions. Malformed rows
// are dropped silently, so a parse only fails for whole-file problems.
package statement

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ametlin/budgetlens/internal/classify"
	"github.com/ametlin/budgetlens/internal/domain"
)

// Fatal whole-file error conditions. Row-level defects never surface as
// errors; the parse succeeds with whatever could be understood.
var (
	// ErrEmptyFile indicates the uploaded file had no content.
	ErrEmptyFile = errors.New("file is empty")

	// ErrExcelUnsupported indicates a declared .xlsx/.xls upload. Excel
	// parsing is intentionally not implemented.
	ErrExcelUnsupported = errors.New("Excel files are not supported; export the statement as CSV and upload that instead")

	// ErrMalformedInput indicates the file's root structure could not be
	// parsed for its declared format.
	ErrMalformedInput = errors.New("malformed input")
)

// Format identifies a statement file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatJSON    Format = "json"
	FormatText    Format = "txt"
	FormatXML     Format = "xml"
	FormatExcel   Format = "excel"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// DetectFormat maps a filename extension to a Format. Anything
// unrecognized, including a missing extension, yields FormatUnknown and
// triggers content auto-detection.
func DetectFormat(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "csv":
		return FormatCSV
	case "tsv":
		return FormatTSV
	case "json":
		return FormatJSON
	case "txt":
		return FormatText
	case "xml":
		return FormatXML
	case "xlsx", "xls":
		return FormatExcel
	case "pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// Parser converts statement files into transactions. It holds only
// immutable lookup tables and is safe for concurrent use; each call
// accumulates into its own output slice.
type Parser struct {
	classifier *classify.Classifier
	log        zerolog.Logger

	// Seams for deterministic tests.
	now   func() time.Time
	newID func() string
}

// NewParser creates a parser using the given classifier for direction and
// category inference.
func NewParser(classifier *classify.Classifier, log zerolog.Logger) *Parser {
	return &Parser{
		classifier: classifier,
		log:        log,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// ParseFile parses a whole statement file. The filename supplies the
// extension hint for format dispatch; data is the full file content.
// The returned slice is never nil on success.
func (p *Parser) ParseFile(name string, data []byte) ([]domain.Transaction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("statement: %s: %w", name, ErrEmptyFile)
	}

	format := DetectFormat(name)

	var (
		records []rawRecord
		err     error
	)
	switch format {
	case FormatCSV:
		records = extractCSV(data, ',')
	case FormatTSV:
		records = extractCSV(data, '\t')
	case FormatJSON:
		records, err = extractJSON(data)
	case FormatText:
		records = extractText(data)
	case FormatXML:
		records, err = extractXML(data)
	case FormatExcel:
		return nil, fmt.Errorf("statement: %s: %w", name, ErrExcelUnsupported)
	case FormatPDF:
		records, err = extractPDF(data)
	default:
		records = autoDetect(data)
	}
	if err != nil {
		return nil, err
	}

	transactions := make([]domain.Transaction, 0, len(records))
	dropped := 0
	for _, rec := range records {
		tx, ok := p.buildTransaction(rec)
		if !ok {
			dropped++
			continue
		}
		transactions = append(transactions, tx)
	}

	p.log.Debug().
		Str("file", name).
		Str("format", string(format)).
		Int("records", len(records)).
		Int("accepted", len(transactions)).
		Int("dropped", dropped).
		Msg("statement parsed")

	return transactions, nil
}

// buildTransaction maps one raw record into a transaction. ok is false
// when a required field is missing or the date cannot be parsed; those
// records are excluded without failing the parse.
func (p *Parser) buildTransaction(rec rawRecord) (domain.Transaction, bool) {
	fields := mapRecord(rec)

	if !fields.hasDate || !fields.hasDescription || !fields.hasAmount {
		return domain.Transaction{}, false
	}

	description := strings.TrimSpace(fields.description)
	if description == "" {
		return domain.Transaction{}, false
	}

	if strings.TrimSpace(fields.amount) == "" {
		return domain.Transaction{}, false
	}

	date, ok := parseDate(fields.date)
	if !ok {
		return domain.Transaction{}, false
	}

	// Garbage amounts normalize to 0 rather than rejecting the record;
	// zero-amount rows with a valid date and description are kept.
	signed, _ := parseAmount(fields.amount)

	tx := domain.Transaction{
		ID:          p.newID(),
		Date:        date,
		Description: description,
		Amount:      math.Abs(signed),
		Type:        p.classifier.Direction(description, fields.typ, signed),
		Category:    p.classifier.Category(description),
		CreatedAt:   p.now(),
	}

	if fields.hasBalance {
		if balance, ok := parseAmount(fields.balance); ok {
			tx.Balance = &balance
		}
	}

	return tx, true
}
