package statement

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls plain text out of each PDF page and feeds the lines
// through the loose-text extractor, the same path a .txt upload takes.
// A document yielding no text at all is a whole-file error; statements
// that are scanned images cannot be parsed here.
func extractPDF(data []byte) ([]rawRecord, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("statement: unreadable PDF: %w", ErrMalformedInput)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("statement: no text could be extracted from PDF (scanned or image-based statements are not supported): %w", ErrMalformedInput)
	}

	return extractText([]byte(text.String())), nil
}
