package statement

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// extractCSV splits the input into header and data rows using the given
// delimiter. The first line is the header row; data rows whose column
// count does not exactly match the header count are dropped, favoring
// partial success over hard failure.
func extractCSV(data []byte, delim rune) []rawRecord {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil
	}

	headers := splitDelimited(lines[0], delim)
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var records []rawRecord
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitDelimited(line, delim)
		if len(values) != len(headers) {
			continue
		}
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
		}
		records = append(records, rawRecord{headers: headers, values: values})
	}
	return records
}

// splitDelimited splits a line on the delimiter with quote-awareness: a
// double-quote toggles quoted mode, inside which the delimiter is literal
// text. This keeps descriptions like "Smith, John" in one field.
func splitDelimited(line string, delim rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// extractJSON expects a JSON array of flat objects; each object's keys and
// values become the header/value pairs of one record, in document order so
// the mapper's last-wins rule behaves the same as for CSV headers. Valid
// non-array JSON yields an empty result; malformed JSON is a whole-file
// error.
func extractJSON(data []byte) ([]rawRecord, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("statement: malformed JSON: %w", ErrMalformedInput)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	// Consume the opening bracket.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("statement: malformed JSON: %w", ErrMalformedInput)
	}

	var records []rawRecord
	for dec.More() {
		rec, ok, err := decodeJSONObject(dec)
		if err != nil {
			return nil, fmt.Errorf("statement: malformed JSON: %w", ErrMalformedInput)
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// decodeJSONObject reads one array element. Non-object elements are
// skipped (row-level leniency); nested values inside an object are skipped
// as well, keeping only scalar key/value pairs.
func decodeJSONObject(dec *json.Decoder) (rawRecord, bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return rawRecord{}, false, err
	}

	delim, isDelim := tok.(json.Delim)
	if !isDelim || delim != '{' {
		if isDelim {
			// Nested array element: skip it wholesale.
			if err := skipJSONValue(dec, delim); err != nil {
				return rawRecord{}, false, err
			}
		}
		return rawRecord{}, false, nil
	}

	var rec rawRecord
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return rawRecord{}, false, err
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return rawRecord{}, false, err
		}

		if d, ok := valTok.(json.Delim); ok {
			if err := skipJSONValue(dec, d); err != nil {
				return rawRecord{}, false, err
			}
			continue
		}

		rec.headers = append(rec.headers, strings.ToLower(strings.TrimSpace(key)))
		rec.values = append(rec.values, jsonScalarString(valTok))
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return rawRecord{}, false, err
	}
	return rec, len(rec.headers) > 0, nil
}

// skipJSONValue consumes tokens until the compound value opened by the
// given delimiter is fully read.
func skipJSONValue(dec *json.Decoder, open json.Delim) error {
	if open != '{' && open != '[' {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func jsonScalarString(tok json.Token) string {
	switch v := tok.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// textFieldSplitter separates loosely-delimited text fields: a tab or a
// run of two or more spaces.
var textFieldSplitter = regexp.MustCompile(`\t+| {2,}`)

// extractText handles loosely-delimited plain text. There is no header
// row; a line is a candidate transaction only if it yields at least three
// non-empty parts, read positionally as date, description, amount.
func extractText(data []byte) []rawRecord {
	var records []rawRecord
	for _, line := range splitLines(data) {
		rec, ok := textLineRecord(line)
		if ok {
			records = append(records, rec)
		}
	}
	return records
}

var textHeaders = []string{"date", "description", "amount"}

func textLineRecord(line string) (rawRecord, bool) {
	parts := textFieldSplitter.Split(strings.TrimSpace(line), -1)

	fields := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			fields = append(fields, p)
		}
	}
	if len(fields) < 3 {
		return rawRecord{}, false
	}
	return rawRecord{headers: textHeaders, values: fields[:3]}, true
}

// xmlNode is a generic element tree used to walk arbitrary statement XML.
type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

// xmlRecordNames are the repeating element names recognized as
// transactions, in priority order.
var xmlRecordNames = []string{"transaction", "row", "record"}

// extractXML finds the first repeating element name with any matches and
// turns each matched element's child elements into header/value pairs.
// A malformed document is a whole-file error.
func extractXML(data []byte) ([]rawRecord, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("statement: malformed XML: %w", ErrMalformedInput)
	}

	for _, name := range xmlRecordNames {
		var matches []xmlNode
		collectElements(root, name, &matches)
		if len(matches) == 0 {
			continue
		}

		records := make([]rawRecord, 0, len(matches))
		for _, el := range matches {
			var rec rawRecord
			for _, child := range el.Children {
				rec.headers = append(rec.headers, strings.ToLower(child.XMLName.Local))
				rec.values = append(rec.values, strings.TrimSpace(child.Text))
			}
			if len(rec.headers) > 0 {
				records = append(records, rec)
			}
		}
		return records, nil
	}
	return nil, nil
}

func collectElements(node xmlNode, name string, out *[]xmlNode) {
	if strings.ToLower(node.XMLName.Local) == name {
		*out = append(*out, node)
		return
	}
	for _, child := range node.Children {
		collectElements(child, name, out)
	}
}

// autoDetect is the best-effort chain for unknown extensions: JSON, then
// comma-delimited, then tab-delimited, then XML sniffing, then loose text.
func autoDetect(data []byte) []rawRecord {
	if json.Valid(data) {
		records, err := extractJSON(data)
		if err == nil {
			return records
		}
	}
	if bytes.ContainsRune(data, ',') {
		return extractCSV(data, ',')
	}
	if bytes.ContainsRune(data, '\t') {
		return extractCSV(data, '\t')
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '<' {
		if records, err := extractXML(data); err == nil {
			return records
		}
	}
	return extractText(data)
}

func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\uFEFF")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
