package statement

import "strings"

// rawRecord is the uniform intermediate representation every extractor
// produces: parallel ordered header/value lists. Headers arrive
// lower-cased and trimmed. Keeping the pairs ordered matters because the
// mapper's last-matching-header-wins rule depends on iteration order.
type rawRecord struct {
	headers []string
	values  []string
}

// mappedFields holds the raw string values assigned to the five logical
// transaction fields. Date, description and amount are required for a
// record to be emitted; balance and type are optional enrichments.
type mappedFields struct {
	date        string
	description string
	amount      string
	balance     string
	typ         string

	hasDate        bool
	hasDescription bool
	hasAmount      bool
	hasBalance     bool
	hasType        bool
}

// fieldSynonyms maps each logical field to its header synonym substrings,
// in the order the fields are checked. Matching is case-insensitive
// substring containment, so "Transaction Date (IST)" matches "date".
var fieldSynonyms = []struct {
	field    string
	synonyms []string
}{
	{"date", []string{"date", "transaction date", "txn date", "value date"}},
	{"description", []string{"description", "narration", "particulars", "details", "transaction details"}},
	{"amount", []string{"amount", "debit", "credit", "transaction amount"}},
	{"balance", []string{"balance", "closing balance", "available balance"}},
	{"type", []string{"type", "transaction type", "dr/cr", "debit/credit"}},
}

// mapRecord assigns header/value pairs to logical fields. Headers are
// scanned in order and a later matching header overwrites an earlier
// assignment; a single header may feed several logical fields (a
// "Debit/Credit" column matches both amount and type).
func mapRecord(rec rawRecord) mappedFields {
	var out mappedFields

	for i, header := range rec.headers {
		if i >= len(rec.values) {
			break
		}
		value := rec.values[i]

		for _, fs := range fieldSynonyms {
			if !headerMatches(header, fs.synonyms) {
				continue
			}
			switch fs.field {
			case "date":
				out.date, out.hasDate = value, true
			case "description":
				out.description, out.hasDescription = value, true
			case "amount":
				out.amount, out.hasAmount = value, true
			case "balance":
				out.balance, out.hasBalance = value, true
			case "type":
				out.typ, out.hasType = value, true
			}
		}
	}

	return out
}

func headerMatches(header string, synonyms []string) bool {
	for _, syn := range synonyms {
		if strings.Contains(header, syn) {
			return true
		}
	}
	return false
}
