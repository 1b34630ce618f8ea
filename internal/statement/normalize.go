package statement

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayouts is the ordered list of explicit formats tried first. The
// order matters: an ambiguous string like "01/02/2024" takes the
// day-first interpretation because that layout is tried first.
var dateLayouts = []string{
	"02/01/2006", // dd/MM/yyyy
	"01/02/2006", // MM/dd/yyyy
	"2006-01-02", // yyyy-MM-dd
	"02-01-2006", // dd-MM-yyyy
	"01-02-2006", // MM-dd-yyyy
}

// fallbackLayouts approximates permissive native date-string parsing for
// values the explicit list cannot handle.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2-Jan-2006",
	"02-Jan-2006",
}

// parseDate tries each explicit layout in order and takes the first that
// yields a valid calendar date, then falls back to the permissive list.
// ok is false when nothing matches; such records are rejected upstream.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var currencyReplacer = strings.NewReplacer(
	"₹", "",
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"\u00A0", "", // non-breaking space
	"\t", "",
)

// parseAmount strips currency symbols, thousands separators and whitespace
// and parses the remainder as a float. A non-numeric remainder normalizes
// to 0 with ok=false; callers that need a real number (balance) check ok,
// while the amount field keeps the 0 and lets the record through.
func parseAmount(s string) (float64, bool) {
	cleaned := currencyReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}

	// ParseFloat accepts "NaN" and "Inf"; amounts must be finite, so
	// those normalize to 0 like any other garbage.
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
