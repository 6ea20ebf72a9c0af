package builder

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// expiryNever marks SCD rows that have not been closed.
var expiryNever = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// dateLayouts covers the formats the marketplace exports use. Order matters:
// four-digit years before two-digit so "1/2/2025" never parses as year 20.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06",
	"January 2, 2006",
	time.RFC3339,
}

// parseDate accepts time.Time, a string in any known layout, or an int64
// YYYYMMDD value. Anything else reports false.
func parseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case int64:
		return dateFromKey(t)
	case float64:
		return dateFromKey(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

func dateFromKey(k int64) (time.Time, bool) {
	if k < 10000101 || k > 99991231 {
		return time.Time{}, false
	}
	y, m, d := int(k/10000), int(k/100%100), int(k%100)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

// dateKey renders a date value as its YYYYMMDD integer key, or nil when the
// value does not parse.
func dateKey(v any) any {
	d, ok := parseDate(v)
	if !ok {
		return nil
	}
	return int64(d.Year()*10000 + int(d.Month())*100 + d.Day())
}

// dateKeyLayout is dateKey restricted to one explicit string layout, for
// sources with an ambiguous day-first convention.
func dateKeyLayout(v any, layout string) any {
	s, ok := v.(string)
	if !ok {
		if t, isTime := v.(time.Time); isTime {
			return dateKey(t)
		}
		return nil
	}
	d, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return dateKey(d)
}

// str returns the trimmed string form of a cell, "" for nil or blank.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return Key(v)
	}
}

// strOrNil is str but keeps nil for empty cells.
func strOrNil(v any) any {
	if s := str(v); s != "" {
		return s
	}
	return nil
}

// num coerces a cell to float64; false for nil or non-numeric.
func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numOrNil(v any) any {
	if f, ok := num(v); ok {
		return f
	}
	return nil
}

var reWhitespace = regexp.MustCompile(`\s+`)

// cleanText collapses internal whitespace and trims; nil-ish markers stay nil.
func cleanText(v any) any {
	s := str(v)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return nil
	}
	return reWhitespace.ReplaceAllString(s, " ")
}

// keyOf resolves a lookup map entry for a cell value; nil on miss or empty
// key. Misses are the caller's match-rate statistic, never an error.
func keyOf(m map[string]int64, v any) any {
	k := Key(v)
	if k == "" {
		return nil
	}
	if sk, ok := m[k]; ok {
		return sk
	}
	return nil
}
