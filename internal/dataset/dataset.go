// Package dataset loads a period directory of marketplace CSV exports into
// named in-memory tables. Headers are normalized to snake_case, missing-value
// markers become nil, and numeric-looking cells are coerced best-effort. The
// builders downstream never see raw header spellings.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"marketdw/internal/table"
)

// Bundle maps logical dataset names to their loaded tables.
type Bundle map[string]*table.Table

// filePatterns maps filename substrings to logical dataset names. Order
// matters: the first pattern contained in a filename wins, and a dataset is
// filled at most once.
var filePatterns = []struct {
	pattern string
	name    string
}{
	{"ListingsDownload", "listing"},
	{"SoldOrderItems", "sold_order_items"},
	{"SoldOrders", "sold_orders"},
	{"statement_", "statement"},
	{"Deposits", "deposits"},
	{"DirectCheckoutPayments", "direct_checkout"},
	{"bank_transactions", "bank_transactions"},
	{"product_catalog", "product_catalog"},
	{"bank_account", "bank_account"},
}

// Load reads every recognized CSV under dir. A missing file means a missing
// dataset, not an error; a file that fails to parse is logged and skipped.
// Only an unreadable directory fails the load.
func Load(dir string, log zerolog.Logger) (Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}

	bundle := Bundle{}
	for _, fp := range filePatterns {
		if _, done := bundle[fp.name]; done {
			continue
		}
		for _, fname := range names {
			if !strings.Contains(fname, fp.pattern) {
				continue
			}
			t, err := readCSV(filepath.Join(dir, fname))
			if err != nil {
				log.Warn().Err(err).Str("file", fname).Str("dataset", fp.name).Msg("skipping unparsable csv")
				break
			}
			derive(fp.name, t)
			bundle[fp.name] = t
			log.Info().Str("file", fname).Str("dataset", fp.name).Int("rows", t.Len()).Msg("loaded dataset")
			break
		}
	}
	return bundle, nil
}

func readCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = snakeCase(h)
	}

	t := table.New(cols)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]any, len(cols))
		for i := range cols {
			if i < len(rec) {
				row[i] = coerce(rec[i])
			}
		}
		t.Append(row)
	}
	return t, nil
}

var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reSpaces  = regexp.MustCompile(`\s+`)
	reUnder   = regexp.MustCompile(`_+`)
)

// snakeCase turns a raw CSV header into its canonical column name:
// punctuation becomes spaces, runs of whitespace collapse, lower-cased,
// spaces become single underscores. "Fees & Taxes" -> "fees_taxes".
func snakeCase(s string) string {
	s = reNonWord.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(reSpaces.ReplaceAllString(s, " ")))
	s = strings.ReplaceAll(s, " ", "_")
	return reUnder.ReplaceAllString(s, "_")
}

var missingMarkers = map[string]bool{
	"":     true,
	"--":   true,
	"n/a":  true,
	"nan":  true,
	"none": true,
	"null": true,
}

var reCurrencyRune = regexp.MustCompile(`[₫đ$€£]`)

// coerce converts a raw CSV cell to nil, int64, float64, or string.
// Strings with a leading zero stay strings (zip codes, account numbers).
func coerce(raw string) any {
	s := strings.TrimSpace(raw)
	if missingMarkers[strings.ToLower(s)] {
		return nil
	}
	if len(s) > 1 && s[0] == '0' && !strings.Contains(s, ".") {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	// currency-ish: "1,234.56", "-₫5000", "(12.30)"
	c := strings.ReplaceAll(s, ",", "")
	c = reCurrencyRune.ReplaceAllString(c, "")
	if strings.HasPrefix(c, "(") && strings.HasSuffix(c, ")") {
		c = "-" + c[1:len(c)-1]
	}
	if c != s {
		if f, err := strconv.ParseFloat(c, 64); err == nil {
			return f
		}
	}
	return s
}
