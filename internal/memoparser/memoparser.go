// Package memoparser extracts structured product references from free-text
// bank statement descriptions.
//
// Business payments carry a memo of the form "PL1_PROD2_VAR3 6211": a
// product-line / product / variant triple, optionally followed by a four
// digit cost-accounting code. Everything else on the statement (groceries,
// transfers, fees) has no such memo, so a non-match is the normal outcome,
// not an error.
package memoparser

import (
	"regexp"
	"strings"
)

// reMemo matches LINE_PRODUCT_VARIANT with an optional trailing account code.
// Segments are alphanumeric; the underscore structure is what distinguishes a
// product memo from ordinary prose.
var reMemo = regexp.MustCompile(`(?i)([A-Z0-9]+)_([A-Z0-9]+)_([A-Z0-9]+)(?:\s+(\d{4}))?`)

// accountCodes is the fixed chart-of-accounts allow-list. A four digit number
// after the memo that is not on this list is treated as coincidental text and
// discarded, keeping the parsed triple.
var accountCodes = map[string]struct{}{
	"6211": {}, "6221": {}, "6222": {}, "6223": {}, "6224": {}, "6225": {},
	"6273": {},
	"6411": {}, "6412": {}, "6413": {}, "6414": {},
	"6421": {}, "6428": {},
}

// Result holds the fields parsed from one description. All fields are empty
// when the description carries no product memo.
type Result struct {
	ProductLineID string
	ProductID     string
	VariantID     string
	AccountCode   string
}

// Matched reports whether the description contained a product memo.
func (r Result) Matched() bool { return r.ProductLineID != "" }

// Parse scans a statement description for a product memo. Identifier
// segments are uppercased so that "pl1_prod2_var3" and "PL1_PROD2_VAR3"
// resolve to the same catalog entry.
func Parse(description string) Result {
	m := reMemo.FindStringSubmatch(description)
	if m == nil {
		return Result{}
	}

	out := Result{
		ProductLineID: strings.ToUpper(m[1]),
		ProductID:     strings.ToUpper(m[2]),
		VariantID:     strings.ToUpper(m[3]),
	}
	if code := m[4]; code != "" {
		if _, ok := accountCodes[code]; ok {
			out.AccountCode = code
		}
	}
	return out
}

// ValidAccountCode reports whether code is on the chart-of-accounts
// allow-list.
func ValidAccountCode(code string) bool {
	_, ok := accountCodes[code]
	return ok
}
