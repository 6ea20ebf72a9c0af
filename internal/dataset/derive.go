package dataset

import (
	"regexp"
	"strings"

	"marketdw/internal/table"
)

// derive adds the per-dataset computed columns the fact builders expect.
func derive(name string, t *table.Table) {
	switch name {
	case "statement":
		deriveStatement(t)
	case "sold_order_items":
		deriveOrderItemVariations(t)
	case "bank_transactions":
		renameBankColumns(t)
	}
}

// bankColumnRenames maps bank export headers (snake_cased, bilingual) onto
// canonical names. Declarative on purpose: an export header rename surfaces as
// a missing column at validation instead of a silent mis-map.
var bankColumnRenames = map[string]string{
	"ngày_gd_transaction_date":                "transaction_date",
	"mã_giao_dịch_reference_no":               "reference_number",
	"số_tài_khoản_truy_vấn_account_number":    "account_number",
	"tên_tài_khoản_truy_vấn_account_name":     "account_name",
	"ngày_mở_tài_khoản_opening_date":          "opening_date",
	"địa_chỉ_address":                         "customer_address",
	"số_cif_cif_number":                       "cif_number",
	"phát_sinh_có_credit_amount":              "credit_amount",
	"phát_sinh_nợ_debit_amount":               "debit_amount",
	"số_dư_balance":                           "balance_after_transaction",
	"diễn_giải_description":                   "transaction_description",
	"transaction_date":                        "transaction_date",
	"reference_no":                            "reference_number",
	"account_number":                          "account_number",
	"account_name":                            "account_name",
	"opening_date":                            "opening_date",
	"credit_amount":                           "credit_amount",
	"debit_amount":                            "debit_amount",
	"balance":                                 "balance_after_transaction",
	"description":                             "transaction_description",
}

func renameBankColumns(t *table.Table) {
	for i, c := range t.Columns {
		if target, ok := bankColumnRenames[c]; ok && !t.HasColumn(target) {
			t.Columns[i] = target
		}
	}
}

var (
	reInfoOrder       = regexp.MustCompile(`(?i)(order|order id|#)\s*[:#]?\s*(\d+)`)
	reInfoListing     = regexp.MustCompile(`(?i)(listing|listing id)\s*[:#]?\s*(\d+)`)
	reInfoTransaction = regexp.MustCompile(`(?i)(transaction|transaction id)\s*[:#]?\s*(\d+)`)
)

// deriveStatement extracts a referenced id from the free-text info column
// (extracted_id + id_type + info_description) and categorizes the transaction
// type into revenue_type / fee_type buckets.
func deriveStatement(t *table.Table) {
	for _, c := range []string{"extracted_id", "id_type", "info_description", "revenue_type", "fee_type"} {
		t.AddColumn(c, nil)
	}
	for i := range t.Rows {
		if info, ok := t.Get(i, "info").(string); ok {
			if id, typ := extractInfoID(info); id != "" {
				t.Set(i, "extracted_id", id)
				t.Set(i, "id_type", typ)
				t.Set(i, "info_description", info)
			}
		}
		typ, _ := t.Get(i, "type").(string)
		t.Set(i, "revenue_type", revenueType(typ))
		if ft := feeType(typ); ft != "" {
			t.Set(i, "fee_type", ft)
		}
	}
}

func extractInfoID(info string) (id, idType string) {
	if m := reInfoOrder.FindStringSubmatch(info); m != nil {
		return m[2], "order_id"
	}
	if m := reInfoListing.FindStringSubmatch(info); m != nil {
		return m[2], "listing_id"
	}
	if m := reInfoTransaction.FindStringSubmatch(info); m != nil {
		return m[2], "transaction_id"
	}
	return "", ""
}

func revenueType(transactionType string) string {
	s := strings.ToLower(transactionType)
	switch {
	case s == "":
		return "Unknown"
	case containsAny(s, "sale", "order", "item"):
		return "Sale"
	case containsAny(s, "deposit", "payout"):
		return "Deposit"
	case containsAny(s, "refund", "return"):
		return "Refund"
	case containsAny(s, "fee", "charge"):
		return "Fee"
	case strings.Contains(s, "tax"):
		return "Tax"
	default:
		return "Other"
	}
}

func feeType(transactionType string) string {
	s := strings.ToLower(transactionType)
	switch {
	case strings.Contains(s, "transaction"):
		return "Transaction Fee"
	case strings.Contains(s, "listing"):
		return "Listing Fee"
	case strings.Contains(s, "payment"):
		return "Payment Processing"
	case strings.Contains(s, "advertising"):
		return "Advertising"
	case strings.Contains(s, "regulatory"):
		return "Regulatory Fee"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var reVariationSplit = regexp.MustCompile(`[;,]\s*`)

// deriveOrderItemVariations splits the "Size: M, Color: Red" variations memo
// into dedicated columns.
func deriveOrderItemVariations(t *table.Table) {
	for _, c := range []string{"size", "style", "color", "material", "personalization"} {
		t.AddColumn(c, nil)
	}
	if !t.HasColumn("variations") {
		return
	}
	for i := range t.Rows {
		v, ok := t.Get(i, "variations").(string)
		if !ok {
			continue
		}
		for _, part := range reVariationSplit.Split(v, -1) {
			k, val, found := strings.Cut(part, ":")
			if !found {
				continue
			}
			k = strings.ToLower(strings.TrimSpace(k))
			val = strings.TrimSpace(val)
			switch {
			case strings.Contains(k, "size"):
				t.Set(i, "size", val)
			case strings.Contains(k, "style"):
				t.Set(i, "style", val)
			case strings.Contains(k, "color"), strings.Contains(k, "colour"):
				t.Set(i, "color", val)
			case strings.Contains(k, "material"):
				t.Set(i, "material", val)
			case strings.Contains(k, "personalization"):
				t.Set(i, "personalization", val)
			}
		}
	}
}
