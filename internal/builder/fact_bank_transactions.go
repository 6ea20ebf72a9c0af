package builder

import (
	"marketdw/internal/memoparser"
	"marketdw/internal/table"
)

// bankDateLayout is the day-first convention of the bank export. Parsed with
// an explicit layout so 03/04 never flips month and day.
const bankDateLayout = "02/01/2006"

// BuildBankTransactionsFact emits one row per bank statement line. The memo
// description is parsed for an embedded catalog token; the catalog key is
// attached only when all three id segments parsed, and is_business_related
// reflects exactly whether the parse produced a product line id.
func (b *Builder) BuildBankTransactionsFact(transactions *table.Table) *table.Table {
	out := emptyTable("fact_bank_transactions")
	if transactions == nil || transactions.Empty() {
		b.log.Warn().Msg("fact_bank_transactions: no transaction data, returning empty fact")
		return out
	}

	var key seq
	var accountHits, catalogHits, businessRows int
	for i := range transactions.Rows {
		desc := str(transactions.Get(i, "transaction_description"))
		parsed := memoparser.Parse(desc)

		var catalogKey any
		if parsed.ProductLineID != "" && parsed.ProductID != "" && parsed.VariantID != "" {
			code := parsed.ProductLineID + "_" + parsed.ProductID + "_" + parsed.VariantID
			catalogKey = keyOf(b.keys.ProductCatalog, code)
		}
		if catalogKey != nil {
			catalogHits++
		}
		if parsed.Matched() {
			businessRows++
		}

		accountKey := keyOf(b.keys.BankAccounts, transactions.Get(i, "account_number"))
		if accountKey != nil {
			accountHits++
		}

		appendRow(out, map[string]any{
			"bank_transaction_key":      key.next(),
			"bank_account_key":          accountKey,
			"transaction_date_key":      dateKeyLayout(transactions.Get(i, "transaction_date"), bankDateLayout),
			"product_catalog_key":       catalogKey,
			"reference_number":          strOrNil(transactions.Get(i, "reference_number")),
			"account_number":            strOrNil(transactions.Get(i, "account_number")),
			"transaction_description":   strOrNil(desc),
			"pl_account_number":         strOrNil(parsed.AccountCode),
			"parsed_product_line_id":    strOrNil(parsed.ProductLineID),
			"parsed_product_id":         strOrNil(parsed.ProductID),
			"parsed_variant_id":         strOrNil(parsed.VariantID),
			"credit_amount":             numOrNil(transactions.Get(i, "credit_amount")),
			"debit_amount":              numOrNil(transactions.Get(i, "debit_amount")),
			"balance_after_transaction": numOrNil(transactions.Get(i, "balance_after_transaction")),
			"is_business_related":       parsed.Matched(),
			"data_source":               "bank_statement",
			"batch_id":                  b.batch,
		})
	}

	b.log.Info().
		Int("rows", out.Len()).
		Int("account_matches", accountHits).
		Int("catalog_matches", catalogHits).
		Int("business_related", businessRows).
		Msg("built fact_bank_transactions")
	return out
}
