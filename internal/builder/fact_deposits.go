package builder

import "marketdw/internal/table"

// BuildDepositsFact is the simplest fact: a date key and the deposit
// measures, no dimension lookups.
func (b *Builder) BuildDepositsFact(deposits *table.Table) *table.Table {
	out := emptyTable("fact_deposits")
	if deposits == nil || deposits.Empty() {
		b.log.Warn().Msg("fact_deposits: no deposit data, returning empty fact")
		return out
	}

	var key seq
	for i := range deposits.Rows {
		appendRow(out, map[string]any{
			"deposit_key":                key.next(),
			"deposit_date_key":           dateKey(deposits.Get(i, "date")),
			"deposit_amount":             numOrNil(deposits.Get(i, "amount")),
			"deposit_status":             strOrNil(deposits.Get(i, "status")),
			"bank_account_ending_digits": strOrNil(deposits.Get(i, "bank_account_ending_digits")),
			"created_timestamp":          b.now,
			"updated_timestamp":          b.now,
			"data_source":                "deposits",
			"batch_id":                   b.batch,
		})
	}

	b.log.Info().Int("rows", out.Len()).Msg("built fact_deposits")
	return out
}
