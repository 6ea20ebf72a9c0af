package builder

import "marketdw/internal/table"

// BuildBankAccountDimension emits one row per distinct account number. The
// input is either the dedicated bank account dataset or the best-effort
// account columns the orchestrator lifted out of the bank transactions file.
func (b *Builder) BuildBankAccountDimension(accounts *table.Table) *table.Table {
	out := emptyTable("dim_bank_account")
	if accounts == nil || accounts.Empty() {
		b.log.Warn().Msg("dim_bank_account: no account data, returning empty dimension")
		return out
	}

	seen := map[string]bool{}
	for i := range accounts.Rows {
		acct := str(accounts.Get(i, "account_number"))
		if acct == "" || seen[acct] {
			continue
		}
		seen[acct] = true

		key := b.keys.bankAccountSeq.next()
		if _, exists := b.keys.BankAccounts[acct]; !exists {
			b.keys.BankAccounts[acct] = key
		}

		var opening any
		if d, ok := parseDate(accounts.Get(i, "opening_date")); ok {
			opening = d
		}
		currency := str(accounts.Get(i, "currency_code"))
		if currency == "" {
			currency = "VND"
		}
		active := true
		if v, ok := accounts.Get(i, "is_active").(bool); ok {
			active = v
		}

		appendRow(out, map[string]any{
			"bank_account_key": key,
			"account_number":   acct,
			"account_name":     cleanText(accounts.Get(i, "account_name")),
			"opening_date":     opening,
			"cif_number":       strOrNil(accounts.Get(i, "cif_number")),
			"customer_address": cleanText(accounts.Get(i, "customer_address")),
			"is_active":        active,
			"currency_code":    currency,
			"created_date":     b.now,
			"updated_date":     b.now,
		})
	}

	b.log.Info().Int("rows", out.Len()).Msg("built dim_bank_account")
	return out
}
