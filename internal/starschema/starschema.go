// Package starschema orchestrates one complete build of the warehouse star
// schema from a loaded period bundle. It is pure table-to-table work: no I/O,
// no database. Persisting the result is the merge layer's job.
package starschema

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketdw/internal/builder"
	"marketdw/internal/dataset"
	"marketdw/internal/table"
)

// BuildOrder lists the warehouse tables in dependency order: dim_time first
// so date keys always have a target, every other dimension next, facts last.
// The merge layer persists in this order too.
var BuildOrder = []string{
	"dim_time",
	"dim_geography",
	"dim_product",
	"dim_customer",
	"dim_payment",
	"dim_order",
	"dim_bank_account",
	"dim_product_catalog",
	"fact_sales",
	"fact_financial_transactions",
	"fact_deposits",
	"fact_payments",
	"fact_bank_transactions",
}

// StarSchema runs the dimension and fact builders against one period's
// datasets. Each instance carries its own key space and batch id; use a fresh
// instance per run.
type StarSchema struct {
	b   *builder.Builder
	log zerolog.Logger

	batch string
}

func New(log zerolog.Logger) *StarSchema {
	return NewAt(log, time.Now(), uuid.NewString())
}

// NewAt pins the clock and batch id. Tests use it for deterministic output.
func NewAt(log zerolog.Logger, now time.Time, batchID string) *StarSchema {
	return &StarSchema{
		b:     builder.New(builder.NewKeySpace(), log, now, batchID),
		log:   log,
		batch: batchID,
	}
}

// BatchID returns the id stamped on every fact row of this run.
func (s *StarSchema) BatchID() string { return s.batch }

// Keys exposes the run's key lookups, mainly for the merge layer.
func (s *StarSchema) Keys() *builder.KeySpace { return s.b.Keys() }

// BuildComplete builds all thirteen tables. Missing datasets degrade to
// empty (or fallback) tables; the result always has an entry per table in
// BuildOrder.
func (s *StarSchema) BuildComplete(data dataset.Bundle) map[string]*table.Table {
	s.log.Info().Str("batch_id", s.batch).Msg("building star schema")

	out := map[string]*table.Table{}
	out["dim_time"] = s.b.BuildTimeDimension(time.Time{}, time.Time{})
	out["dim_geography"] = s.b.BuildGeographyDimension(data["sold_orders"])
	out["dim_product"] = s.b.BuildProductDimension(data["listing"], data["sold_order_items"])
	out["dim_customer"] = s.b.BuildCustomerDimension(data["sold_orders"], data["direct_checkout"])
	out["dim_payment"] = s.b.BuildPaymentDimension(data["sold_orders"], data["direct_checkout"])
	out["dim_order"] = s.b.BuildOrderDimension(data["sold_orders"], data["direct_checkout"])
	out["dim_bank_account"] = s.b.BuildBankAccountDimension(bankAccounts(data, s.log))
	out["dim_product_catalog"] = s.b.BuildProductCatalogDimension(data["product_catalog"])

	out["fact_sales"] = s.b.BuildSalesFact(data["sold_order_items"], data["direct_checkout"])
	out["fact_financial_transactions"] = s.b.BuildFinancialTransactionsFact(
		data["statement"], data["direct_checkout"], data["sold_order_items"])
	out["fact_deposits"] = s.b.BuildDepositsFact(data["deposits"])
	out["fact_payments"] = s.b.BuildPaymentsFact(data["direct_checkout"])
	out["fact_bank_transactions"] = s.b.BuildBankTransactionsFact(data["bank_transactions"])

	var rows int
	for _, t := range out {
		rows += t.Len()
	}
	s.log.Info().Str("batch_id", s.batch).Int("tables", len(out)).Int("rows", rows).Msg("star schema built")
	return out
}

// bankAccounts prefers the dedicated account export. Without one, the account
// attribute columns repeated on every bank statement line are a serviceable
// substitute; the dimension builder dedupes by account number either way.
func bankAccounts(data dataset.Bundle, log zerolog.Logger) *table.Table {
	if t := data["bank_account"]; !t.Empty() {
		return t
	}
	tx := data["bank_transactions"]
	if tx.Empty() || !tx.HasColumn("account_number") {
		return nil
	}
	log.Info().Msg("no bank account dataset, deriving accounts from bank transactions")

	cols := []string{"account_number", "account_name", "customer_address", "cif_number", "opening_date", "currency_code"}
	out := table.New(cols)
	seen := map[string]bool{}
	for i := range tx.Rows {
		acct := builder.Key(tx.Get(i, "account_number"))
		if acct == "" || seen[acct] {
			continue
		}
		seen[acct] = true
		out.Append([]any{
			tx.Get(i, "account_number"),
			tx.Get(i, "account_name"),
			tx.Get(i, "customer_address"),
			tx.Get(i, "cif_number"),
			tx.Get(i, "opening_date"),
			tx.Get(i, "currency_code"),
		})
	}
	return out
}
