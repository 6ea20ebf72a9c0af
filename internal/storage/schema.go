// The TableSpec types live here so the merge layer and backend packages can
// share them without circular deps.
package storage

// MergeStrategy selects how a table is reconciled against already-persisted
// rows.
type MergeStrategy string

const (
	// MergeAppend inserts rows as-is. The builder-assigned surrogate key is
	// dropped first so the database assigns the authoritative key.
	MergeAppend MergeStrategy = "append"

	// MergeUpsertBusinessKey discards rows whose business key already exists
	// in the database, inserts the rest, and remaps run-local surrogate keys
	// to the database's keys.
	MergeUpsertBusinessKey MergeStrategy = "upsert_business_key"

	// MergeUpsertDateKey inserts rows, skipping any whose natural date key
	// already exists. No remap: date keys are derived from the date itself.
	MergeUpsertDateKey MergeStrategy = "upsert_date_key"
)

// TableSpec describes one warehouse table: its columns, surrogate key and
// merge behavior.
type TableSpec struct {
	Name string

	// SurrogateKey is the database-assigned identity column ("serial").
	// Empty for dim_time, whose key is the natural date key.
	SurrogateKey string

	Columns []ColumnSpec

	Merge MergeSpec
}

// ColumnSpec describes one column. Type uses Postgres vocabulary; backends
// translate as needed (SQLite stores timestamptz as TEXT and maps serial to
// INTEGER PRIMARY KEY AUTOINCREMENT).
//
// References names the dimension table a foreign-key column points to. It is
// remap metadata for the merge layer, not enforced DDL: fact rows routinely
// carry NULL keys for failed lookups and date keys may fall outside the
// generated calendar range.
type ColumnSpec struct {
	Name       string
	Type       string
	Nullable   bool
	References string
}

// MergeSpec carries the strategy plus the key column it operates on.
type MergeSpec struct {
	Strategy MergeStrategy

	// BusinessKey is the natural-key column for MergeUpsertBusinessKey.
	BusinessKey string

	// DateKey is the natural date-key column for MergeUpsertDateKey.
	DateKey string
}

// Spec returns the TableSpec for name, or false when the table is not part
// of the star schema.
func Spec(name string) (TableSpec, bool) {
	for _, t := range Schema() {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// Schema returns the full star schema, dimensions first. The column names
// and types are a contract with the reporting layer.
func Schema() []TableSpec {
	return []TableSpec{
		{
			Name: "dim_time",
			Columns: []ColumnSpec{
				{Name: "time_key", Type: "bigint"},
				{Name: "full_date", Type: "date"},
				{Name: "year", Type: "integer"},
				{Name: "quarter", Type: "integer"},
				{Name: "month", Type: "integer"},
				{Name: "week_of_year", Type: "integer"},
				{Name: "day_of_month", Type: "integer"},
				{Name: "day_of_week", Type: "integer"},
				{Name: "day_of_year", Type: "integer"},
				{Name: "month_name", Type: "text"},
				{Name: "day_name", Type: "text"},
				{Name: "quarter_name", Type: "text"},
				{Name: "is_weekend", Type: "boolean"},
				{Name: "is_business_day", Type: "boolean"},
				{Name: "market_season", Type: "text"},
				{Name: "is_peak_season", Type: "boolean"},
				{Name: "selling_season", Type: "text"},
			},
			Merge: MergeSpec{Strategy: MergeUpsertDateKey, DateKey: "time_key"},
		},
		{
			Name:         "dim_geography",
			SurrogateKey: "geography_key",
			Columns: []ColumnSpec{
				{Name: "location_hash", Type: "text"},
				{Name: "country_name", Type: "text", Nullable: true},
				{Name: "state_name", Type: "text", Nullable: true},
				{Name: "city_name", Type: "text", Nullable: true},
				{Name: "postal_code", Type: "text", Nullable: true},
				{Name: "continent", Type: "text", Nullable: true},
				{Name: "region", Type: "text", Nullable: true},
				{Name: "market", Type: "text", Nullable: true},
				{Name: "shipping_zone", Type: "text", Nullable: true},
				{Name: "currency_code", Type: "text", Nullable: true},
				{Name: "timezone", Type: "text", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "location_hash"},
		},
		{
			Name:         "dim_product",
			SurrogateKey: "product_key",
			Columns: []ColumnSpec{
				{Name: "listing_id", Type: "text"},
				{Name: "title", Type: "text", Nullable: true},
				{Name: "description", Type: "text", Nullable: true},
				{Name: "price", Type: "numeric", Nullable: true},
				{Name: "currency_code", Type: "text", Nullable: true},
				{Name: "quantity", Type: "integer", Nullable: true},
				{Name: "sku", Type: "text", Nullable: true},
				{Name: "tags_list", Type: "text", Nullable: true},
				{Name: "materials_list", Type: "text", Nullable: true},
				{Name: "category", Type: "text", Nullable: true},
				{Name: "subcategory", Type: "text", Nullable: true},
				{Name: "product_type", Type: "text", Nullable: true},
				{Name: "effective_date", Type: "timestamptz", Nullable: true},
				{Name: "expiry_date", Type: "timestamptz", Nullable: true},
				{Name: "is_current", Type: "boolean", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "listing_id"},
		},
		{
			Name:         "dim_customer",
			SurrogateKey: "customer_key",
			Columns: []ColumnSpec{
				{Name: "buyer_user_name", Type: "text"},
				{Name: "full_name", Type: "text", Nullable: true},
				{Name: "first_name", Type: "text", Nullable: true},
				{Name: "last_name", Type: "text", Nullable: true},
				{Name: "country", Type: "text", Nullable: true},
				{Name: "state", Type: "text", Nullable: true},
				{Name: "city", Type: "text", Nullable: true},
				{Name: "zipcode", Type: "text", Nullable: true},
				{Name: "payment_method", Type: "text", Nullable: true},
				{Name: "ship_date", Type: "timestamptz", Nullable: true},
				{Name: "street_1", Type: "text", Nullable: true},
				{Name: "street_2", Type: "text", Nullable: true},
				{Name: "ship_name", Type: "text", Nullable: true},
				{Name: "effective_date", Type: "timestamptz", Nullable: true},
				{Name: "expiry_date", Type: "timestamptz", Nullable: true},
				{Name: "is_current", Type: "boolean", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "buyer_user_name"},
		},
		{
			Name:         "dim_payment",
			SurrogateKey: "payment_key",
			Columns: []ColumnSpec{
				{Name: "payment_method", Type: "text"},
				{Name: "payment_type", Type: "text", Nullable: true},
				{Name: "payment_provider", Type: "text", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "payment_method"},
		},
		{
			Name:         "dim_order",
			SurrogateKey: "order_key",
			Columns: []ColumnSpec{
				{Name: "order_id", Type: "text"},
				{Name: "order_type", Type: "text", Nullable: true},
				{Name: "payment_method", Type: "text", Nullable: true},
				{Name: "payment_type", Type: "text", Nullable: true},
				{Name: "number_of_items", Type: "integer", Nullable: true},
				{Name: "order_value", Type: "numeric", Nullable: true},
				{Name: "discount_amount", Type: "numeric", Nullable: true},
				{Name: "shipping_discount", Type: "numeric", Nullable: true},
				{Name: "shipping", Type: "numeric", Nullable: true},
				{Name: "sales_tax", Type: "numeric", Nullable: true},
				{Name: "order_total", Type: "numeric", Nullable: true},
				{Name: "card_processing_fees", Type: "numeric", Nullable: true},
				{Name: "order_net", Type: "numeric", Nullable: true},
				{Name: "adjusted_order_total", Type: "numeric", Nullable: true},
				{Name: "adjusted_card_processing_fees", Type: "numeric", Nullable: true},
				{Name: "adjusted_net_order_amount", Type: "numeric", Nullable: true},
				{Name: "coupon_code", Type: "text", Nullable: true},
				{Name: "coupon_details", Type: "text", Nullable: true},
				{Name: "has_discount", Type: "boolean", Nullable: true},
				{Name: "discount_type", Type: "text", Nullable: true},
				{Name: "shipping_method", Type: "text", Nullable: true},
				{Name: "shipping_country", Type: "text", Nullable: true},
				{Name: "shipping_state", Type: "text", Nullable: true},
				{Name: "shipping_city", Type: "text", Nullable: true},
				{Name: "is_international", Type: "boolean", Nullable: true},
				{Name: "is_gift", Type: "boolean", Nullable: true},
				{Name: "has_personalization", Type: "boolean", Nullable: true},
				{Name: "in_person_location", Type: "text", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "order_id"},
		},
		{
			Name:         "dim_bank_account",
			SurrogateKey: "bank_account_key",
			Columns: []ColumnSpec{
				{Name: "account_number", Type: "text"},
				{Name: "account_name", Type: "text", Nullable: true},
				{Name: "opening_date", Type: "timestamptz", Nullable: true},
				{Name: "cif_number", Type: "text", Nullable: true},
				{Name: "customer_address", Type: "text", Nullable: true},
				{Name: "is_active", Type: "boolean", Nullable: true},
				{Name: "currency_code", Type: "text", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "account_number"},
		},
		{
			Name:         "dim_product_catalog",
			SurrogateKey: "product_catalog_key",
			Columns: []ColumnSpec{
				{Name: "catalog_code", Type: "text"},
				{Name: "product_line_id", Type: "text", Nullable: true},
				{Name: "product_id", Type: "text", Nullable: true},
				{Name: "variant_id", Type: "text", Nullable: true},
				{Name: "product_line_name", Type: "text", Nullable: true},
				{Name: "product_name", Type: "text", Nullable: true},
				{Name: "variant_name", Type: "text", Nullable: true},
				{Name: "created_date", Type: "timestamptz", Nullable: true},
				{Name: "updated_date", Type: "timestamptz", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeUpsertBusinessKey, BusinessKey: "catalog_code"},
		},
		{
			Name:         "fact_sales",
			SurrogateKey: "sales_key",
			Columns: []ColumnSpec{
				{Name: "product_key", Type: "bigint", Nullable: true, References: "dim_product"},
				{Name: "customer_key", Type: "bigint", Nullable: true, References: "dim_customer"},
				{Name: "order_key", Type: "bigint", Nullable: true, References: "dim_order"},
				{Name: "geography_key", Type: "bigint", Nullable: true, References: "dim_geography"},
				{Name: "payment_key", Type: "bigint", Nullable: true, References: "dim_payment"},
				{Name: "sale_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "ship_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "paid_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "transaction_id", Type: "text", Nullable: true},
				{Name: "order_id", Type: "text", Nullable: true},
				{Name: "sku", Type: "text", Nullable: true},
				{Name: "quantity_sold", Type: "integer", Nullable: true},
				{Name: "item_price", Type: "numeric", Nullable: true},
				{Name: "item_total", Type: "numeric", Nullable: true},
				{Name: "discount_amount", Type: "numeric", Nullable: true},
				{Name: "shipping_amount", Type: "numeric", Nullable: true},
				{Name: "shipping_discount", Type: "numeric", Nullable: true},
				{Name: "order_sales_tax", Type: "numeric", Nullable: true},
				{Name: "variations", Type: "text", Nullable: true},
				{Name: "size", Type: "text", Nullable: true},
				{Name: "style", Type: "text", Nullable: true},
				{Name: "color", Type: "text", Nullable: true},
				{Name: "material", Type: "text", Nullable: true},
				{Name: "personalization", Type: "text", Nullable: true},
				{Name: "vat_paid_by_buyer", Type: "numeric", Nullable: true},
				{Name: "created_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "updated_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "data_source", Type: "text", Nullable: true},
				{Name: "batch_id", Type: "text", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeAppend},
		},
		{
			Name:         "fact_financial_transactions",
			SurrogateKey: "financial_transaction_key",
			Columns: []ColumnSpec{
				{Name: "transaction_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "customer_key", Type: "bigint", Nullable: true, References: "dim_customer"},
				{Name: "order_key", Type: "bigint", Nullable: true, References: "dim_order"},
				{Name: "product_key", Type: "bigint", Nullable: true, References: "dim_product"},
				{Name: "extracted_id", Type: "text", Nullable: true},
				{Name: "order_id", Type: "text", Nullable: true},
				{Name: "transaction_id", Type: "text", Nullable: true},
				{Name: "transaction_type", Type: "text", Nullable: true},
				{Name: "transaction_title", Type: "text", Nullable: true},
				{Name: "revenue_type", Type: "text", Nullable: true},
				{Name: "fee_type", Type: "text", Nullable: true},
				{Name: "id_type", Type: "text", Nullable: true},
				{Name: "info_description", Type: "text", Nullable: true},
				{Name: "amount", Type: "numeric", Nullable: true},
				{Name: "fees_and_taxes", Type: "numeric", Nullable: true},
				{Name: "net", Type: "numeric", Nullable: true},
				{Name: "tax_details", Type: "text", Nullable: true},
				{Name: "original_info", Type: "text", Nullable: true},
				{Name: "created_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "updated_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "data_source", Type: "text", Nullable: true},
				{Name: "batch_id", Type: "text", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeAppend},
		},
		{
			Name:         "fact_deposits",
			SurrogateKey: "deposit_key",
			Columns: []ColumnSpec{
				{Name: "deposit_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "deposit_amount", Type: "numeric", Nullable: true},
				{Name: "deposit_status", Type: "text", Nullable: true},
				{Name: "bank_account_ending_digits", Type: "text", Nullable: true},
				{Name: "created_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "updated_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "data_source", Type: "text", Nullable: true},
				{Name: "batch_id", Type: "text", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeAppend},
		},
		{
			Name:         "fact_payments",
			SurrogateKey: "payment_transaction_key",
			Columns: []ColumnSpec{
				{Name: "customer_key", Type: "bigint", Nullable: true, References: "dim_customer"},
				{Name: "order_key", Type: "bigint", Nullable: true, References: "dim_order"},
				{Name: "payment_method_key", Type: "bigint", Nullable: true, References: "dim_payment"},
				{Name: "payment_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "payment_id", Type: "text", Nullable: true},
				{Name: "buyer_username", Type: "text", Nullable: true},
				{Name: "buyer_name", Type: "text", Nullable: true},
				{Name: "order_id", Type: "text", Nullable: true},
				{Name: "gross_amount", Type: "numeric", Nullable: true},
				{Name: "fees", Type: "numeric", Nullable: true},
				{Name: "net_amount", Type: "numeric", Nullable: true},
				{Name: "posted_gross", Type: "numeric", Nullable: true},
				{Name: "posted_fees", Type: "numeric", Nullable: true},
				{Name: "posted_net", Type: "numeric", Nullable: true},
				{Name: "adjusted_gross", Type: "numeric", Nullable: true},
				{Name: "adjusted_fees", Type: "numeric", Nullable: true},
				{Name: "adjusted_net", Type: "numeric", Nullable: true},
				{Name: "currency", Type: "text", Nullable: true},
				{Name: "listing_amount", Type: "numeric", Nullable: true},
				{Name: "listing_currency", Type: "text", Nullable: true},
				{Name: "exchange_rate", Type: "numeric", Nullable: true},
				{Name: "vat_amount", Type: "numeric", Nullable: true},
				{Name: "gift_card_applied", Type: "text", Nullable: true},
				{Name: "status", Type: "text", Nullable: true},
				{Name: "funds_available", Type: "timestamptz", Nullable: true},
				{Name: "order_date", Type: "timestamptz", Nullable: true},
				{Name: "buyer", Type: "text", Nullable: true},
				{Name: "order_type", Type: "text", Nullable: true},
				{Name: "payment_type", Type: "text", Nullable: true},
				{Name: "refund_amount", Type: "numeric", Nullable: true},
				{Name: "created_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "updated_timestamp", Type: "timestamptz", Nullable: true},
				{Name: "data_source", Type: "text", Nullable: true},
				{Name: "batch_id", Type: "text", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeAppend},
		},
		{
			Name:         "fact_bank_transactions",
			SurrogateKey: "bank_transaction_key",
			Columns: []ColumnSpec{
				{Name: "bank_account_key", Type: "bigint", Nullable: true, References: "dim_bank_account"},
				{Name: "transaction_date_key", Type: "bigint", Nullable: true, References: "dim_time"},
				{Name: "product_catalog_key", Type: "bigint", Nullable: true, References: "dim_product_catalog"},
				{Name: "reference_number", Type: "text", Nullable: true},
				{Name: "account_number", Type: "text", Nullable: true},
				{Name: "transaction_description", Type: "text", Nullable: true},
				{Name: "pl_account_number", Type: "text", Nullable: true},
				{Name: "parsed_product_line_id", Type: "text", Nullable: true},
				{Name: "parsed_product_id", Type: "text", Nullable: true},
				{Name: "parsed_variant_id", Type: "text", Nullable: true},
				{Name: "credit_amount", Type: "numeric", Nullable: true},
				{Name: "debit_amount", Type: "numeric", Nullable: true},
				{Name: "balance_after_transaction", Type: "numeric", Nullable: true},
				{Name: "is_business_related", Type: "boolean", Nullable: true},
				{Name: "data_source", Type: "text", Nullable: true},
				{Name: "batch_id", Type: "text", Nullable: true},
			},
			Merge: MergeSpec{Strategy: MergeAppend},
		},
	}
}
