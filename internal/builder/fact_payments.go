package builder

import (
	"strings"

	"marketdw/internal/table"
)

// BuildPaymentsFact emits one row per checkout payment. Currency codes are
// uppercased; funds_available and order_date stay full timestamps while the
// payment date key collapses to YYYYMMDD.
func (b *Builder) BuildPaymentsFact(checkout *table.Table) *table.Table {
	out := emptyTable("fact_payments")
	if checkout == nil || checkout.Empty() {
		b.log.Warn().Msg("fact_payments: no checkout data, returning empty fact")
		return out
	}

	upper := func(v any) any {
		if s := str(v); s != "" {
			return strings.ToUpper(s)
		}
		return nil
	}
	asTime := func(v any) any {
		if d, ok := parseDate(v); ok {
			return d
		}
		return nil
	}

	var key seq
	var orderHits, customerHits int
	for i := range checkout.Rows {
		buyer := str(checkout.Get(i, "buyer_username"))

		orderKey := keyOf(b.keys.Orders, checkout.Get(i, "order_id"))
		customerKey := keyOf(b.keys.Customers, buyer)
		paymentMethodKey := keyOf(b.keys.Payments, checkout.Get(i, "payment_type"))
		if orderKey != nil {
			orderHits++
		}
		if customerKey != nil {
			customerHits++
		}

		appendRow(out, map[string]any{
			"payment_transaction_key": key.next(),
			"customer_key":            customerKey,
			"order_key":               orderKey,
			"payment_date_key":        dateKey(checkout.Get(i, "order_date")),
			"payment_method_key":      paymentMethodKey,
			"payment_id":              strOrNil(checkout.Get(i, "payment_id")),
			"buyer_username":          strOrNil(buyer),
			"buyer_name":              strOrNil(checkout.Get(i, "buyer_name")),
			"order_id":                strOrNil(checkout.Get(i, "order_id")),
			"gross_amount":            numOrNil(checkout.Get(i, "gross_amount")),
			"fees":                    numOrNil(checkout.Get(i, "fees")),
			"net_amount":              numOrNil(checkout.Get(i, "net_amount")),
			"posted_gross":            numOrNil(checkout.Get(i, "posted_gross")),
			"posted_fees":             numOrNil(checkout.Get(i, "posted_fees")),
			"posted_net":              numOrNil(checkout.Get(i, "posted_net")),
			"adjusted_gross":          numOrNil(checkout.Get(i, "adjusted_gross")),
			"adjusted_fees":           numOrNil(checkout.Get(i, "adjusted_fees")),
			"adjusted_net":            numOrNil(checkout.Get(i, "adjusted_net")),
			"currency":                upper(checkout.Get(i, "currency")),
			"listing_amount":          numOrNil(checkout.Get(i, "listing_amount")),
			"listing_currency":        upper(checkout.Get(i, "listing_currency")),
			"exchange_rate":           numOrNil(checkout.Get(i, "exchange_rate")),
			"vat_amount":              numOrNil(checkout.Get(i, "vat_amount")),
			"gift_card_applied":       strOrNil(checkout.Get(i, "gift_card_applied")),
			"status":                  strOrNil(checkout.Get(i, "status")),
			"funds_available":         asTime(checkout.Get(i, "funds_available")),
			"order_date":              asTime(checkout.Get(i, "order_date")),
			"buyer":                   strOrNil(checkout.Get(i, "buyer")),
			"order_type":              strOrNil(checkout.Get(i, "order_type")),
			"payment_type":            strOrNil(checkout.Get(i, "payment_type")),
			"refund_amount":           numOrNil(checkout.Get(i, "refund_amount")),
			"created_timestamp":       b.now,
			"updated_timestamp":       b.now,
			"data_source":             "direct_checkout",
			"batch_id":                b.batch,
		})
	}

	b.log.Info().
		Int("rows", out.Len()).
		Int("order_matches", orderHits).
		Int("customer_matches", customerHits).
		Msg("built fact_payments")
	return out
}
