package builder

import "marketdw/internal/table"

// BuildFinancialTransactionsFact emits one row per statement line. The
// statement only references other entities through the id extracted from its
// info text, so the order id routes through checkout to find the buyer and
// through the order items to find a representative listing.
func (b *Builder) BuildFinancialTransactionsFact(statement, checkout, orderItems *table.Table) *table.Table {
	out := emptyTable("fact_financial_transactions")
	if statement == nil || statement.Empty() {
		b.log.Warn().Msg("fact_financial_transactions: no statement data, returning empty fact")
		return out
	}

	orderToBuyer := map[string]string{}
	if checkout != nil {
		for i := range checkout.Rows {
			oid := Key(checkout.Get(i, "order_id"))
			if oid == "" {
				continue
			}
			if _, dup := orderToBuyer[oid]; !dup {
				orderToBuyer[oid] = str(checkout.Get(i, "buyer_username"))
			}
		}
	}

	// First listing per order is the representative product.
	orderToListing := map[string]any{}
	if orderItems != nil {
		for i := range orderItems.Rows {
			oid := Key(orderItems.Get(i, "order_id"))
			lid := orderItems.Get(i, "listing_id")
			if oid == "" || lid == nil {
				continue
			}
			if _, dup := orderToListing[oid]; !dup {
				orderToListing[oid] = lid
			}
		}
	}

	var key seq
	var customerHits, orderHits, productHits int
	for i := range statement.Rows {
		extracted := str(statement.Get(i, "extracted_id"))
		idType := str(statement.Get(i, "id_type"))

		var orderID, transactionID any
		if extracted != "" {
			switch idType {
			case "order_id":
				orderID = extracted
			case "transaction_id":
				transactionID = extracted
			}
		}

		var customerKey, orderKey, productKey any
		if oid := Key(orderID); oid != "" {
			if buyer := orderToBuyer[oid]; buyer != "" {
				customerKey = keyOf(b.keys.Customers, buyer)
			}
			orderKey = keyOf(b.keys.Orders, oid)
			if lid, ok := orderToListing[oid]; ok {
				productKey = keyOf(b.keys.Products, lid)
			}
		}
		if customerKey != nil {
			customerHits++
		}
		if orderKey != nil {
			orderHits++
		}
		if productKey != nil {
			productHits++
		}

		revenue := str(statement.Get(i, "revenue_type"))
		if revenue == "" {
			revenue = "Unknown"
		}

		appendRow(out, map[string]any{
			"financial_transaction_key": key.next(),
			"transaction_date_key":      dateKey(statement.Get(i, "date")),
			"customer_key":              customerKey,
			"order_key":                 orderKey,
			"product_key":               productKey,
			"extracted_id":              strOrNil(extracted),
			"order_id":                  orderID,
			"transaction_id":            transactionID,
			"transaction_type":          strOrNil(statement.Get(i, "type")),
			"transaction_title":         strOrNil(statement.Get(i, "title")),
			"revenue_type":              revenue,
			"fee_type":                  strOrNil(statement.Get(i, "fee_type")),
			"id_type":                   strOrNil(idType),
			"info_description":          strOrNil(statement.Get(i, "info_description")),
			"amount":                    numOrNil(statement.Get(i, "amount")),
			"fees_and_taxes":            numOrNil(statement.Get(i, "fees_taxes")),
			"net":                       numOrNil(statement.Get(i, "net")),
			"tax_details":               strOrNil(statement.Get(i, "tax_details")),
			"original_info":             strOrNil(statement.Get(i, "info")),
			"created_timestamp":         b.now,
			"updated_timestamp":         b.now,
			"data_source":               "statement",
			"batch_id":                  b.batch,
		})
	}

	b.log.Info().
		Int("rows", out.Len()).
		Int("customer_matches", customerHits).
		Int("order_matches", orderHits).
		Int("product_matches", productHits).
		Msg("built fact_financial_transactions")
	return out
}
