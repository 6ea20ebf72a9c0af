package builder

import (
	"strings"

	"marketdw/internal/table"
)

// BuildOrderDimension emits one row per order id seen in the sold orders or
// the checkout payments. Checkout only contributes ids the orders file
// missed; all attributes come from the order row when present.
func (b *Builder) BuildOrderDimension(orders, checkout *table.Table) *table.Table {
	out := emptyTable("dim_order")

	hasOrders := orders != nil && !orders.Empty() && orders.HasColumn("order_id")
	if !hasOrders && (checkout == nil || !checkout.HasColumn("order_id")) {
		b.log.Warn().Msg("dim_order: no source carries an order id, returning empty dimension")
		return out
	}

	add := func(orderID string, row map[string]any) {
		key := b.keys.orderSeq.next()
		if _, exists := b.keys.Orders[orderID]; !exists {
			b.keys.Orders[orderID] = key
		}
		row["order_key"] = key
		row["order_id"] = orderID
		row["created_date"] = b.now
		row["updated_date"] = b.now
		appendRow(out, row)
	}

	seen := map[string]bool{}
	if hasOrders {
		for i := range orders.Rows {
			oid := Key(orders.Get(i, "order_id"))
			if oid == "" || seen[oid] {
				continue
			}
			seen[oid] = true

			coupon := str(orders.Get(i, "coupon_code"))
			discount, hasDiscountAmt := num(orders.Get(i, "discount_amount"))
			country := str(orders.Get(i, "ship_country"))

			var isInternational any
			if country != "" {
				isInternational = country != "United States"
			}
			var discountType any
			switch {
			case coupon != "" && strings.Contains(coupon, "%"):
				discountType = "Percentage"
			case coupon != "":
				discountType = "Fixed"
			}

			add(oid, map[string]any{
				"order_type":                    strOrNil(orders.Get(i, "order_type")),
				"payment_method":                strOrNil(orders.Get(i, "payment_method")),
				"payment_type":                  strOrNil(orders.Get(i, "payment_type")),
				"number_of_items":               numOrNil(orders.Get(i, "number_of_items")),
				"order_value":                   numOrNil(orders.Get(i, "order_value")),
				"discount_amount":               numOrNil(orders.Get(i, "discount_amount")),
				"shipping_discount":             numOrNil(orders.Get(i, "shipping_discount")),
				"shipping":                      numOrNil(orders.Get(i, "shipping")),
				"sales_tax":                     numOrNil(orders.Get(i, "sales_tax")),
				"order_total":                   numOrNil(orders.Get(i, "order_total")),
				"card_processing_fees":          numOrNil(orders.Get(i, "card_processing_fees")),
				"order_net":                     numOrNil(orders.Get(i, "order_net")),
				"adjusted_order_total":          numOrNil(orders.Get(i, "adjusted_order_total")),
				"adjusted_card_processing_fees": numOrNil(orders.Get(i, "adjusted_card_processing_fees")),
				"adjusted_net_order_amount":     numOrNil(orders.Get(i, "adjusted_net_order_amount")),
				"coupon_code":                   strOrNil(coupon),
				"coupon_details":                strOrNil(orders.Get(i, "coupon_details")),
				"has_discount":                  hasDiscountAmt && discount > 0,
				"discount_type":                 discountType,
				"shipping_country":              strOrNil(country),
				"shipping_state":                strOrNil(orders.Get(i, "ship_state")),
				"shipping_city":                 strOrNil(orders.Get(i, "ship_city")),
				"is_international":              isInternational,
				"is_gift":                       false,
				"has_personalization":           false,
				"in_person_location":            strOrNil(orders.Get(i, "inperson_location")),
			})
		}
	}

	if checkout != nil && checkout.HasColumn("order_id") {
		for i := range checkout.Rows {
			oid := Key(checkout.Get(i, "order_id"))
			if oid == "" || seen[oid] {
				continue
			}
			seen[oid] = true
			add(oid, map[string]any{
				"has_discount":        false,
				"is_gift":             false,
				"has_personalization": false,
			})
		}
	}

	b.log.Info().Int("rows", out.Len()).Msg("built dim_order")
	return out
}
