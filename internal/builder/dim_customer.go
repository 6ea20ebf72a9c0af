package builder

import "marketdw/internal/table"

// BuildCustomerDimension joins sold orders with the checkout payments (the
// only source carrying the buyer username) and collapses to one row per
// buyer. Aggregation is first-value-wins: this is a dimensional snapshot, not
// a rollup. Order rows whose buyer cannot be recovered are dropped.
func (b *Builder) BuildCustomerDimension(orders, checkout *table.Table) *table.Table {
	out := emptyTable("dim_customer")
	if orders == nil || orders.Empty() {
		b.log.Warn().Msg("dim_customer: no orders data, returning empty dimension")
		return out
	}

	type checkoutRef struct {
		buyer    string
		shipName any
	}
	byOrder := map[string]checkoutRef{}
	var checkoutOrder []string
	if checkout != nil {
		for i := range checkout.Rows {
			oid := Key(checkout.Get(i, "order_id"))
			if oid == "" {
				continue
			}
			if _, dup := byOrder[oid]; dup {
				continue
			}
			byOrder[oid] = checkoutRef{
				buyer:    str(checkout.Get(i, "buyer_username")),
				shipName: checkout.Get(i, "buyer"),
			}
			checkoutOrder = append(checkoutOrder, oid)
		}
	}

	type customer struct{ cells map[string]any }
	customers := map[string]*customer{}
	var buyerOrder []string

	first := func(buyer string) (*customer, bool) {
		c, ok := customers[buyer]
		if !ok {
			c = &customer{cells: map[string]any{"buyer_user_name": buyer}}
			customers[buyer] = c
			buyerOrder = append(buyerOrder, buyer)
		}
		return c, !ok
	}

	matchedOrders := map[string]bool{}
	for i := range orders.Rows {
		oid := Key(orders.Get(i, "order_id"))
		ref, ok := byOrder[oid]
		if !ok || ref.buyer == "" {
			continue
		}
		matchedOrders[oid] = true
		c, isNew := first(ref.buyer)
		if !isNew {
			continue
		}
		c.cells["full_name"] = cleanText(orders.Get(i, "full_name"))
		c.cells["first_name"] = cleanText(orders.Get(i, "first_name"))
		c.cells["last_name"] = cleanText(orders.Get(i, "last_name"))
		c.cells["country"] = strOrNil(orders.Get(i, "ship_country"))
		c.cells["state"] = strOrNil(orders.Get(i, "ship_state"))
		c.cells["city"] = strOrNil(orders.Get(i, "ship_city"))
		c.cells["zipcode"] = strOrNil(orders.Get(i, "ship_zipcode"))
		c.cells["payment_method"] = strOrNil(orders.Get(i, "payment_method"))
		if d, ok := parseDate(orders.Get(i, "date_shipped")); ok {
			c.cells["ship_date"] = d
		}
		c.cells["street_1"] = strOrNil(orders.Get(i, "street_1"))
		c.cells["street_2"] = strOrNil(orders.Get(i, "street_2"))
		c.cells["ship_name"] = strOrNil(ref.shipName)
	}

	// Checkout rows with no matching order still name a buyer.
	for _, oid := range checkoutOrder {
		if matchedOrders[oid] {
			continue
		}
		ref := byOrder[oid]
		if ref.buyer == "" {
			continue
		}
		if c, isNew := first(ref.buyer); isNew {
			c.cells["ship_name"] = strOrNil(ref.shipName)
		}
	}

	for _, buyer := range buyerOrder {
		c := customers[buyer]
		key := b.keys.customerSeq.next()
		if _, exists := b.keys.Customers[buyer]; !exists {
			b.keys.Customers[buyer] = key
		}
		c.cells["customer_key"] = key
		c.cells["effective_date"] = b.now
		c.cells["expiry_date"] = expiryNever
		c.cells["is_current"] = true
		c.cells["created_date"] = b.now
		c.cells["updated_date"] = b.now
		appendRow(out, c.cells)
	}

	b.log.Info().Int("rows", out.Len()).Msg("built dim_customer")
	return out
}
