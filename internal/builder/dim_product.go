package builder

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"

	"marketdw/internal/table"
)

// BuildProductDimension reconciles the listing export with the order-item
// lines. The two sources share no id, only the product title, so rows are
// outer-joined on the normalized title; listing values win when both sides
// carry one. Only rows with a listing id enter the key lookup.
func (b *Builder) BuildProductDimension(listing, orderItems *table.Table) *table.Table {
	out := emptyTable("dim_product")

	hasListing := listing != nil && !listing.Empty()
	hasItems := orderItems != nil && !orderItems.Empty()
	if !hasListing && !hasItems {
		b.log.Warn().Msg("dim_product: no listing or order item data, returning empty dimension")
		return out
	}

	type item struct {
		listingID any
		name      string
		price     any
		quantity  any
		sku       any
		matched   bool
	}

	// Dedupe order items by listing id, first row wins.
	var items []*item
	byTitle := map[string]*item{}
	if hasItems {
		seen := map[string]bool{}
		for i := range orderItems.Rows {
			id := Key(orderItems.Get(i, "listing_id"))
			if id != "" {
				if seen[id] {
					continue
				}
				seen[id] = true
			}
			it := &item{
				listingID: orderItems.Get(i, "listing_id"),
				name:      str(orderItems.Get(i, "item_name")),
				price:     orderItems.Get(i, "price"),
				quantity:  orderItems.Get(i, "quantity"),
				sku:       orderItems.Get(i, "sku"),
			}
			items = append(items, it)
			if k := joinTitle(it.name); k != "" {
				if _, dup := byTitle[k]; !dup {
					byTitle[k] = it
				}
			}
		}
	}

	add := func(listingID any, title, description any, price, qty, sku any, tags, materials any, currency any) {
		key := b.keys.productSeq.next()
		if id := Key(listingID); id != "" {
			if _, exists := b.keys.Products[id]; !exists {
				b.keys.Products[id] = key
			}
		}
		cur := str(currency)
		if cur == "" {
			cur = "USD"
		}
		appendRow(out, map[string]any{
			"product_key":    key,
			"listing_id":     strOrNil(listingID),
			"title":          cleanText(title),
			"description":    cleanText(description),
			"price":          numOrNil(price),
			"currency_code":  cur,
			"quantity":       numOrNil(qty),
			"sku":            strOrNil(sku),
			"tags_list":      jsonList(tags),
			"materials_list": jsonList(materials),
			"effective_date": b.now,
			"expiry_date":    expiryNever,
			"is_current":     true,
			"created_date":   b.now,
			"updated_date":   b.now,
		})
	}

	if hasListing {
		for i := range listing.Rows {
			title := listing.Get(i, "title")
			price := listing.Get(i, "price")
			qty := listing.Get(i, "quantity")
			sku := listing.Get(i, "sku")
			var listingID any

			if it, ok := byTitle[joinTitle(str(title))]; ok {
				it.matched = true
				listingID = it.listingID
				if price == nil {
					price = it.price
				}
				if qty == nil {
					qty = it.quantity
				}
				if sku == nil {
					sku = it.sku
				}
			}
			add(listingID, title, listing.Get(i, "description"), price, qty, sku,
				listing.Get(i, "tags"), listing.Get(i, "materials"), listing.Get(i, "currency_code"))
		}
	}
	for _, it := range items {
		if it.matched && hasListing {
			continue
		}
		add(it.listingID, it.name, nil, it.price, it.quantity, it.sku, nil, nil, nil)
	}

	b.log.Info().Int("rows", out.Len()).Int("known_listing_ids", len(b.keys.Products)).Msg("built dim_product")
	return out
}

// joinTitle is the join key between listing titles and order-item names.
func joinTitle(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// jsonList renders a comma-separated source field (or a JSON array string) as
// a JSON array of trimmed strings. Empty input is the empty array.
func jsonList(v any) string {
	s := str(v)
	if s == "" {
		return "[]"
	}
	var parts []string
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var parsed []any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			for _, p := range parsed {
				if t := str(p); t != "" {
					parts = append(parts, t)
				}
			}
		}
	}
	if parts == nil {
		for _, p := range strings.Split(s, ",") {
			if t := strings.TrimSpace(p); t != "" {
				parts = append(parts, t)
			}
		}
	}
	if parts == nil {
		return "[]"
	}
	enc, err := json.Marshal(parts)
	if err != nil {
		return "[]"
	}
	return string(enc)
}
