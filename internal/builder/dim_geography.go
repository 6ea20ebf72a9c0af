package builder

import "marketdw/internal/table"

// BuildGeographyDimension extracts the unique shipping locations from the
// sold orders. The business key is the content fingerprint of
// country|state|city; zip code is carried as an attribute but does not feed
// the key.
func (b *Builder) BuildGeographyDimension(orders *table.Table) *table.Table {
	out := emptyTable("dim_geography")
	if orders == nil || !orders.HasColumn("ship_country") {
		b.log.Warn().Msg("dim_geography: no orders with ship_country, returning empty dimension")
		return out
	}

	seen := map[string]bool{}
	for i := range orders.Rows {
		country := str(orders.Get(i, "ship_country"))
		if country == "" {
			continue
		}
		state := str(orders.Get(i, "ship_state"))
		city := str(orders.Get(i, "ship_city"))
		zip := str(orders.Get(i, "ship_zipcode"))

		dupeKey := country + "\x00" + state + "\x00" + city + "\x00" + zip
		if seen[dupeKey] {
			continue
		}
		seen[dupeKey] = true

		hash := LocationFingerprint(country, state, city)
		key := b.keys.geographySeq.next()
		if _, exists := b.keys.Geographies[hash]; !exists {
			b.keys.Geographies[hash] = key
		}

		appendRow(out, map[string]any{
			"geography_key": key,
			"location_hash": hash,
			"country_name":  country,
			"state_name":    strOrNil(state),
			"city_name":     strOrNil(city),
			"postal_code":   strOrNil(zip),
			"continent":     continentOf(country),
			"region":        regionOf(country),
			"market":        marketOf(country),
			"shipping_zone": shippingZoneOf(country),
			"currency_code": currencyOf(country),
			"timezone":      timezoneOf(country),
			"created_date":  b.now,
			"updated_date":  b.now,
		})
	}
	b.log.Info().Int("rows", out.Len()).Msg("built dim_geography")
	return out
}
