package builder

import "marketdw/internal/table"

// BuildProductCatalogDimension loads the cost-accounting product catalog. The
// business key is the composite catalog code "{line}_{product}_{variant}",
// the same shape the memo parser extracts from bank transaction
// descriptions.
func (b *Builder) BuildProductCatalogDimension(catalog *table.Table) *table.Table {
	out := emptyTable("dim_product_catalog")
	if catalog == nil || catalog.Empty() {
		b.log.Warn().Msg("dim_product_catalog: no catalog data, returning empty dimension")
		return out
	}

	for i := range catalog.Rows {
		lineID := str(catalog.Get(i, "product_line_id"))
		productID := str(catalog.Get(i, "product_id"))
		variantID := str(catalog.Get(i, "variant_id"))
		code := lineID + "_" + productID + "_" + variantID

		key := b.keys.catalogSeq.next()
		if _, exists := b.keys.ProductCatalog[code]; !exists {
			b.keys.ProductCatalog[code] = key
		}

		appendRow(out, map[string]any{
			"product_catalog_key": key,
			"catalog_code":        code,
			"product_line_id":     strOrNil(lineID),
			"product_id":          strOrNil(productID),
			"variant_id":          strOrNil(variantID),
			"product_line_name":   cleanText(catalog.Get(i, "product_line")),
			"product_name":        cleanText(catalog.Get(i, "product")),
			"variant_name":        cleanText(catalog.Get(i, "variants")),
			"created_date":        b.now,
			"updated_date":        b.now,
		})
	}

	b.log.Info().Int("rows", out.Len()).Msg("built dim_product_catalog")
	return out
}
