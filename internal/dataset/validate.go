package dataset

import (
	"fmt"
	"strings"

	"marketdw/internal/table"
)

// rule describes the header shape a dataset must have before the build runs.
// required columns must all be present; anyOf needs at least one match;
// substring, when set, requires some column containing it.
type rule struct {
	required  []string
	anyOf     []string
	substring string
}

var rules = map[string]rule{
	"statement":        {required: []string{"date", "type", "currency"}, anyOf: []string{"amount", "fees_taxes", "net"}},
	"direct_checkout":  {required: []string{"order_date", "currency"}, anyOf: []string{"gross_amount", "net_amount", "posted_gross", "posted_net"}},
	"listing":          {required: []string{"title"}},
	"sold_order_items": {required: []string{"order_id", "listing_id", "sale_date"}, anyOf: []string{"price", "item_total"}},
	"sold_orders":      {required: []string{"order_id", "sale_date"}, anyOf: []string{"order_value", "order_total"}},
	"deposits":         {required: []string{"date", "amount", "currency"}},
	"bank_transactions": {substring: "description"},
	"product_catalog": {required: []string{
		"product_line_id", "product_line", "product_id", "product", "variant_id", "variants",
	}},
}

// Validate checks each loaded dataset against its header rule. Datasets with
// no rule pass. Returns one message per violation; empty means valid.
func Validate(b Bundle) []string {
	var problems []string
	for name, t := range b {
		r, ok := rules[name]
		if !ok {
			continue
		}
		problems = append(problems, validateTable(name, t, r)...)
	}
	return problems
}

func validateTable(name string, t *table.Table, r rule) []string {
	var problems []string
	for _, c := range r.required {
		if !t.HasColumn(c) {
			problems = append(problems, fmt.Sprintf("%s: missing required column %q", name, c))
		}
	}
	if len(r.anyOf) > 0 {
		found := false
		for _, c := range r.anyOf {
			if t.HasColumn(c) {
				found = true
				break
			}
		}
		if !found {
			problems = append(problems, fmt.Sprintf("%s: needs at least one of %s", name, strings.Join(r.anyOf, ", ")))
		}
	}
	if r.substring != "" {
		found := false
		for _, c := range t.Columns {
			if strings.Contains(strings.ToLower(c), r.substring) {
				found = true
				break
			}
		}
		if !found {
			problems = append(problems, fmt.Sprintf("%s: no column containing %q", name, r.substring))
		}
	}
	return problems
}
