package builder

import (
	"strings"

	"marketdw/internal/table"
)

// BuildPaymentDimension collects the distinct payment methods seen across
// sold orders and checkout payments. With no source data at all it still
// emits a single "Unknown" row so fact rows have something to resolve
// against.
func (b *Builder) BuildPaymentDimension(orders, checkout *table.Table) *table.Table {
	out := emptyTable("dim_payment")

	var methods []string
	seen := map[string]bool{}
	collect := func(t *table.Table, column string) {
		if t == nil {
			return
		}
		for i := range t.Rows {
			m := str(t.Get(i, column))
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			methods = append(methods, m)
		}
	}
	collect(orders, "payment_method")
	collect(checkout, "payment_type")

	if len(methods) == 0 {
		b.log.Warn().Msg("dim_payment: no payment methods found, emitting Unknown")
		methods = []string{"Unknown"}
	}

	for _, m := range methods {
		key := b.keys.paymentSeq.next()
		if _, exists := b.keys.Payments[m]; !exists {
			b.keys.Payments[m] = key
		}
		appendRow(out, map[string]any{
			"payment_key":      key,
			"payment_method":   m,
			"payment_type":     paymentTypeOf(m),
			"payment_provider": paymentProviderOf(m),
			"created_date":     b.now,
			"updated_date":     b.now,
		})
	}

	b.log.Info().Int("rows", out.Len()).Msg("built dim_payment")
	return out
}

func paymentTypeOf(method string) string {
	s := strings.ToLower(method)
	switch {
	case strings.Contains(s, "online"):
		return "Online"
	case strings.Contains(s, "inperson"), strings.Contains(s, "in-person"):
		return "In-person"
	default:
		return "Online"
	}
}

func paymentProviderOf(method string) string {
	s := strings.ToLower(method)
	switch {
	case strings.Contains(s, "credit"):
		return "Marketplace Payments"
	case strings.Contains(s, "paypal"):
		return "PayPal"
	default:
		return "Other"
	}
}
