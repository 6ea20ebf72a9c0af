// Package builder constructs the dimension and fact tables of the star
// schema from cleaned period datasets. Builders never fail on missing input:
// they return schema-correct empty tables and log what was skipped.
package builder

import "marketdw/internal/storage"

type seq int64

func (s *seq) next() int64 {
	*s++
	return int64(*s)
}

// KeySpace holds the run-local surrogate key state: one monotonic counter and
// one business-key lookup map per entity. Dimension builders populate the
// maps right after assigning keys; fact builders resolve foreign keys against
// them. One KeySpace per orchestrator instance, never shared across runs.
type KeySpace struct {
	Products       map[string]int64 // listing id -> product_key
	Customers      map[string]int64 // buyer username -> customer_key
	Orders         map[string]int64 // order id -> order_key
	Geographies    map[string]int64 // location fingerprint -> geography_key
	Payments       map[string]int64 // payment method -> payment_key
	BankAccounts   map[string]int64 // account number -> bank_account_key
	ProductCatalog map[string]int64 // "{line}_{product}_{variant}" -> product_catalog_key

	productSeq     seq
	customerSeq    seq
	orderSeq       seq
	geographySeq   seq
	paymentSeq     seq
	bankAccountSeq seq
	catalogSeq     seq
}

func NewKeySpace() *KeySpace {
	return &KeySpace{
		Products:       map[string]int64{},
		Customers:      map[string]int64{},
		Orders:         map[string]int64{},
		Geographies:    map[string]int64{},
		Payments:       map[string]int64{},
		BankAccounts:   map[string]int64{},
		ProductCatalog: map[string]int64{},
	}
}

// Key canonicalizes a business-key value to its map form. Shared with the
// merge layer so run-local and database lookups agree on e.g. "8429529.0"
// versus "8429529".
func Key(v any) string {
	return storage.NormalizeKey(v)
}
