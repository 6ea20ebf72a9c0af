// Package all registers every compiled-in warehouse backend. Blank-import it
// from the binary that calls storage.Open.
package all

import (
	_ "marketdw/internal/storage/postgres"
	_ "marketdw/internal/storage/sqlite"
)
