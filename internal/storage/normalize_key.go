package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeKey converts a business-key value to a canonical string form,
// suitable for in-memory lookup maps (e.g. "Germany" or "8429529").
//
// Backends must not assume a particular underlying type for keys; this helper
// keeps lookup maps consistent between builder output and database scans.
// Integral floats normalize without a fraction part so a listing id exported
// as "8429529.0" matches its database TEXT value "8429529".
func NormalizeKey(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
