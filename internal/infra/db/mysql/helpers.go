package mysql

import "encoding/json"

// jsonOrEmptyList marshals a slice column; nil becomes "[]" so the stored
// row round-trips to an empty list, not null.
func jsonOrEmptyList(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
