package repository

import "github.com/goccy/go-json"

// mustJSON encodes v for jsonb columns updated through map updates,
// where gorm's field serializers are not applied
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
