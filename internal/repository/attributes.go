package repository

import "catalog-service/internal/database"

// Missing or mistyped attributes decode to the zero value.

func stringAttr(item database.Item, name string) string {
	s, _ := item[name].(string)
	return s
}

func floatAttr(item database.Item, name string) float64 {
	switch v := item[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func boolAttr(item database.Item, name string) bool {
	b, _ := item[name].(bool)
	return b
}
