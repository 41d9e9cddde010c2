package textutil

import "strings"

// NormalizeStringMap returns a copy of values with keys and values trimmed
// of surrounding whitespace. Entries whose trimmed key is empty are dropped;
// a map with nothing left comes back nil so callers can treat it as absent.
func NormalizeStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(value)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}
