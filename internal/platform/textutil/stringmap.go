package textutil

import "strings"

// NormalizeStringMap prepares form-submitted fields for storage: keys and
// values are trimmed, Windows line endings are collapsed to \n, and entries
// with empty keys are dropped. A map that normalizes to nothing comes back nil.
func NormalizeStringMap(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.ReplaceAll(value, "\r\n", "\n")
		result[key] = strings.TrimSpace(value)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
