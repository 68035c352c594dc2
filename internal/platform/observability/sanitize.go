package observability

import "unicode"

// sanitizeString strips control characters and caps length so attacker
// supplied values cannot inject log lines.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		switch r {
		case '\n', '\r', '\t':
			cleaned = append(cleaned, r)
		default:
			if !unicode.IsControl(r) {
				cleaned = append(cleaned, r)
			}
		}
		if len(cleaned) == limit {
			break
		}
	}
	return string(cleaned)
}

// SanitizeRoute cleans a route pattern for logging.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod cleans an HTTP method for logging.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}
