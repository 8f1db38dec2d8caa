package queryparse

import "strings"

// separators in precedence order: when both appear, " in " wins.
var separators = []string{" in ", " near "}

// Parse splits a natural-language search string ("coffee shops in Miami")
// into a business-type term and a location term. Matching is
// case-insensitive and splits on the first occurrence of the separator.
// Without a separator the whole input is the business type and the location
// is empty. Parse never fails.
func Parse(query string) (businessType, location string) {
	lower := strings.ToLower(query)
	for _, sep := range separators {
		if idx := strings.Index(lower, sep); idx >= 0 {
			return strings.TrimSpace(query[:idx]), strings.TrimSpace(query[idx+len(sep):])
		}
	}
	return strings.TrimSpace(query), ""
}
