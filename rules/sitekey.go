package rules

import (
	"strings"

	"golang.org/x/exp/slices"
)

// parseSitekeys parses a $sitekey modifier value into an uppercase list.
func parseSitekeys(value string) []string {
	parts := strings.Split(value, "|")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			keys = append(keys, p)
		}
	}

	return keys
}

// hasSitekey reports whether key (already uppercase) is among keys.  keys is
// typically one or two entries, so a linear scan beats sorting it to binary
// search.
func hasSitekey(keys []string, key string) bool {
	return slices.Contains(keys, key)
}
