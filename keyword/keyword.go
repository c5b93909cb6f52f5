// Package keyword implements the rarity-based keyword selection a Matcher
// uses to partition its filter set: each filter is indexed under one
// lowercased token drawn from its pattern, chosen to be as discriminating as
// possible, so that a query only has to consult the filters keyed on tokens
// actually present in the URL being matched.
package keyword

import "strings"

// badKeywords are tokens too common in URLs to usefully partition the
// filter set; a filter is never indexed under one of these.
var badKeywords = map[string]bool{
	"http":  true,
	"https": true,
	"com":   true,
	"js":    true,
}

// isTokenRune reports whether c can be part of a keyword candidate.
func isTokenRune(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '%'
}

// isBoundaryRune reports whether c can delimit a keyword candidate: not a
// token character, and not the wildcard "*" (a token touching a wildcard on
// either side is not extracted — it is not anchored to literal text).
func isBoundaryRune(c byte) bool {
	return !isTokenRune(c) && c != '*'
}

// candidates scans the lowercased pattern for maximal runs of
// [a-z0-9%]{2,} that are bounded on both sides by a character outside
// [a-z0-9%*] (or string start/end is NOT itself such a boundary — a
// candidate touching the start or end of the string without an explicit
// delimiter on that side is not extracted, matching the source regexp's
// lookbehind-free, explicitly-delimited grammar).
func candidates(lowerPattern string) []string {
	var out []string

	n := len(lowerPattern)
	i := 0
	for i < n {
		if !isBoundaryRune(lowerPattern[i]) {
			i++

			continue
		}

		j := i + 1
		for j < n && isTokenRune(lowerPattern[j]) {
			j++
		}

		if tokLen := j - (i + 1); tokLen >= 2 && j < n && isBoundaryRune(lowerPattern[j]) {
			out = append(out, lowerPattern[i+1:j])
		}

		i = j
	}

	return out
}

// Pick selects the keyword a filter with the given pattern should be
// indexed under.  isRegexLiteral filters never yield a keyword. count
// reports how many filters are already indexed under a candidate keyword;
// Pick chooses the candidate with the fewest (ties broken by longer
// keyword), or "" (the fallback bucket) if no acceptable candidate exists.
func Pick(pattern string, isRegexLiteral bool, count func(keyword string) int) string {
	if isRegexLiteral || pattern == "" {
		return ""
	}

	best := ""
	bestCount := -1
	for _, cand := range candidates(strings.ToLower(pattern)) {
		if badKeywords[cand] {
			continue
		}

		c := count(cand)
		switch {
		case bestCount == -1, c < bestCount, c == bestCount && len(cand) > len(best):
			best, bestCount = cand, c
		}
	}

	return best
}
