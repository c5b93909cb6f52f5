package matcher

import (
	"regexp"
	"strings"

	"github.com/AdguardTeam/urlfilter/rules"
)

// maxCompiledPatternsFilters bounds how many filters' patterns get folded
// into one fast-reject alternation; beyond this the combined regex tends to
// cost more to evaluate than the linear scan it is meant to short-circuit.
const maxCompiledPatternsFilters = 100

// CompiledPatterns is a keyword bucket's fast-reject: the patterns of every
// filter in the bucket, concatenated into a single alternation regex (one
// case-sensitive, one case-insensitive). If neither regex matches a
// request's URL, no filter in the bucket can match it, so the linear scan
// over the bucket is skipped entirely.
type CompiledPatterns struct {
	caseSensitive   *regexp.Regexp
	caseInsensitive *regexp.Regexp
}

// buildCompiledPatterns builds a CompiledPatterns over filters, or returns
// nil if filters is empty, too large, or either alternation fails to
// compile (a build failure here is non-fatal — it just disables the fast
// reject for this bucket).
func buildCompiledPatterns(filters []*rules.Filter) *CompiledPatterns {
	if len(filters) == 0 || len(filters) > maxCompiledPatternsFilters {
		return nil
	}

	srcs := make([]string, 0, len(filters))
	for _, f := range filters {
		srcs = append(srcs, f.RegexSource())
	}
	alt := strings.Join(srcs, "|")

	cs, err := regexp.Compile(alt)
	if err != nil {
		return nil
	}

	ci, err := regexp.Compile("(?i)" + alt)
	if err != nil {
		return nil
	}

	return &CompiledPatterns{caseSensitive: cs, caseInsensitive: ci}
}

// Test reports whether req's URL could possibly be matched by some filter
// the CompiledPatterns was built from. A nil receiver (no CompiledPatterns
// built, or fast reject disabled) always reports true — i.e. the caller
// falls through to the real scan.
func (c *CompiledPatterns) Test(req *rules.URLRequest) bool {
	if c == nil {
		return true
	}

	return c.caseInsensitive.MatchString(req.LowerHref()) || c.caseSensitive.MatchString(req.Href)
}
