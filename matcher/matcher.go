// Package matcher implements the keyword-partitioned, domain-indexed
// filter matcher: Matcher holds one filter class (blocking or whitelist),
// and CombinedMatcher composes a blocking/whitelist pair behind a shared
// result cache, giving whitelist filters precedence the way a content
// blocker's exception rules override its block rules.
package matcher

import (
	"regexp"
	"strings"

	"github.com/AdguardTeam/urlfilter/domainindex"
	"github.com/AdguardTeam/urlfilter/domainsuffix"
	"github.com/AdguardTeam/urlfilter/keyword"
	"github.com/AdguardTeam/urlfilter/rules"
	"golang.org/x/exp/slices"
)

// tokenRunRE extracts the candidate keywords a URL could be indexed under:
// every maximal run of at least two characters from [a-z0-9%].
var tokenRunRE = regexp.MustCompile(`[a-z0-9%]{2,}`)

// bucket holds every filter indexed under one keyword, plus the derived
// structures (domain index, CompiledPatterns fast reject) built lazily from
// them and invalidated whenever the bucket's filter set changes.
type bucket struct {
	filters []*rules.Filter
	byText  map[string]*rules.Filter

	domainIdx      *domainindex.ByDomain
	domainIdxBuilt bool

	// wildcardFilters holds every filter with a "google.*"-shaped wildcard
	// domain entry. Such an entry never appears as a literal suffix of any
	// real hostname, so it cannot be reached through domainIdx's suffix
	// lookup; these filters are instead always tried directly, letting
	// Filter.Matches's own domain check (which does understand wildcards)
	// decide.
	wildcardFilters []*rules.Filter
	wildcardBuilt   bool

	compiled      *CompiledPatterns
	compiledBuilt bool
}

func newBucket() *bucket {
	return &bucket{byText: make(map[string]*rules.Filter)}
}

func (b *bucket) invalidate() {
	b.domainIdx = nil
	b.domainIdxBuilt = false
	b.wildcardFilters = nil
	b.wildcardBuilt = false
	b.compiled = nil
	b.compiledBuilt = false
}

func (b *bucket) domainIndex() *domainindex.ByDomain {
	if b.domainIdxBuilt {
		return b.domainIdx
	}

	idx := domainindex.New()
	for _, f := range b.filters {
		idx.Add(f.Text(), f.Domains())
	}

	b.domainIdx = idx
	b.domainIdxBuilt = true

	return idx
}

func hasWildcardDomain(f *rules.Filter) bool {
	for _, d := range f.Domains() {
		if strings.HasSuffix(d.Domain, ".*") {
			return true
		}
	}

	return false
}

func (b *bucket) wildcardDomainFilters() []*rules.Filter {
	if b.wildcardBuilt {
		return b.wildcardFilters
	}

	for _, f := range b.filters {
		if hasWildcardDomain(f) {
			b.wildcardFilters = append(b.wildcardFilters, f)
		}
	}

	b.wildcardBuilt = true

	return b.wildcardFilters
}

func (b *bucket) compiledPatterns() *CompiledPatterns {
	if b.compiledBuilt {
		return b.compiled
	}

	b.compiled = buildCompiledPatterns(b.filters)
	b.compiledBuilt = true

	return b.compiled
}

// Matcher indexes one filter class (blocking or whitelist filters) by
// keyword, and answers match/search queries against that class alone. Use
// CombinedMatcher to get whitelist-over-blocking precedence.
type Matcher struct {
	buckets       map[string]*bucket
	keywordByText map[string]string
}

// New returns an empty Matcher.
func New() *Matcher {
	return &Matcher{
		buckets:       make(map[string]*bucket),
		keywordByText: make(map[string]string),
	}
}

// Add indexes f under its selected keyword. Idempotent on f.Text().
func (m *Matcher) Add(f *rules.Filter) {
	if _, ok := m.keywordByText[f.Text()]; ok {
		return
	}

	kw := m.FindKeyword(f)
	m.keywordByText[f.Text()] = kw

	b, ok := m.buckets[kw]
	if !ok {
		b = newBucket()
		m.buckets[kw] = b
	}

	b.filters = append(b.filters, f)
	b.byText[f.Text()] = f
	b.invalidate()
}

// Remove undoes Add. A no-op if f was never added.
func (m *Matcher) Remove(f *rules.Filter) {
	kw, ok := m.keywordByText[f.Text()]
	if !ok {
		return
	}

	delete(m.keywordByText, f.Text())

	b, ok := m.buckets[kw]
	if !ok {
		return
	}

	delete(b.byText, f.Text())
	if i := slices.IndexFunc(b.filters, func(ff *rules.Filter) bool { return ff.Text() == f.Text() }); i != -1 {
		b.filters = slices.Delete(b.filters, i, i+1)
	}

	if len(b.filters) == 0 {
		delete(m.buckets, kw)
	} else {
		b.invalidate()
	}
}

// Has reports whether f is currently indexed.
func (m *Matcher) Has(f *rules.Filter) bool {
	_, ok := m.keywordByText[f.Text()]

	return ok
}

// Len returns the number of filters currently indexed.
func (m *Matcher) Len() int {
	return len(m.keywordByText)
}

// FindKeyword returns the keyword f would be indexed under if it were added
// now, given the current bucket sizes; for a filter already added this can
// differ from the keyword it is indexed under. Exposed for testability; it
// does not register f.
func (m *Matcher) FindKeyword(f *rules.Filter) string {
	return keyword.Pick(f.Pattern(), f.IsRegexLiteral(), m.countForKeyword)
}

func (m *Matcher) countForKeyword(kw string) int {
	b, ok := m.buckets[kw]
	if !ok {
		return 0
	}

	return len(b.filters)
}

// candidateKeywords returns the keywords a match walk over href should
// visit, in extraction order, always ending with the fallback "" bucket.
func candidateKeywords(lowerHref string) []string {
	found := tokenRunRE.FindAllString(lowerHref, -1)

	return append(found, "")
}

// Match returns the first filter in this Matcher that matches req, or nil.
func (m *Matcher) Match(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
) *rules.Filter {
	for _, kw := range candidateKeywords(req.LowerHref()) {
		if f := m.checkEntryMatch(kw, req, typeMask, docDomain, sitekey, specificOnly, nil); f != nil {
			return f
		}
	}

	return nil
}

// Search appends every filter in this Matcher that matches req to out,
// returning the (possibly extended) slice.
func (m *Matcher) Search(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
	out []*rules.Filter,
) []*rules.Filter {
	seen := make(map[string]bool)
	for _, kw := range candidateKeywords(req.LowerHref()) {
		collected := out
		out = m.checkEntryMatchAll(kw, req, typeMask, docDomain, sitekey, specificOnly, collected, seen)
	}

	return out
}

// checkEntryMatch runs the per-keyword domain-partitioned match. When
// collection is non-nil, every match is appended to it and checkEntryMatch
// always returns nil (callers that want "first match" pass a nil
// collection, in which case the first hit is returned immediately).
func (m *Matcher) checkEntryMatch(
	kw string,
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
	collection *[]*rules.Filter,
) *rules.Filter {
	b, ok := m.buckets[kw]
	if !ok {
		return nil
	}

	if !b.compiledPatterns().Test(req) {
		return nil
	}

	idx := b.domainIndex()
	excluded := make(map[string]bool)

	for _, suffix := range domainsuffix.Suffixes(docDomain, !specificOnly) {
		entry, ok := idx.Get(suffix)
		if !ok {
			continue
		}

		if entry.IsBare() {
			if excluded[entry.Bare] {
				continue
			}

			f := b.byText[entry.Bare]
			if f != nil && f.Matches(req, typeMask, docDomain, sitekey, specificOnly) {
				if collection == nil {
					return f
				}

				*collection = append(*collection, f)
			}

			continue
		}

		var hit *rules.Filter
		entry.Map.Range(func(text string, include bool) {
			if hit != nil && collection == nil {
				return
			}

			if !include {
				excluded[text] = true

				return
			}

			if excluded[text] {
				return
			}

			f := b.byText[text]
			if f == nil || !f.Matches(req, typeMask, docDomain, sitekey, specificOnly) {
				return
			}

			if collection == nil {
				hit = f
			} else {
				*collection = append(*collection, f)
			}
		})

		if hit != nil {
			return hit
		}
	}

	for _, f := range b.wildcardDomainFilters() {
		if !f.Matches(req, typeMask, docDomain, sitekey, specificOnly) {
			continue
		}

		if collection == nil {
			return f
		}

		*collection = append(*collection, f)
	}

	return nil
}

// checkEntryMatchAll is the Search-path helper: it calls checkEntryMatch in
// collection mode, deduplicating across keyword buckets via seen (the same
// filter can be reachable through more than one extracted keyword, but each
// filter is itself indexed under exactly one keyword bucket, so dedup keys
// on filter text are sufficient).
func (m *Matcher) checkEntryMatchAll(
	kw string,
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
	out []*rules.Filter,
	seen map[string]bool,
) []*rules.Filter {
	var collected []*rules.Filter
	m.checkEntryMatch(kw, req, typeMask, docDomain, sitekey, specificOnly, &collected)

	for _, f := range collected {
		if !seen[f.Text()] {
			seen[f.Text()] = true
			out = append(out, f)
		}
	}

	return out
}
