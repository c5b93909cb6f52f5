package matcher

import (
	"github.com/AdguardTeam/urlfilter/internal/lru"
	"github.com/AdguardTeam/urlfilter/rules"
)

// resultCacheCapacity bounds CombinedMatcher's match/search result caches.
const resultCacheCapacity = 10_000

// matchKey is the cache key for Match.
type matchKey struct {
	href         string
	typeMask     rules.RequestType
	docDomain    string
	sitekey      string
	specificOnly bool
}

// SearchResult is the result of a CombinedMatcher.Search call.
type SearchResult struct {
	Blocking  []*rules.Filter
	Whitelist []*rules.Filter
}

// searchKey is the cache key for Search; it additionally carries the
// requested filterType subset.
type searchKey struct {
	matchKey
	filterType string
}

// FilterType selects which matcher(s) Search consults.
type FilterType string

// FilterType enumeration.
const (
	FilterTypeAll       FilterType = "all"
	FilterTypeBlocking  FilterType = "blocking"
	FilterTypeWhitelist FilterType = "whitelist"
)

// CombinedMatcher pairs a blocking Matcher with a whitelist Matcher,
// giving a whitelist hit precedence over a blocking one, and caches query
// results behind a bounded LRU keyed on the query's parameters.
type CombinedMatcher struct {
	blocking  *Matcher
	whitelist *Matcher

	matchCache  *lru.Cache[matchKey, *rules.Filter]
	searchCache *lru.Cache[searchKey, SearchResult]
}

// NewCombinedMatcher returns an empty CombinedMatcher.
func NewCombinedMatcher() *CombinedMatcher {
	return &CombinedMatcher{
		blocking:    New(),
		whitelist:   New(),
		matchCache:  lru.New[matchKey, *rules.Filter](resultCacheCapacity),
		searchCache: lru.New[searchKey, SearchResult](resultCacheCapacity),
	}
}

// Add routes f to the blocking or whitelist matcher by f.Kind(), and
// invalidates the result caches. Filters that are neither blocking nor
// whitelist (comments, cosmetic rules, invalid filters) are silently
// ignored — they are never admitted to the URL matcher.
func (cm *CombinedMatcher) Add(f *rules.Filter) {
	switch f.Kind() {
	case rules.KindWhitelist:
		cm.whitelist.Add(f)
	case rules.KindBlocking:
		cm.blocking.Add(f)
	default:
		return
	}

	cm.clearCaches()
}

// Remove is the inverse of Add.
func (cm *CombinedMatcher) Remove(f *rules.Filter) {
	switch f.Kind() {
	case rules.KindWhitelist:
		cm.whitelist.Remove(f)
	case rules.KindBlocking:
		cm.blocking.Remove(f)
	default:
		return
	}

	cm.clearCaches()
}

// Has reports whether f is currently indexed, routing by f.Kind().
func (cm *CombinedMatcher) Has(f *rules.Filter) bool {
	switch f.Kind() {
	case rules.KindWhitelist:
		return cm.whitelist.Has(f)
	case rules.KindBlocking:
		return cm.blocking.Has(f)
	default:
		return false
	}
}

// Clear empties both matchers and the result caches.
func (cm *CombinedMatcher) Clear() {
	cm.blocking = New()
	cm.whitelist = New()
	cm.clearCaches()
}

func (cm *CombinedMatcher) clearCaches() {
	cm.matchCache.Clear()
	cm.searchCache.Clear()
}

// Match returns the highest-precedence filter matching req: a whitelist
// filter suppresses a blocking filter. The blocking matcher is consulted
// when typeMask carries a resource-type bit or any bit outside
// WhitelistingTypes (blocking filters are never restricted to a
// whitelist-only special type), and the whitelist
// matcher is only consulted when a blocking hit was found or typeMask
// itself carries a whitelisting bit — TypeDocument is both, so a
// document-type query always reaches the whitelist matcher even with no
// competing blocking filter. Results are cached; any Add/Remove/Clear
// invalidates the cache.
func (cm *CombinedMatcher) Match(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
) *rules.Filter {
	key := matchKey{
		href:         req.Href,
		typeMask:     typeMask,
		docDomain:    docDomain,
		sitekey:      sitekey,
		specificOnly: specificOnly,
	}

	if f, ok := cm.matchCache.Get(key); ok {
		return f
	}

	f := cm.matchUncached(req, typeMask, docDomain, sitekey, specificOnly)
	cm.matchCache.Add(key, f)

	return f
}

func (cm *CombinedMatcher) matchUncached(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
) *rules.Filter {
	var blockingHit *rules.Filter
	if typeMask&rules.ResourceTypes != 0 || typeMask&^rules.WhitelistingTypes != 0 {
		blockingHit = cm.blocking.Match(req, typeMask, docDomain, sitekey, specificOnly)
	}

	var whitelistHit *rules.Filter
	if blockingHit != nil || typeMask&rules.WhitelistingTypes != 0 {
		whitelistHit = cm.whitelist.Match(req, typeMask, docDomain, sitekey, false)
	}

	if whitelistHit != nil {
		return whitelistHit
	}

	return blockingHit
}

// Search walks every candidate in both matchers, returning every match
// rather than just the first, restricted to filterType.
func (cm *CombinedMatcher) Search(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
	specificOnly bool,
	filterType FilterType,
) SearchResult {
	key := searchKey{
		matchKey: matchKey{
			href:         req.Href,
			typeMask:     typeMask,
			docDomain:    docDomain,
			sitekey:      sitekey,
			specificOnly: specificOnly,
		},
		filterType: string(filterType),
	}

	if res, ok := cm.searchCache.Get(key); ok {
		return res
	}

	var res SearchResult
	if filterType == FilterTypeAll || filterType == FilterTypeBlocking {
		res.Blocking = cm.blocking.Search(req, typeMask, docDomain, sitekey, specificOnly, nil)
	}
	if filterType == FilterTypeAll || filterType == FilterTypeWhitelist {
		res.Whitelist = cm.whitelist.Search(req, typeMask, docDomain, sitekey, false, nil)
	}

	cm.searchCache.Add(key, res)

	return res
}

// IsWhitelisted reports whether some whitelist filter matches req.
func (cm *CombinedMatcher) IsWhitelisted(
	req *rules.URLRequest,
	typeMask rules.RequestType,
	docDomain, sitekey string,
) bool {
	return cm.whitelist.Match(req, typeMask, docDomain, sitekey, false) != nil
}
