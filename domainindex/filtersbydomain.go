// Package domainindex implements FiltersByDomain, the domain-partitioned
// sub-index that maps a domain to the filters restricted to or excluded from
// it, keeping the common one-filter-per-domain case cheap.
package domainindex

import "golang.org/x/exp/slices"

// DomainFlag is one (domain, include) pair from a filter's domain modifier.
// Domain "" denotes "applies everywhere" (Include true) or "does not apply
// generically" (Include false).
type DomainFlag struct {
	Domain  string
	Include bool
}

// FilterMap is an insertion-ordered mapping of filter text to its include
// flag for one domain.  It is never empty and is never a singleton of
// (text, true) — that case always collapses to a bare Entry.
type FilterMap struct {
	order []string
	flags map[string]bool
}

func newFilterMap() *FilterMap {
	return &FilterMap{flags: make(map[string]bool, 2)}
}

// Get returns the include flag recorded for text.
func (m *FilterMap) Get(text string) (include, ok bool) {
	include, ok = m.flags[text]

	return include, ok
}

// Len returns the number of filters recorded in the map.
func (m *FilterMap) Len() int {
	return len(m.order)
}

// Range calls fn for every (text, include) pair in insertion order.
func (m *FilterMap) Range(fn func(text string, include bool)) {
	for _, text := range m.order {
		fn(text, m.flags[text])
	}
}

func (m *FilterMap) set(text string, include bool) {
	if _, ok := m.flags[text]; !ok {
		m.order = append(m.order, text)
	}

	m.flags[text] = include
}

func (m *FilterMap) delete(text string) {
	if _, ok := m.flags[text]; !ok {
		return
	}

	delete(m.flags, text)
	if i := slices.Index(m.order, text); i != -1 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

// soleEntry returns the map's only (text, include) pair if Len() == 1.
func (m *FilterMap) soleEntry() (text string, include bool) {
	text = m.order[0]

	return text, m.flags[text]
}

// Entry is the value FiltersByDomain stores for one domain: either a bare
// filter text (Include is implicitly true) or a FilterMap.
type Entry struct {
	Bare string
	Map  *FilterMap
}

// IsBare reports whether this Entry is the bare-filter form.
func (e Entry) IsBare() bool {
	return e.Map == nil
}

// ByDomain is the FiltersByDomain index.
type ByDomain struct {
	order   []string
	entries map[string]Entry
}

// New returns an empty FiltersByDomain index.
func New() *ByDomain {
	return &ByDomain{entries: make(map[string]Entry)}
}

// normalize returns domains, or the single generic pair when domains is
// empty.
func normalize(domains []DomainFlag) []DomainFlag {
	if len(domains) == 0 {
		return []DomainFlag{{Domain: "", Include: true}}
	}

	return domains
}

// Add records text under every domain in domains (or the generic pair if
// domains is empty), skipping the no-op pair ("", false).
func (b *ByDomain) Add(text string, domains []DomainFlag) {
	for _, df := range normalize(domains) {
		if df.Domain == "" && !df.Include {
			continue
		}

		b.addOne(text, df.Domain, df.Include)
	}
}

func (b *ByDomain) addOne(text, domain string, include bool) {
	e, ok := b.entries[domain]
	if !ok {
		b.order = append(b.order, domain)
		if include {
			b.entries[domain] = Entry{Bare: text}
		} else {
			m := newFilterMap()
			m.set(text, false)
			b.entries[domain] = Entry{Map: m}
		}

		return
	}

	if e.IsBare() {
		if e.Bare == text {
			return
		}

		m := newFilterMap()
		m.set(e.Bare, true)
		m.set(text, include)
		b.entries[domain] = Entry{Map: m}

		return
	}

	e.Map.set(text, include)
}

// Remove undoes the effect of Add with the same arguments.
func (b *ByDomain) Remove(text string, domains []DomainFlag) {
	for _, df := range normalize(domains) {
		if df.Domain == "" && !df.Include {
			continue
		}

		b.removeOne(text, df.Domain)
	}
}

func (b *ByDomain) removeOne(text, domain string) {
	e, ok := b.entries[domain]
	if !ok {
		return
	}

	if e.IsBare() {
		if e.Bare == text {
			b.deleteDomain(domain)
		}

		return
	}

	e.Map.delete(text)

	switch e.Map.Len() {
	case 0:
		b.deleteDomain(domain)
	case 1:
		soleText, soleInclude := e.Map.soleEntry()
		if soleInclude {
			b.entries[domain] = Entry{Bare: soleText}
		}
	}
}

func (b *ByDomain) deleteDomain(domain string) {
	delete(b.entries, domain)
	if i := slices.Index(b.order, domain); i != -1 {
		b.order = slices.Delete(b.order, i, i+1)
	}
}

// Get returns the Entry recorded for domain.
func (b *ByDomain) Get(domain string) (Entry, bool) {
	e, ok := b.entries[domain]

	return e, ok
}

// Has reports whether domain has a recorded Entry.
func (b *ByDomain) Has(domain string) bool {
	_, ok := b.entries[domain]

	return ok
}

// Size returns the number of domains with a recorded Entry.
func (b *ByDomain) Size() int {
	return len(b.order)
}

// DomainEntry pairs a domain with its Entry, for Entries.
type DomainEntry struct {
	Domain string
	Entry  Entry
}

// Entries returns every (domain, Entry) pair in domain-insertion order.
func (b *ByDomain) Entries() []DomainEntry {
	out := make([]DomainEntry, 0, len(b.order))
	for _, d := range b.order {
		out = append(out, DomainEntry{Domain: d, Entry: b.entries[d]})
	}

	return out
}

// Clear empties the index.
func (b *ByDomain) Clear() {
	b.order = nil
	b.entries = make(map[string]Entry)
}
