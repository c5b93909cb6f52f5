// Package dnsfilter implements hostname-resolution-level ad blocking: the
// /etc/hosts-style rules and host-scoped network filters a DNS-filtering
// proxy consults, as opposed to the full URL matcher in package matcher.
package dnsfilter

import (
	"bufio"
	"strings"

	"github.com/AdguardTeam/urlfilter/filterutil"
)

// HostFilter indexes HostRule entries by the djb2-family
// filterutil.FastHash of each hostname, so a lookup never has to walk the
// full rule set.
type HostFilter struct {
	table map[uint32][]*HostRule
	count int
}

// NewHostFilter returns an empty HostFilter.
func NewHostFilter() *HostFilter {
	return &HostFilter{table: make(map[uint32][]*HostRule)}
}

// Add indexes rule under each of its hostnames.
func (h *HostFilter) Add(rule *HostRule) {
	for _, hostname := range rule.Hostnames {
		hash := filterutil.FastHash(hostname)
		h.table[hash] = append(h.table[hash], rule)
	}

	h.count++
}

// Len returns the number of HostRule entries added, regardless of how many
// hostnames each covers.
func (h *HostFilter) Len() int {
	return h.count
}

// Match returns every HostRule whose Hostnames include hostname.
func (h *HostFilter) Match(hostname string) []*HostRule {
	if hostname == "" {
		return nil
	}

	hash := filterutil.FastHash(hostname)
	candidates, ok := h.table[hash]
	if !ok {
		return nil
	}

	var out []*HostRule
	for _, rule := range candidates {
		if rule.Match(hostname) {
			out = append(out, rule)
		}
	}

	return out
}

// LoadHostFilter parses text, one /etc/hosts-syntax line per rule, and
// returns a HostFilter built from the lines that parse as host rules. Lines
// that are comments, cosmetic rules, or fail to parse as a HostRule are
// silently skipped — a filter list commonly interleaves host rules with
// plain network filters, and it is the caller's job (see DNSEngine) to also
// load those as host-level network filters.
func LoadHostFilter(text string, filterListID int) *HostFilter {
	hf := NewHostFilter()

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rule, err := NewHostRule(line, filterListID)
		if err != nil {
			continue
		}

		hf.Add(rule)
	}

	return hf
}
