package dnsfilter

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/urlfilter/filterutil"
)

// ErrInvalidHostRule is returned by NewHostRule when ruleText does not parse
// as /etc/hosts syntax.
var ErrInvalidHostRule errors.Error = "invalid host rule syntax"

// HostRule is a single /etc/hosts-style line: an address (or, for a
// "bare domain" line, the implicit unspecified address) and the one or more
// hostnames it resolves to.
//
// https://man7.org/linux/man-pages/man5/hosts.5.html
type HostRule struct {
	// RuleText is the rule's original, untrimmed text.
	RuleText string

	// Hostnames are the names this rule binds to IP.
	Hostnames []string

	// IP is the rule's address. For a bare "just a domain" line this is the
	// unspecified address (0.0.0.0), the conventional way such lines are
	// blocked by a hosts-file-based blocklist.
	IP netip.Addr

	// FilterListID identifies the filter list ruleText came from.
	FilterListID int
}

// NewHostRule parses ruleText as one line of /etc/hosts syntax:
//
//	address hostname [alias ...]
//
// or, for a filter-list-style bare entry, just:
//
//	hostname
//
// A "#"-introduced trailing comment is stripped first. FilterListID is
// carried through unexamined, for the caller to use as an origin tag.
func NewHostRule(ruleText string, filterListID int) (*HostRule, error) {
	line := ruleText
	if idx := strings.IndexByte(line, '#'); idx == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHostRule, ruleText)
	} else if idx > 0 {
		line = line[:idx]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHostRule, ruleText)
	}

	h := &HostRule{RuleText: ruleText, FilterListID: filterListID}

	if len(fields) == 1 {
		if !filterutil.IsDomainName(fields[0]) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHostRule, ruleText)
		}

		h.IP = netip.IPv4Unspecified()
		h.Hostnames = fields

		return h, nil
	}

	ip, err := netip.ParseAddr(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidHostRule, ruleText, err)
	}

	h.IP = ip
	h.Hostnames = fields[1:]

	return h, nil
}

// Text returns the rule's original text.
func (h *HostRule) Text() string {
	return h.RuleText
}

// Match reports whether hostname is one of h's bound names.
func (h *HostRule) Match(hostname string) bool {
	for _, name := range h.Hostnames {
		if name == hostname {
			return true
		}
	}

	return false
}
