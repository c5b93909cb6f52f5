package dnsfilter

import (
	"bufio"
	"log/slog"
	"strings"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/urlfilter/matcher"
	"github.com/AdguardTeam/urlfilter/rules"
)

// Result is the outcome of a DNSEngine lookup.
type Result struct {
	// NetworkFilter is the host-level network filter that matched, if any.
	// It always takes precedence over host rules.
	NetworkFilter *rules.Filter

	// HostRules are the /etc/hosts-style rules that matched, if
	// NetworkFilter is nil.
	HostRules []*HostRule
}

// Matched reports whether the lookup found anything at all.
func (r Result) Matched() bool {
	return r.NetworkFilter != nil || len(r.HostRules) > 0
}

// DNSEngine combines a host-level network filter matcher with a HostFilter,
// giving a matching network filter precedence over host rules — mirroring
// the teacher's DNSEngine.Match dispatch order.
type DNSEngine struct {
	network *matcher.Matcher
	hosts   *HostFilter
}

// NewDNSEngine parses text (one rule per line) and returns a DNSEngine built
// from it. filterListID is unused beyond threading through to HostRule
// construction; it has no other role in matching.
func NewDNSEngine(text string, filterListID int) *DNSEngine {
	e := &DNSEngine{
		network: matcher.New(),
		hosts:   NewHostFilter(),
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if hostRule, err := NewHostRule(line, filterListID); err == nil {
			e.hosts.Add(hostRule)

			continue
		}

		f, err := rules.FromText(line)
		if err != nil {
			slog.Error("parsing DNS filter line", "line", line, slogutil.KeyError, err)

			continue
		}
		if f.Kind() != rules.KindBlocking {
			continue
		}

		if f.IsHostLevelNetworkRule() {
			e.network.Add(f)
		}
	}

	return e
}

// Match looks up hostname, consulting host-level network filters first and
// falling back to host rules.
func (e *DNSEngine) Match(hostname string) Result {
	if hostname == "" {
		return Result{}
	}

	// Host-level network filters are written with the same "||domain^"
	// grammar the URL matcher uses, which anchors on a URL scheme — wrap the
	// bare hostname in a synthetic URL so the same pattern grammar applies.
	req := rules.NewURLRequest("http://"+hostname+"/", "", "")
	if f := e.network.Match(req, rules.ResourceTypes, "", "", false); f != nil {
		return Result{NetworkFilter: f}
	}

	if hr := e.hosts.Match(hostname); len(hr) > 0 {
		return Result{HostRules: hr}
	}

	return Result{}
}
