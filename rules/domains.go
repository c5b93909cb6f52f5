package rules

import (
	"fmt"
	"strings"

	"github.com/AdguardTeam/urlfilter/domainindex"
	"github.com/AdguardTeam/urlfilter/domainsuffix"
	"github.com/AdguardTeam/urlfilter/filterutil"
)

// parseDomains parses a $domain modifier value into ordered (domain,
// include) pairs, lower-cased.  sep is "|" for network rules and "," for
// cosmetic rule domains.
//
// Per the domain-representation rules: a list with any inclusion (including
// a mix of inclusions and exclusions) implicitly sets "" to false ("do not
// apply elsewhere"); a pure-exclusion list implicitly sets "" to true
// ("apply everywhere except ...").
func parseDomains(value, sep string) (domains []domainindex.DomainFlag, err error) {
	if value == "" {
		return nil, fmt.Errorf("no domains specified")
	}

	tokens := strings.Split(value, sep)
	domains = make([]domainindex.DomainFlag, 0, len(tokens))

	hasInclude, hasExclude := false, false
	for _, tok := range tokens {
		include := true
		if strings.HasPrefix(tok, "~") {
			include = false
			tok = tok[1:]
		}

		tok = strings.ToLower(tok)
		if !filterutil.IsDomainName(tok) && !strings.HasSuffix(tok, ".*") {
			return nil, fmt.Errorf("invalid domain specified: %s", value)
		}

		if include {
			hasInclude = true
		} else {
			hasExclude = true
		}

		domains = append(domains, domainindex.DomainFlag{Domain: tok, Include: include})
	}

	switch {
	case hasInclude:
		domains = append(domains, domainindex.DomainFlag{Domain: "", Include: false})
	case hasExclude:
		domains = append(domains, domainindex.DomainFlag{Domain: "", Include: true})
	}

	return domains, nil
}

// isGenericDomains reports whether domains represents "applies everywhere,
// with no positive domain restriction" — i.e. there is no explicit
// Include:true entry for a non-blank domain.
func isGenericDomains(domains []domainindex.DomainFlag) bool {
	for _, d := range domains {
		if d.Domain != "" && d.Include {
			return false
		}
	}

	return true
}

// isActiveOnDomain walks domains from the most specific suffix of host
// toward "", the way the matcher's domain-partitioned lookup does, and
// reports whether the filter that owns domains is active on host. A
// "google.*"-shaped wildcard-TLD entry never appears as a literal domain
// suffix of any real host, so it is checked separately, after the exact
// suffixes and before falling through to the blank/default entry.
func isActiveOnDomain(domains []domainindex.DomainFlag, host string) bool {
	if len(domains) == 0 {
		return true
	}

	byDomain := map[string]bool{}
	var wildcards []domainindex.DomainFlag
	for _, d := range domains {
		if strings.HasSuffix(d.Domain, ".*") {
			wildcards = append(wildcards, d)

			continue
		}

		byDomain[d.Domain] = d.Include
	}

	for _, suffix := range domainsuffix.Suffixes(host, false) {
		if include, ok := byDomain[suffix]; ok {
			return include
		}
	}

	for _, w := range wildcards {
		if isDomainOrSubdomainOfAny(host, []string{w.Domain}) {
			return w.Include
		}
	}

	if include, ok := byDomain[""]; ok {
		return include
	}

	return false
}
