package rules

import (
	"strings"

	"github.com/AdguardTeam/urlfilter/filterutil"
	"golang.org/x/net/publicsuffix"
)

// URLRequest is a parsed view of one URL-matching query: the URL itself plus
// the context a Filter's modifiers are evaluated against.
type URLRequest struct {
	// Href is the request URL, as given by the caller.
	Href string

	// lowerCaseHref is the lower-cased Href, used by the default
	// case-insensitive pattern match.
	lowerCaseHref string

	// Hostname is the request URL's hostname.
	Hostname string

	// Domain is the eTLD+1 of Hostname, or Hostname itself if no public
	// suffix applies.
	Domain string

	// DocumentHostname is the hostname of the page the request was made
	// from, if known.
	DocumentHostname string

	// DocumentDomain is the eTLD+1 of DocumentHostname.
	DocumentDomain string

	// ThirdParty reports whether Domain and DocumentDomain differ.
	ThirdParty bool

	// Sitekey is the value of the page's $sitekey, if known.
	Sitekey string
}

// LowerHref returns the lower-cased Href, as used by the default
// case-insensitive pattern match.
func (r *URLRequest) LowerHref() string {
	return r.lowerCaseHref
}

// NewURLRequest builds a URLRequest for href, optionally scoped to the page
// at documentHref.  An empty documentHref yields a request with no document
// context; ThirdParty is then always false.
func NewURLRequest(href, documentHref, sitekey string) *URLRequest {
	req := &URLRequest{
		Href:          href,
		lowerCaseHref: strings.ToLower(href),
		Hostname:      filterutil.ExtractHostname(href),
		Sitekey:       sitekey,
	}
	req.Domain = effectiveTLDPlusOne(req.Hostname)

	if documentHref != "" {
		req.DocumentHostname = filterutil.ExtractHostname(documentHref)
		req.DocumentDomain = effectiveTLDPlusOne(req.DocumentHostname)
		req.ThirdParty = req.Domain != "" && req.DocumentDomain != "" && req.Domain != req.DocumentDomain
	}

	return req
}

// effectiveTLDPlusOne returns the eTLD+1 of hostname, falling back to
// hostname itself when it has no recognized public suffix (e.g. "localhost"
// or a bare IP address).
func effectiveTLDPlusOne(hostname string) string {
	if hostname == "" {
		return ""
	}

	if filterutil.ParseIP(hostname) != nil {
		return hostname
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hostname
	}

	return domain
}
