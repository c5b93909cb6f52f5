package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/urlfilter/domainindex"
)

const (
	maskWhiteList    = "@@"
	replaceOption    = "rewrite"
	optionsDelimiter = '$'
	escapeCharacter  = '\\'
)

// ErrTooWideRule is returned if the rule matches all URLs but has no domain
// or sitekey restriction narrowing it down.
var ErrTooWideRule errors.Error = "the rule is too wide, add a domain or sitekey " +
	"restriction or make the pattern more specific"

// ThirdParty is the tri-state a Filter's $third-party modifier can take.
type ThirdParty uint8

// ThirdParty enumeration.
const (
	ThirdPartyAny ThirdParty = iota
	ThirdPartyOnly
	ThirdPartyFirstPartyOnly
)

// Filter is an immutable, parsed filter-list rule.  Two Filters with equal
// Text are interchangeable; Filter.fromText is referentially transparent and
// should be consulted through a shared memo (see FromText) rather than
// re-parsing the same text repeatedly.
type Filter struct {
	text string
	kind Kind

	pattern        string
	isRegexLiteral bool
	shortcut       string

	matchCase   bool
	contentType RequestType
	thirdParty  ThirdParty

	domains  []domainindex.DomainFlag
	sitekeys []string

	rewrite    string
	csp        string
	dnsRewrite *DNSRewrite

	hasPermittedDomain bool

	mu      sync.Mutex
	regex   *regexp.Regexp
	invalid bool
}

// Text returns the original, canonical rule text.
func (f *Filter) Text() string {
	return f.text
}

// Kind returns the filter's family.
func (f *Filter) Kind() Kind {
	return f.kind
}

// ContentType returns the content-type mask the filter is restricted to.
func (f *Filter) ContentType() RequestType {
	return f.contentType
}

// ThirdPartyMode returns the filter's $third-party restriction.
func (f *Filter) ThirdPartyMode() ThirdParty {
	return f.thirdParty
}

// Domains returns the filter's domain modifier, in parsed form.
func (f *Filter) Domains() []domainindex.DomainFlag {
	return f.domains
}

// Pattern returns the filter's pattern source.  For a regex-literal filter
// this includes the surrounding "/" delimiters; see IsRegexLiteral.
func (f *Filter) Pattern() string {
	return f.pattern
}

// IsRegexLiteral reports whether Pattern is a "/.../"-delimited regex
// literal rather than a mask-based pattern.
func (f *Filter) IsRegexLiteral() bool {
	return f.isRegexLiteral
}

// RegexSource returns the Go regular-expression source the filter's pattern
// translates to — for a regex-literal filter, its literal source verbatim.
// It does not include the "(?i)" prefix Filter.matches adds for
// case-insensitive filters.
func (f *Filter) RegexSource() string {
	return patternToRegexp(f.pattern)
}

// Sitekeys returns the filter's $sitekey modifier values, uppercased.
func (f *Filter) Sitekeys() []string {
	return f.sitekeys
}

// Rewrite returns the $rewrite payload, if any.
func (f *Filter) Rewrite() string {
	return f.rewrite
}

// CSP returns the $csp payload, if any.
func (f *Filter) CSP() string {
	return f.csp
}

// DNSRewrite returns the $dnsrewrite payload, if any.
func (f *Filter) DNSRewrite() *DNSRewrite {
	return f.dnsRewrite
}

// IsGeneric reports whether the filter applies on any domain, i.e. has no
// positive domain restriction.
func (f *Filter) IsGeneric() bool {
	return !f.hasPermittedDomain
}

// IsHostLevelNetworkRule reports whether the filter is simple enough to be
// used for hostname-level (DNS) blocking rather than full URL matching: no
// domain restriction, no content-type restriction, and no third-party,
// sitekey, rewrite, or CSP modifier — only the bare pattern and $dnsrewrite,
// if any, carry meaning at that level.
func (f *Filter) IsHostLevelNetworkRule() bool {
	if len(f.domains) > 0 {
		return false
	}

	if f.contentType != 0 && f.contentType != ResourceTypes {
		return false
	}

	if f.thirdParty != ThirdPartyAny {
		return false
	}

	if len(f.sitekeys) > 0 || f.rewrite != "" || f.csp != "" {
		return false
	}

	return true
}

// newFilter parses text into a Filter.  kind is KindComment for comment
// lines and one of the cosmetic kinds for cosmetic rules — in both cases the
// returned Filter carries no pattern and is never admitted to a Matcher.
// Parse failures yield a KindInvalid Filter rather than an error, per the
// "invalid filters are never admitted" contract; err is non-nil only for
// truly unrecoverable inputs (empty text).
func newFilter(text string) (f *Filter, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty filter text")
	}

	if kind, isCosmetic := classifyLine(trimmed); isCosmetic || kind == KindComment {
		return &Filter{text: text, kind: kind}, nil
	}

	f, perr := parseNetworkFilter(text, trimmed)
	if perr != nil {
		return &Filter{text: text, kind: KindInvalid}, nil
	}

	return f, nil
}

func parseNetworkFilter(original, trimmed string) (f *Filter, err error) {
	pattern, options, whitelist, err := parseRuleText(trimmed)
	if err != nil {
		return nil, err
	}

	f = &Filter{
		text:    original,
		kind:    KindBlocking,
		pattern: pattern,
	}
	if whitelist {
		f.kind = KindWhitelist
	}

	f.isRegexLiteral = strings.HasPrefix(pattern, MaskRegexRule) && strings.HasSuffix(pattern, MaskRegexRule) &&
		len(pattern) >= 2

	if err = f.loadOptions(options); err != nil {
		return nil, err
	}

	if strings.HasSuffix(f.pattern, "/*") {
		f.pattern = f.pattern[:len(f.pattern)-len("/*")] + MaskSeparator
	}

	if f.isTooWide() {
		return nil, ErrTooWideRule
	}

	f.loadShortcut()

	return f, nil
}

// isTooWide reports whether the pattern matches essentially every URL and
// has no domain or sitekey restriction to narrow it down.
func (f *Filter) isTooWide() bool {
	if f.isRegexLiteral {
		return false
	}

	switch {
	case f.pattern == MaskStartURL, f.pattern == MaskPipe, f.pattern == MaskAnyCharacter,
		f.pattern == "", len(f.pattern) < 3:
		return !f.hasPermittedDomain && len(f.sitekeys) == 0
	default:
		return false
	}
}

// Matches reports whether the filter applies to req, given typeMask,
// docDomain, sitekey, and specificOnly (the $~generic hint: only consult
// filters carrying a positive domain restriction).
func (f *Filter) Matches(req *URLRequest, typeMask RequestType, docDomain, sitekey string, specificOnly bool) bool {
	if specificOnly && f.IsGeneric() {
		return false
	}

	if f.contentType&typeMask == 0 {
		return false
	}

	switch f.thirdParty {
	case ThirdPartyOnly:
		if !req.ThirdParty {
			return false
		}
	case ThirdPartyFirstPartyOnly:
		if req.ThirdParty {
			return false
		}
	}

	if len(f.sitekeys) > 0 {
		if sitekey == "" || !hasSitekey(f.sitekeys, strings.ToUpper(sitekey)) {
			return false
		}
	}

	if !isActiveOnDomain(f.domains, docDomain) {
		return false
	}

	return f.matchesPattern(req)
}

func (f *Filter) matchesPattern(req *URLRequest) bool {
	if f.shortcut != "" && !strings.Contains(req.lowerCaseHref, f.shortcut) {
		return false
	}

	re, ok := f.compiledRegex()
	if !ok {
		return false
	}
	if re == nil {
		// Empty pattern ("*" alone, or similar): matches unconditionally.
		return true
	}

	if f.matchCase {
		return re.MatchString(req.Href)
	}

	return re.MatchString(req.lowerCaseHref)
}

func (f *Filter) compiledRegex() (re *regexp.Regexp, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.regex != nil {
		return f.regex, true
	}
	if f.invalid {
		return nil, false
	}

	src := patternToRegexp(f.pattern)
	if src == RegexAnyCharacter || src == "" {
		return nil, true
	}
	if !f.matchCase {
		src = "(?i)" + src
	}

	re, err := regexp.Compile(src)
	if err != nil {
		f.invalid = true

		return nil, false
	}

	f.regex = re

	return re, true
}

// loadOptions loads the comma-separated $options string.  It always sets
// f.contentType, even when options is empty, since the default is "every
// resource type" rather than the zero mask.
func (f *Filter) loadOptions(options string) error {
	if options == "" {
		f.contentType = ResourceTypes

		return nil
	}

	var specialBits, blockingOnlyBits, cspBits, permittedResource, restrictedResource RequestType

	parts := splitWithEscapeCharacter(options, ',', escapeCharacter, false)
	for _, option := range parts {
		name, value := option, ""
		if i := strings.IndexByte(option, '='); i > 0 {
			name, value = option[:i], option[i+1:]
		}

		switch {
		case name == "third-party" || name == "~first-party":
			f.thirdParty = ThirdPartyOnly
		case name == "~third-party" || name == "first-party":
			f.thirdParty = ThirdPartyFirstPartyOnly
		case name == "match-case":
			f.matchCase = true
		case name == "~match-case":
			f.matchCase = false
		case name == "domain":
			domains, err := parseDomains(value, "|")
			if err != nil {
				return err
			}
			f.domains = domains
			f.hasPermittedDomain = !isGenericDomains(domains)
		case name == "sitekey":
			f.sitekeys = parseSitekeys(value)
		case name == "rewrite":
			f.rewrite = value
		case name == "csp":
			f.csp = value
			cspBits |= TypeCsp
		case name == "dnsrewrite":
			rewrite, err := loadDNSRewrite(value)
			if err != nil {
				return err
			}
			f.dnsRewrite = rewrite
		case name == "document":
			specialBits |= TypeDocument | TypeElemhide | TypeGenerichide | TypeGenericblock |
				TypeJsinject | TypeUrlblock | TypeContent
		case name == "elemhide":
			specialBits |= TypeElemhide
		case name == "generichide":
			specialBits |= TypeGenerichide
		case name == "genericblock":
			specialBits |= TypeGenericblock
		case name == "jsinject":
			specialBits |= TypeJsinject
		case name == "urlblock":
			specialBits |= TypeUrlblock
		case name == "content":
			specialBits |= TypeContent
		case name == "popup":
			blockingOnlyBits |= TypePopup
		default:
			negated := strings.HasPrefix(name, "~")
			bareName := strings.TrimPrefix(name, "~")
			bit, known := contentTypeNames[bareName]
			if !known {
				return fmt.Errorf("unknown filter modifier: %s=%s", name, value)
			}
			if negated {
				restrictedResource |= bit
			} else {
				permittedResource |= bit
			}
		}
	}

	if err := f.checkOptionScope(specialBits, blockingOnlyBits); err != nil {
		return err
	}

	resource := ResourceTypes
	switch {
	case specialBits != 0 || blockingOnlyBits != 0:
		resource = TypeDocument
	case permittedResource != 0:
		resource = permittedResource
	case restrictedResource != 0:
		resource = ResourceTypes &^ restrictedResource
	}

	f.contentType = resource | specialBits | blockingOnlyBits | cspBits

	return nil
}

// checkOptionScope rejects whitelist-only special options (document,
// elemhide, generichide, genericblock, jsinject, urlblock, content) on a
// blocking filter, and the blocking-only $popup option on a whitelist
// filter. $csp is unrestricted — it applies to either kind — so it is not
// gated here.
func (f *Filter) checkOptionScope(whitelistOnlyBits, blockingOnlyBits RequestType) error {
	if whitelistOnlyBits != 0 && f.kind != KindWhitelist {
		return fmt.Errorf(
			"modifier cannot be used in a blocking rule: %s", f.text,
		)
	}

	if blockingOnlyBits != 0 && f.kind != KindBlocking {
		return fmt.Errorf(
			"modifier cannot be used in a whitelist rule: %s", f.text,
		)
	}

	return nil
}

func (f *Filter) loadShortcut() {
	var shortcut string
	if f.isRegexLiteral {
		shortcut = findRegexpShortcut(f.pattern)
	} else {
		shortcut = findShortcut(f.pattern)
	}

	if len(shortcut) > 1 {
		f.shortcut = strings.ToLower(shortcut)
	}
}

// findShortcut searches for the longest substring of pattern that contains
// none of the mask characters "*", "^", "|".
func findShortcut(pattern string) (shortcut string) {
	for pattern != "" {
		i := strings.IndexAny(pattern, "*^|")
		if i == -1 {
			if len(pattern) > len(shortcut) {
				return pattern
			}

			break
		}

		if i > len(shortcut) {
			shortcut = pattern[:i]
		}
		pattern = pattern[i+1:]
	}

	return shortcut
}

var reRegexpSpecialCharacters = regexp.MustCompile(`[\\^$*+?.()|[\]{}]`)

// findRegexpShortcut returns pattern's inner source verbatim as a
// literal-substring shortcut, but only when it contains no regex special
// character — otherwise a shortcut could reject a URL the compiled regexp
// would in fact match, so none is used and matching falls through to the
// regexp alone.
func findRegexpShortcut(pattern string) string {
	inner := pattern[1 : len(pattern)-1]
	if reRegexpSpecialCharacters.MatchString(inner) {
		return ""
	}

	return inner
}

var reEscapedOptionsDelimiter = regexp.MustCompile(regexp.QuoteMeta("\\$"))

// parseRuleText splits ruleText into pattern, options, and whether it is a
// whitelist (exception) rule.
func parseRuleText(ruleText string) (pattern, options string, whitelist bool, err error) {
	startIndex := 0
	if strings.HasPrefix(ruleText, maskWhiteList) {
		whitelist = true
		startIndex = len(maskWhiteList)
	}

	if len(ruleText) <= startIndex {
		return "", "", false, fmt.Errorf("the rule is too short: %s", ruleText)
	}

	pattern = ruleText[startIndex:]

	if strings.HasPrefix(pattern, MaskRegexRule) && strings.HasSuffix(pattern, MaskRegexRule) &&
		!strings.Contains(pattern, replaceOption+"=") {
		return pattern, "", whitelist, nil
	}

	foundEscaped := false
	for i := len(ruleText) - 2; i >= startIndex; i-- {
		c := ruleText[i]

		if c != optionsDelimiter {
			continue
		}

		if i > startIndex && ruleText[i-1] == escapeCharacter {
			foundEscaped = true

			continue
		}

		pattern = ruleText[startIndex:i]
		options = ruleText[i+1:]
		if foundEscaped {
			options = reEscapedOptionsDelimiter.ReplaceAllString(options, string(optionsDelimiter))
		}

		break
	}

	return pattern, options, whitelist, nil
}
