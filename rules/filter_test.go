package rules_test

import (
	"testing"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/AdguardTeam/urlfilter/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText_Empty(t *testing.T) {
	f, err := rules.FromText("   ")
	testutil.AssertErrorMsg(t, "empty filter text", err)
	assert.Nil(t, f)
}

func TestFromText_Comment(t *testing.T) {
	f, err := rules.FromText("! this is a comment")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindComment, f.Kind())

	f, err = rules.FromText("# another comment")
	require.NoError(t, err)
	assert.Equal(t, rules.KindComment, f.Kind())
}

func TestFromText_Cosmetic(t *testing.T) {
	f, err := rules.FromText("example.org##.banner")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindElemHide, f.Kind())

	f, err = rules.FromText("example.org#@#.banner")
	require.NoError(t, err)
	assert.Equal(t, rules.KindElemHideException, f.Kind())
}

func TestFromText_Blocking(t *testing.T) {
	f, err := rules.FromText("||example.org^")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindBlocking, f.Kind())
	assert.True(t, f.IsGeneric())

	req := rules.NewURLRequest("https://example.org/banner.js", "", "")
	assert.True(t, f.Matches(req, rules.TypeScript, "", "", false))

	req2 := rules.NewURLRequest("https://notexample.org/banner.js", "", "")
	assert.False(t, f.Matches(req2, rules.TypeScript, "", "", false))
}

func TestFromText_Whitelist(t *testing.T) {
	f, err := rules.FromText("@@||example.org^")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindWhitelist, f.Kind())
}

func TestFromText_TooWide(t *testing.T) {
	f, err := rules.FromText("*")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindInvalid, f.Kind())

	f, err = rules.FromText("*$domain=example.org")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.False(t, f.IsGeneric())
}

func TestFromText_ContentType(t *testing.T) {
	f, err := rules.FromText("||example.org^$script,image")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.TypeScript|rules.TypeImage, f.ContentType())

	f, err = rules.FromText("||example.org^$~image")
	require.NoError(t, err)
	assert.Equal(t, rules.ResourceTypes&^rules.TypeImage, f.ContentType())
}

func TestFromText_ThirdParty(t *testing.T) {
	f, err := rules.FromText("||example.org^$third-party")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.ThirdPartyOnly, f.ThirdPartyMode())

	req := rules.NewURLRequest("https://example.org/x.js", "https://other.com/", "")
	assert.True(t, f.Matches(req, rules.TypeScript, "other.com", "", false))

	req2 := rules.NewURLRequest("https://example.org/x.js", "https://example.org/", "")
	assert.False(t, f.Matches(req2, rules.TypeScript, "example.org", "", false))
}

func TestFromText_Domain(t *testing.T) {
	f, err := rules.FromText("/banner/$domain=example.org|~sub.example.org")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.False(t, f.IsGeneric())

	req := rules.NewURLRequest("https://cdn.test/banner/ad.js", "", "")
	assert.True(t, f.Matches(req, rules.TypeScript, "example.org", "", false))
	assert.False(t, f.Matches(req, rules.TypeScript, "sub.example.org", "", false))
	assert.False(t, f.Matches(req, rules.TypeScript, "unrelated.com", "", false))
}

func TestFromText_WildcardTLDDomain(t *testing.T) {
	f, err := rules.FromText("/banner/$domain=google.*")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.False(t, f.IsGeneric())

	req := rules.NewURLRequest("https://cdn.test/banner/ad.js", "", "")
	assert.True(t, f.Matches(req, rules.TypeScript, "google.com", "", false))
	assert.True(t, f.Matches(req, rules.TypeScript, "google.co.uk", "", false))
	assert.False(t, f.Matches(req, rules.TypeScript, "notgoogle.com", "", false))
}

func TestFromText_CSPOnBlockingRule(t *testing.T) {
	f, err := rules.FromText("||ads.example^$csp=script-src 'self'")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindBlocking, f.Kind())
	assert.Equal(t, "script-src 'self'", f.CSP())
}

func TestFromText_CSPOnWhitelistRule(t *testing.T) {
	f, err := rules.FromText("@@||ads.example^$csp=script-src 'self'")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindWhitelist, f.Kind())
	assert.Equal(t, "script-src 'self'", f.CSP())
}

func TestFromText_PopupOnBlockingRule(t *testing.T) {
	f, err := rules.FromText("||ads.example^$popup")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindBlocking, f.Kind())
}

func TestFromText_PopupOnWhitelistRuleInvalid(t *testing.T) {
	f, err := rules.FromText("@@||ads.example^$popup")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindInvalid, f.Kind())
}

func TestFromText_ElemhideOnWhitelistRule(t *testing.T) {
	f, err := rules.FromText("@@||ads.example^$elemhide")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindWhitelist, f.Kind())
}

func TestFromText_ElemhideOnBlockingRuleInvalid(t *testing.T) {
	f, err := rules.FromText("||ads.example^$elemhide")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindInvalid, f.Kind())
}

func TestFromText_Sitekey(t *testing.T) {
	f, err := rules.FromText("||example.org^$sitekey=ABCDEF")
	require.NoError(t, err)
	require.NotNil(t, f)

	req := rules.NewURLRequest("https://example.org/x.js", "", "abcdef")
	assert.True(t, f.Matches(req, rules.TypeScript, "", "abcdef", false))

	req2 := rules.NewURLRequest("https://example.org/x.js", "", "other")
	assert.False(t, f.Matches(req2, rules.TypeScript, "", "other", false))
}

func TestFromText_SpecificOnly(t *testing.T) {
	f, err := rules.FromText("||example.org^")
	require.NoError(t, err)
	req := rules.NewURLRequest("https://example.org/x.js", "", "")
	assert.False(t, f.Matches(req, rules.TypeScript, "", "", true))

	f2, err := rules.FromText("||example.org^$domain=example.org")
	require.NoError(t, err)
	assert.True(t, f2.Matches(req, rules.TypeScript, "example.org", "", true))
}

func TestFromText_RegexLiteral(t *testing.T) {
	f, err := rules.FromText(`/banner\d+\.png/`)
	require.NoError(t, err)
	require.NotNil(t, f)

	req := rules.NewURLRequest("https://example.org/banner123.png", "", "")
	assert.True(t, f.Matches(req, rules.TypeImage, "", "", false))

	req2 := rules.NewURLRequest("https://example.org/banner.png", "", "")
	assert.False(t, f.Matches(req2, rules.TypeImage, "", "", false))
}

func TestFromText_Memoized(t *testing.T) {
	f1, err := rules.FromText("||example.org^")
	require.NoError(t, err)
	f2, err := rules.FromText("||example.org^")
	require.NoError(t, err)
	assert.Same(t, f1, f2)
}

func TestFromText_DocumentException(t *testing.T) {
	f, err := rules.FromText("@@||example.org^$document")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindWhitelist, f.Kind())
	assert.NotZero(t, f.ContentType()&rules.TypeElemhide)
	assert.NotZero(t, f.ContentType()&rules.TypeDocument)
}

func TestFromText_DocumentOptionOnBlockingRuleInvalid(t *testing.T) {
	f, err := rules.FromText("||example.org^$document")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, rules.KindInvalid, f.Kind())
}

func TestFromText_DNSRewrite(t *testing.T) {
	f, err := rules.FromText("||example.org^$dnsrewrite=NXDOMAIN")
	require.NoError(t, err)
	require.NotNil(t, f)
	require.NotNil(t, f.DNSRewrite())

	f, err = rules.FromText("||example.org^$dnsrewrite=A;1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, f.DNSRewrite())
	assert.Equal(t, "1.2.3.4", f.DNSRewrite().IP().String())
}
