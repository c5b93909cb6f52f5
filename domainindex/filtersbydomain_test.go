package domainindex_test

import (
	"testing"

	"github.com/AdguardTeam/urlfilter/domainindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByDomain_Shape(t *testing.T) {
	b := domainindex.New()

	// "^foo^$domain=example.com|~www.example.com"
	b.Add("filter1", []domainindex.DomainFlag{
		{Domain: "example.com", Include: true},
		{Domain: "www.example.com", Include: false},
	})

	assert.Equal(t, 2, b.Size())

	e, ok := b.Get("example.com")
	require.True(t, ok)
	assert.True(t, e.IsBare())
	assert.Equal(t, "filter1", e.Bare)

	e, ok = b.Get("www.example.com")
	require.True(t, ok)
	require.False(t, e.IsBare())
	include, ok := e.Map.Get("filter1")
	require.True(t, ok)
	assert.False(t, include)

	// "^bar^$domain=example.com"
	b.Add("filter2", []domainindex.DomainFlag{{Domain: "example.com", Include: true}})

	e, ok = b.Get("example.com")
	require.True(t, ok)
	require.False(t, e.IsBare())
	assert.Equal(t, 2, e.Map.Len())

	// "^lambda^$domain=~images.example.com"
	b.Add("filter3", []domainindex.DomainFlag{
		{Domain: "images.example.com", Include: false},
		{Domain: "", Include: true},
	})

	assert.Equal(t, 4, b.Size())

	e, ok = b.Get("")
	require.True(t, ok)
	assert.True(t, e.IsBare())
	assert.Equal(t, "filter3", e.Bare)

	e, ok = b.Get("images.example.com")
	require.True(t, ok)
	include, ok = e.Map.Get("filter3")
	require.True(t, ok)
	assert.False(t, include)

	// Remove filter1: www.example.com disappears, example.com collapses
	// back to bare(filter2).
	b.Remove("filter1", []domainindex.DomainFlag{
		{Domain: "example.com", Include: true},
		{Domain: "www.example.com", Include: false},
	})

	assert.False(t, b.Has("www.example.com"))

	e, ok = b.Get("example.com")
	require.True(t, ok)
	assert.True(t, e.IsBare())
	assert.Equal(t, "filter2", e.Bare)
}

func TestByDomain_RoundTrip(t *testing.T) {
	b := domainindex.New()

	domains := []domainindex.DomainFlag{
		{Domain: "a.com", Include: true},
		{Domain: "b.com", Include: false},
	}

	b.Add("f", domains)
	b.Add("f", domains)
	assert.Equal(t, 2, b.Size())

	b.Remove("f", domains)
	assert.Equal(t, 0, b.Size())
}

func TestByDomain_GenericDefault(t *testing.T) {
	b := domainindex.New()

	b.Add("f", nil)

	e, ok := b.Get("")
	require.True(t, ok)
	assert.True(t, e.IsBare())
	assert.Equal(t, "f", e.Bare)

	b.Remove("f", nil)
	assert.Equal(t, 0, b.Size())
}
