package rules

import (
	"sync"

	"github.com/AdguardTeam/urlfilter/internal/lru"
)

// memoCapacity bounds the shared FromText memo.  Filter lists commonly
// repeat the same line across sources (aggregated allow-lists, duplicate
// subscriptions); memoizing parse results avoids re-parsing them.
const memoCapacity = 10_000

var (
	memoMu sync.Mutex
	memo   = lru.New[string, memoEntry](memoCapacity)
)

type memoEntry struct {
	filter *Filter
	err    error
}

// FromText parses text into a Filter, consulting a shared memo keyed on the
// exact text so that repeated lines across filter lists are parsed once.
// The returned *Filter is immutable and safe to share across callers.
func FromText(text string) (*Filter, error) {
	memoMu.Lock()
	if e, ok := memo.Get(text); ok {
		memoMu.Unlock()

		return e.filter, e.err
	}
	memoMu.Unlock()

	f, err := newFilter(text)

	memoMu.Lock()
	memo.Add(text, memoEntry{filter: f, err: err})
	memoMu.Unlock()

	return f, err
}
