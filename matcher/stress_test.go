package matcher_test

import (
	"fmt"
	"os"
	"runtime"
	"testing"

	"github.com/AdguardTeam/urlfilter/matcher"
	"github.com/AdguardTeam/urlfilter/rules"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/require"
)

// alloc returns the heap and RSS memory sizes, in kibibytes.
func alloc(t *testing.T) (heap, rss uint64) {
	t.Helper()

	p, err := process.NewProcess(int32(os.Getpid()))
	require.NoError(t, err)

	mi, err := p.MemoryInfo()
	require.NoError(t, err)

	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)

	return ms.Alloc / 1024, mi.RSS / 1024
}

// TestMatcher_Stress builds a Matcher from a large synthetic corpus and
// reports the heap/RSS deltas incurred, as a smoke check that indexing tens
// of thousands of filters does not blow up memory use.
func TestMatcher_Stress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	startHeap, startRSS := alloc(t)
	t.Logf("before load: heap=%dKiB rss=%dKiB", startHeap, startRSS)

	const numFilters = 50_000

	m := matcher.New()
	for i := 0; i < numFilters; i++ {
		text := fmt.Sprintf("||domain%d.example^$domain=site%d.com", i, i%1_000)
		f, err := rules.FromText(text)
		require.NoError(t, err)

		m.Add(f)
	}

	require.Equal(t, numFilters, m.Len())

	loadHeap, loadRSS := alloc(t)
	t.Logf(
		"after load: heap=%dKiB (+%dKiB) rss=%dKiB (+%dKiB)",
		loadHeap, loadHeap-startHeap, loadRSS, loadRSS-startRSS,
	)

	for i := 0; i < 1_000; i++ {
		req := rules.NewURLRequest(fmt.Sprintf("https://domain%d.example/x", i), "", "")
		m.Match(req, rules.ResourceTypes, fmt.Sprintf("site%d.com", i%1_000), "", false)
	}

	matchHeap, matchRSS := alloc(t)
	t.Logf(
		"after match: heap=%dKiB (+%dKiB) rss=%dKiB (+%dKiB)",
		matchHeap, matchHeap-loadHeap, matchRSS, matchRSS-loadRSS,
	)
}
