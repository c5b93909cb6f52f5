// Package domainsuffix computes the ordered chain of domain suffixes of a
// host, most specific first, used to walk a domain-partitioned filter index
// from the most specific restriction down to the generic, everywhere-applies
// bucket.
package domainsuffix

import "strings"

// Suffixes returns host, then each progressively shorter suffix obtained by
// dropping the leading label ("www.a.b" -> "a.b" -> "b"), and finally "" if
// includeBlank is true.  An empty host with includeBlank yields only [""].
func Suffixes(host string, includeBlank bool) []string {
	if host == "" {
		if includeBlank {
			return []string{""}
		}

		return nil
	}

	suffixes := make([]string, 0, strings.Count(host, ".")+2)
	for h := host; ; {
		suffixes = append(suffixes, h)

		i := strings.IndexByte(h, '.')
		if i == -1 {
			break
		}

		h = h[i+1:]
	}

	if includeBlank {
		suffixes = append(suffixes, "")
	}

	return suffixes
}
