package rules

import (
	"sort"
	"strings"
)

// Kind discriminates the family a Filter belongs to.  Only Blocking and
// Whitelist filters are consulted by the URL matcher; the rest are carried
// through so that the library surfaces them to an element-hiding or
// snippet-execution collaborator, which this module does not implement.
type Kind uint8

// Kind enumeration.
const (
	KindInvalid Kind = iota
	KindComment
	KindBlocking
	KindWhitelist
	KindElemHide
	KindElemHideException
	KindElemHideEmulation
	KindSnippet
)

// String returns a human-readable name, mostly for logging.
func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindBlocking:
		return "blocking"
	case KindWhitelist:
		return "whitelist"
	case KindElemHide:
		return "elemhide"
	case KindElemHideException:
		return "elemhide-exception"
	case KindElemHideEmulation:
		return "elemhide-emulation"
	case KindSnippet:
		return "snippet"
	default:
		return "invalid"
	}
}

// cosmeticMarkers are the markers that distinguish a cosmetic (non-network)
// rule from a network filter, longest first so that e.g. "#@#" is checked
// before "##".
var cosmeticMarkers []string

func init() {
	cosmeticMarkers = []string{
		"$$", "$@$",
		"#%#", "#@%#",
		"##", "#@#",
		"#$#", "#@$#",
		"#?#", "#@?#",
		"#$?#", "#@$?#",
	}
	sort.Sort(sort.Reverse(byLength(cosmeticMarkers)))
}

// isComment reports whether line is a comment line.
func isComment(line string) bool {
	if line == "" {
		return false
	}

	if line[0] == '!' {
		return true
	}

	if line[0] == '#' {
		if len(line) == 1 {
			return true
		}

		for _, marker := range cosmeticMarkers {
			if startsAtIndexWith(line, 0, marker) {
				return false
			}
		}

		return true
	}

	return false
}

// findCosmeticMarker looks for a cosmetic rule marker starting with
// firstMarkerChar in line, returning the marker found or "" if line is not a
// cosmetic rule.
func findCosmeticMarker(line string, firstMarkerChar byte) string {
	startIndex := strings.IndexByte(line, firstMarkerChar)
	if startIndex == -1 {
		return ""
	}

	for _, marker := range cosmeticMarkers {
		if startsAtIndexWith(line, startIndex, marker) {
			return marker
		}
	}

	return ""
}

// startsAtIndexWith checks if str starts with substr at the given index.
func startsAtIndexWith(str string, startIndex int, substr string) bool {
	if len(str)-startIndex < len(substr) {
		return false
	}

	for i := 0; i < len(substr); i++ {
		if str[startIndex+i] != substr[i] {
			return false
		}
	}

	return true
}

// cosmeticKind maps a cosmetic marker to the Kind it denotes.
func cosmeticKind(marker string) Kind {
	if strings.Contains(marker, "@") {
		return KindElemHideException
	}

	switch marker {
	case "##":
		return KindElemHide
	case "#%#":
		return KindSnippet
	default:
		// "#?#", "#$?#", "#$#", "$$": ExtCSS hiding, CSS injection, and HTML
		// filtering rules all carry a selector/payload this module does not
		// interpret; classify them as elemhide-emulation.
		return KindElemHideEmulation
	}
}

// classifyLine determines whether line is a comment, a cosmetic rule (and
// which Kind), or a network filter (kind is KindInvalid, meaning "go parse
// it as a network filter").
func classifyLine(line string) (kind Kind, isCosmetic bool) {
	if isComment(line) {
		return KindComment, false
	}

	if marker := findCosmeticMarker(line, '#'); marker != "" {
		return cosmeticKind(marker), true
	}

	if marker := findCosmeticMarker(line, '$'); marker != "" {
		return cosmeticKind(marker), true
	}

	return KindInvalid, false
}
