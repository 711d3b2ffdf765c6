package index

import (
	"fmt"
	"strings"
)

// SearchMode selects how a filter query is anchored against cell text.
type SearchMode int

const (
	SearchAnywhere SearchMode = iota
	SearchStartsWith
	SearchEndsWith
	SearchExact
)

var searchModeNames = map[SearchMode]string{
	SearchAnywhere:   "anywhere",
	SearchStartsWith: "starts-with",
	SearchEndsWith:   "ends-with",
	SearchExact:      "exact",
}

func (m SearchMode) String() string {
	if s, ok := searchModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SearchMode(%d)", int(m))
}

// ParseSearchMode accepts the names printed by String; "" means anywhere.
func ParseSearchMode(s string) (SearchMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SearchAnywhere, nil
	}
	for m, name := range searchModeNames {
		if name == s {
			return m, nil
		}
	}
	return SearchAnywhere, fmt.Errorf("unknown search mode: %q (expected anywhere|starts-with|ends-with|exact)", s)
}

// Bounds returns whether the match is pinned to the start and/or end of the text.
func (m SearchMode) Bounds() (matchStart, matchEnd bool) {
	switch m {
	case SearchStartsWith:
		return true, false
	case SearchEndsWith:
		return false, true
	case SearchExact:
		return true, true
	}
	return false, false
}

// SearchModeFromBounds maps boundary flags back to a mode. It inverts Bounds
// except for a start-only bound, which maps to SearchAnywhere.
//
// TODO: confirm whether start-only should map to SearchStartsWith; until then
// the existing mapping is kept.
func SearchModeFromBounds(matchStart, matchEnd bool) SearchMode {
	switch {
	case matchStart && matchEnd:
		return SearchExact
	case matchEnd:
		return SearchEndsWith
	}
	return SearchAnywhere
}

// Match reports whether text matches query under m, ignoring case.
func (m SearchMode) Match(text, query string) bool {
	if query == "" {
		return true
	}
	text, query = strings.ToLower(text), strings.ToLower(query)
	switch m {
	case SearchStartsWith:
		return strings.HasPrefix(text, query)
	case SearchEndsWith:
		return strings.HasSuffix(text, query)
	case SearchExact:
		return text == query
	}
	return strings.Contains(text, query)
}
