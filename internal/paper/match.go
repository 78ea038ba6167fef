// ABOUTME: Match criteria for maintenance sweeps over the papers collection.
// ABOUTME: Substring containment on title and author, never equality.

package paper

import "strings"

// Matcher selects papers for a sweep. A paper matches when its title
// contains TitlePrefix or its author contains Author. Matching is
// case-sensitive substring containment: a title that carries the configured
// prefix anywhere, including with a trailing suffix like " (v2)", matches.
//
// An empty criterion disables that branch; a Matcher with both fields empty
// matches nothing. Without the guard, strings.Contains(s, "") would select
// every paper in the collection.
type Matcher struct {
	TitlePrefix string
	Author      string
}

// Empty reports whether no criteria are configured.
func (m Matcher) Empty() bool {
	return m.TitlePrefix == "" && m.Author == ""
}

// Match reports whether p satisfies at least one configured criterion.
func (m Matcher) Match(p Paper) bool {
	if m.TitlePrefix != "" && strings.Contains(p.Title, m.TitlePrefix) {
		return true
	}
	if m.Author != "" && strings.Contains(p.Author, m.Author) {
		return true
	}
	return false
}
