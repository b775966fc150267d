package library

import (
	"sort"
	"strings"
)

// Filter narrows the score list: a substring of the title, an exact
// composer, and a tag subset. Zero values mean "no constraint".
type Filter struct {
	Text     string
	Composer string
	Tags     map[string]struct{}
}

// Match reports whether s passes every active constraint.
func (f Filter) Match(s *Score) bool {
	if f.Text != "" && !strings.Contains(strings.ToLower(s.Title), strings.ToLower(f.Text)) {
		return false
	}
	if f.Composer != "" && s.Composer != f.Composer {
		return false
	}
	return s.HasTags(f.Tags)
}

// Apply returns the scores matching the filter, in their current order.
func (f Filter) Apply(scores []*Score) []*Score {
	var out []*Score
	for _, s := range scores {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Facets returns the composer and tag values still reachable under the
// filter, for the selection UI. Each facet ignores its own constraint:
// composers obey the text and tag constraints, tags obey the text and
// composer constraints, so picking a value never strands the user with an
// empty list they cannot back out of.
func (f Filter) Facets(scores []*Score) (composers, tags []string) {
	compSet := make(map[string]struct{})
	tagSet := make(map[string]struct{})
	text := strings.ToLower(f.Text)

	for _, s := range scores {
		textOK := text == "" || strings.Contains(strings.ToLower(s.Title), text)
		if !textOK {
			continue
		}
		if s.HasTags(f.Tags) {
			compSet[s.Composer] = struct{}{}
			if f.Composer == "" || s.Composer == f.Composer {
				for t := range s.Tags {
					tagSet[t] = struct{}{}
				}
			}
		}
	}

	for c := range compSet {
		composers = append(composers, c)
	}
	sort.Strings(composers)
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return composers, tags
}
