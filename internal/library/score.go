// Package library discovers PDF scores on disk, parses their filename
// metadata, and keeps a sqlite catalog so large libraries reopen without
// a full rescan.
package library

import (
	"path/filepath"
	"sort"
	"strings"
)

// Score is one discovered PDF with the metadata parsed from its name.
// The filename grammar is "Composer - Title -- tag1 tag2.pdf"; both the
// composer part and the tag part are optional. Directory components below
// the scan root contribute additional tags.
type Score struct {
	Path     string
	Filename string
	Composer string
	Title    string
	Tags     map[string]struct{}
}

// NewScore parses a score's metadata from its filename and folder tags.
func NewScore(path, filename string, folderTags []string) *Score {
	s := &Score{
		Path:     path,
		Filename: filename,
		Composer: "Unknown",
		Tags:     make(map[string]struct{}),
	}
	for _, t := range folderTags {
		if t != "" {
			s.Tags[t] = struct{}{}
		}
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if head, tagPart, ok := strings.Cut(base, " -- "); ok {
		base = head
		for _, t := range strings.Split(tagPart, " ") {
			if t != "" {
				s.Tags[t] = struct{}{}
			}
		}
	}
	if composer, title, ok := strings.Cut(base, " - "); ok {
		s.Composer = strings.TrimSpace(composer)
		s.Title = strings.TrimSpace(title)
	} else {
		s.Title = strings.TrimSpace(base)
	}
	return s
}

// HasTags reports whether every tag in subset is on the score.
func (s *Score) HasTags(subset map[string]struct{}) bool {
	for t := range subset {
		if _, ok := s.Tags[t]; !ok {
			return false
		}
	}
	return true
}

// TagList returns the score's tags sorted case-insensitively.
func (s *Score) TagList() []string {
	tags := make([]string, 0, len(s.Tags))
	for t := range s.Tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

// Sort orders scores by composer then title, or title then composer when
// titleFirst is set. Comparison is case-insensitive.
func Sort(scores []*Score, titleFirst bool) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		ac, bc := strings.ToLower(a.Composer), strings.ToLower(b.Composer)
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if titleFirst {
			if at != bt {
				return at < bt
			}
			return ac < bc
		}
		if ac != bc {
			return ac < bc
		}
		return at < bt
	})
}
