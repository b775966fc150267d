package library

import (
	"io/fs"
	"log"
	"path/filepath"
	"strings"
)

// Scan walks root recursively and returns a Score for every PDF found.
// Directory components between root and the file become tags. Unreadable
// subtrees are logged and skipped; a score library often spans removable
// or network storage and one dead mount must not hide the rest.
func Scan(root string) ([]*Score, error) {
	var scores []*Score
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("library: skipping %s: %v", path, err)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			rel = "."
		}
		var folderTags []string
		if rel != "." {
			folderTags = strings.Split(filepath.ToSlash(rel), "/")
		}
		scores = append(scores, NewScore(path, entry.Name(), folderTags))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}
