// Package storage persists structured data to JSON files with atomic
// replace semantics. Annotation and setlist data are irreplaceable user
// work; the target file must never be observed half-written, and a failed
// load must never overwrite what is on disk.
package storage

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
)

// Notifier delivers user-visible, non-fatal notifications. The GUI layer
// shows dialogs; the default just logs.
type Notifier interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LogNotifier reports notifications on the process log.
type LogNotifier struct{}

func (LogNotifier) Warnf(format string, args ...any)  { log.Printf("warning: "+format, args...) }
func (LogNotifier) Errorf(format string, args ...any) { log.Printf("error: "+format, args...) }

// Store loads and saves JSON documents on a billy filesystem.
type Store struct {
	fs     billy.Filesystem
	notify Notifier
}

// New creates a Store over fs. Failures that affect durability are reported
// through notify.
func New(fs billy.Filesystem, notify Notifier) *Store {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Store{fs: fs, notify: notify}
}

// NewOS creates a Store over the real filesystem.
func NewOS(notify Notifier) *Store {
	return New(osfs.New("/"), notify)
}

// Load decodes the JSON file at path into out and reports whether it did.
// A missing file is not an error: out is left unchanged and false is
// returned, so callers fall back to their zero value. A file that exists
// but fails to parse is reported as a warning, out is left unchanged, and
// the unparseable file stays untouched on disk.
func (s *Store) Load(path string, out any) bool {
	f, err := s.fs.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.notify.Warnf("while reading %s: %v", path, err)
		}
		return false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.notify.Warnf("while reading %s: %v", path, err)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.notify.Warnf("corrupted file %s: %v (keeping it untouched, starting empty)", path, err)
		return false
	}
	return true
}

// Save writes data as indented JSON to a temporary file in the target's
// directory, then atomically renames it onto path. On any failure the
// temporary file is removed, the error is reported through the notifier,
// and false is returned: the caller's in-memory state is then not durable.
func (s *Store) Save(path string, data any) bool {
	dir := filepath.ToSlash(filepath.Dir(path))
	// billy's osfs creates missing directories on file creation, which
	// would silently invent a location for user data. Refuse instead.
	if _, err := s.fs.Stat(dir); err != nil {
		s.notify.Errorf("while saving %s: directory %s does not exist: %v", path, dir, err)
		return false
	}

	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.notify.Errorf("while encoding %s: %v", path, err)
		return false
	}

	tmp, err := s.fs.TempFile(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		s.notify.Errorf("while saving %s: %v", path, err)
		return false
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		s.notify.Errorf("while saving %s: %v", path, err)
		return false
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		s.notify.Errorf("while saving %s: %v", path, err)
		return false
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		s.notify.Errorf("while saving %s: %v", path, err)
		return false
	}
	return true
}
