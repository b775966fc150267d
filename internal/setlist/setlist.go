// Package setlist manages named performance lists: ordered score entries
// with an optional page range. Setlists live in one JSON file in the
// application directory, saved through the atomic store like every other
// piece of user data.
package setlist

import (
	"sort"

	"github.com/lewtec/partitura/internal/storage"
)

// Entry is one score in a setlist. Path is stored in portable
// forward-slash form; pages are 1-based as shown to the user. A nil
// EndPage means "to the end of the score".
type Entry struct {
	Path      string `json:"path"`
	StartPage int    `json:"start_page"`
	EndPage   *int   `json:"end_page"`
}

// NativePath resolves the entry's stored path for filesystem calls.
func (e Entry) NativePath() string {
	return storage.NormalizePath(e.Path)
}

// PlayRange converts the entry's pages to zero-based indexes for layout
// and navigation. end is nil when the entry runs to the end of the score.
func (e Entry) PlayRange() (start int, end *int) {
	start = e.StartPage - 1
	if start < 0 {
		start = 0
	}
	if e.EndPage != nil {
		last := *e.EndPage - 1
		end = &last
	}
	return start, end
}

// Manager owns the setlist collection and persists it on every mutation.
type Manager struct {
	store *storage.Store
	path  string
	lists map[string][]Entry
}

// NewManager creates a Manager persisting to path through store.
func NewManager(store *storage.Store, path string) *Manager {
	return &Manager{store: store, path: path, lists: make(map[string][]Entry)}
}

// Load reads the setlist file. A missing or unreadable file leaves an
// empty collection; the store has already told the user about corruption.
func (m *Manager) Load() {
	m.lists = make(map[string][]Entry)
	m.store.Load(m.path, &m.lists)
}

// Save persists the collection and reports durability.
func (m *Manager) Save() bool {
	return m.store.Save(m.path, m.lists)
}

// Names returns the setlist names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.lists))
	for name := range m.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a setlist's entries in order.
func (m *Manager) Entries(name string) []Entry {
	return m.lists[name]
}

// Append adds an entry to a setlist, creating the list if needed, and
// persists. The entry's path is normalized to portable form on the way in.
func (m *Manager) Append(name string, e Entry) {
	e.Path = storage.PortablePath(e.Path)
	m.lists[name] = append(m.lists[name], e)
	m.Save()
}

// RemoveEntry deletes the i-th entry of a setlist and persists. An index
// out of range is a no-op.
func (m *Manager) RemoveEntry(name string, i int) {
	entries := m.lists[name]
	if i < 0 || i >= len(entries) {
		return
	}
	m.lists[name] = append(entries[:i:i], entries[i+1:]...)
	m.Save()
}

// Delete removes a whole setlist and persists.
func (m *Manager) Delete(name string) {
	delete(m.lists, name)
	m.Save()
}
