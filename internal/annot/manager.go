package annot

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/google/uuid"

	"github.com/lewtec/partitura/internal/geom"
	"github.com/lewtec/partitura/internal/storage"
)

// FormatVersion is the current sidecar file version.
const FormatVersion = 2

// UndoDepth bounds the per-page undo history. Oldest snapshots beyond it
// are discarded silently.
const UndoDepth = 20

// fileFormat is the persisted sidecar container. Page indexes are string
// keys because JSON objects cannot have integer keys.
type fileFormat struct {
	Version   int                          `json:"version"`
	Rotations map[string]int               `json:"rotations"`
	Pages     map[string][]json.RawMessage `json:"pages"`
}

// Target is a drawn primitive eligible for erasing: the id of the
// annotation it was projected from and its on-screen bounds. Primitives
// with no annotation id (the page bitmap) are never passed as targets.
type Target struct {
	ID     string
	Bounds geom.Rect
}

// Manager owns the annotation set, rotation map and undo history of the
// currently open score. It is unbound until Load and again after Clear;
// mutating operations while unbound are no-ops. Every mutation persists
// immediately: durability over throughput.
type Manager struct {
	store     *storage.Store
	path      string
	pages     map[int][]Annotation
	rotations map[int]int
	undo      map[int][][]Annotation
}

// NewManager creates an unbound Manager persisting through store.
func NewManager(store *storage.Store) *Manager {
	return &Manager{store: store}
}

// Bound reports whether a score is currently loaded.
func (m *Manager) Bound() bool { return m.path != "" }

// Load binds the manager to the score at scorePath, replacing any previous
// document's state, and reads its sidecar. Both the current versioned
// format and the oldest flat page-to-items format are accepted; records
// that lacked an id get a fresh one and the store is re-saved immediately
// so ids stay stable across opens.
func (m *Manager) Load(scorePath string) {
	m.Clear()
	m.path = storage.SidecarPath(scorePath)
	m.pages = make(map[int][]Annotation)
	m.rotations = make(map[int]int)
	m.undo = make(map[int][][]Annotation)

	var raw map[string]json.RawMessage
	if !m.store.Load(m.path, &raw) {
		return
	}

	repaired := false
	if _, versioned := raw["version"]; versioned {
		var rotations map[string]int
		if msg, ok := raw["rotations"]; ok {
			if err := json.Unmarshal(msg, &rotations); err != nil {
				log.Printf("annot: skipping rotations of %s: %v", m.path, err)
			}
		}
		for key, degrees := range rotations {
			page, err := strconv.Atoi(key)
			if err != nil {
				log.Printf("annot: skipping rotation for page %q: %v", key, err)
				continue
			}
			if d := geom.NormalizeDegrees(degrees); d != 0 {
				m.rotations[page] = d
			}
		}

		var pages map[string][]json.RawMessage
		if msg, ok := raw["pages"]; ok {
			if err := json.Unmarshal(msg, &pages); err != nil {
				log.Printf("annot: skipping pages of %s: %v", m.path, err)
			}
		}
		repaired = m.loadPages(pages, false)
	} else {
		// Legacy unversioned layout: the whole document is the page map
		// and no record ever carried an id.
		pages := make(map[string][]json.RawMessage, len(raw))
		for key, msg := range raw {
			var items []json.RawMessage
			if err := json.Unmarshal(msg, &items); err != nil {
				log.Printf("annot: skipping legacy page %q of %s: %v", key, m.path, err)
				continue
			}
			pages[key] = items
		}
		repaired = m.loadPages(pages, true)
	}

	if repaired {
		m.Save()
	}
}

// loadPages fills m.pages from decoded sidecar page lists. When forceIDs
// is set every record receives a fresh id regardless of its content.
func (m *Manager) loadPages(pages map[string][]json.RawMessage, forceIDs bool) (repaired bool) {
	for key, items := range pages {
		page, err := strconv.Atoi(key)
		if err != nil {
			log.Printf("annot: skipping page %q of %s: %v", key, m.path, err)
			continue
		}
		list := make([]Annotation, 0, len(items))
		for _, item := range items {
			a, fixed, err := decode(item)
			if err != nil {
				log.Printf("annot: skipping record on page %d of %s: %v", page, m.path, err)
				continue
			}
			if forceIDs {
				switch a := a.(type) {
				case *Ink:
					a.ID = uuid.NewString()
				case *Text:
					a.ID = uuid.NewString()
				}
				fixed = true
			}
			if fixed {
				repaired = true
			}
			list = append(list, a)
		}
		if len(list) > 0 {
			m.pages[page] = list
		}
	}
	return repaired
}

// Save writes the current annotations and rotations to the sidecar. Only
// non-zero rotations are persisted. A failed save is already reported to
// the user by the store; the return value tells callers whether the data
// is durable.
func (m *Manager) Save() bool {
	if !m.Bound() {
		return false
	}
	out := fileFormat{
		Version:   FormatVersion,
		Rotations: make(map[string]int),
		Pages:     make(map[string][]json.RawMessage),
	}
	for page, degrees := range m.rotations {
		if degrees != 0 {
			out.Rotations[strconv.Itoa(page)] = degrees
		}
	}
	for page, list := range m.pages {
		records := make([]json.RawMessage, 0, len(list))
		for _, a := range list {
			rec, err := encode(a)
			if err != nil {
				log.Printf("annot: not persisting record on page %d: %v", page, err)
				continue
			}
			records = append(records, rec)
		}
		out.Pages[strconv.Itoa(page)] = records
	}
	return m.store.Save(m.path, out)
}

// Clear discards all in-memory state; called when the score is closed.
func (m *Manager) Clear() {
	m.path = ""
	m.pages = nil
	m.rotations = nil
	m.undo = nil
}

// Annotations returns the page's annotation list in z-order. The returned
// slice is the live list; callers must not mutate it.
func (m *Manager) Annotations(page int) []Annotation {
	return m.pages[page]
}

// Rotation returns the page's cumulative view rotation in degrees.
func (m *Manager) Rotation(page int) int {
	return m.rotations[page]
}

// snapshot pushes a deep copy of the page's current list onto its undo
// stack, dropping the oldest entry once the depth bound is reached.
func (m *Manager) snapshot(page int) {
	list := m.pages[page]
	copied := make([]Annotation, len(list))
	for i, a := range list {
		copied[i] = a.clone()
	}
	stack := m.undo[page]
	if len(stack) >= UndoDepth {
		stack = stack[1:]
	}
	m.undo[page] = append(stack, copied)
}

// Add appends a to the page, captures an undo snapshot of the prior list,
// and persists. a must carry a fresh id and coordinates normalized to the
// page's current view.
func (m *Manager) Add(page int, a Annotation) {
	if !m.Bound() {
		return
	}
	m.snapshot(page)
	m.pages[page] = append(m.pages[page], a)
	m.Save()
}

// EditText rewrites the content and styling of the text annotation with
// the given id, captures an undo snapshot first, persists, and reports
// whether the annotation was found. Ink annotations never match.
func (m *Manager) EditText(page int, id, text, font, color string, size int) bool {
	if !m.Bound() {
		return false
	}
	for _, a := range m.pages[page] {
		t, ok := a.(*Text)
		if !ok || t.ID != id {
			continue
		}
		m.snapshot(page)
		t.Text = text
		t.Font = font
		t.Color = color
		t.Size = size
		m.Save()
		return true
	}
	return false
}

// EraseNear removes the annotation behind the drawn primitive closest to
// pt within tolerance pixels, persists, and reports whether anything was
// removed. Targets carry only id-tagged primitives, so the page bitmap can
// never be matched.
func (m *Manager) EraseNear(page int, pt geom.Point, tolerance float64, targets []Target) bool {
	if !m.Bound() {
		return false
	}
	bestID := ""
	bestDist := tolerance
	for _, t := range targets {
		if t.ID == "" {
			continue
		}
		if d := t.Bounds.DistanceTo(pt); d <= bestDist {
			bestID, bestDist = t.ID, d
		}
	}
	if bestID == "" {
		return false
	}

	list := m.pages[page]
	for i, a := range list {
		if a.UUID() == bestID {
			m.snapshot(page)
			m.pages[page] = append(list[:i:i], list[i+1:]...)
			m.Save()
			return true
		}
	}
	return false
}

// Undo restores the page's most recent snapshot, persists, and reports
// whether an undo occurred. Undo with no history is a no-op.
func (m *Manager) Undo(page int) bool {
	if !m.Bound() {
		return false
	}
	stack := m.undo[page]
	if len(stack) == 0 {
		return false
	}
	m.pages[page] = stack[len(stack)-1]
	m.undo[page] = stack[:len(stack)-1]
	m.Save()
	return true
}

// RotatePage applies delta degrees of clockwise view rotation to the page:
// every stored point is rotated in place so annotations stay anchored to
// the same page content once the bitmap is re-rendered, and the page's
// cumulative rotation is advanced modulo 360. delta is reduced to quarter
// turns; a zero-step delta still persists nothing new but is harmless.
func (m *Manager) RotatePage(page, delta int) {
	if !m.Bound() {
		return
	}
	steps := geom.NormalizeDegrees(delta) / 90
	m.snapshot(page)
	for _, a := range m.pages[page] {
		a.rotate(steps)
	}
	if d := geom.NormalizeDegrees(m.rotations[page] + delta); d != 0 {
		m.rotations[page] = d
	} else {
		delete(m.rotations, page)
	}
	m.Save()
}
