// Package annot owns the in-memory annotation state of one open score:
// the per-page annotation lists, the per-page view rotations, and a
// bounded per-page undo history. All mutation goes through Manager;
// rendering code never touches the lists directly.
package annot

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lewtec/partitura/internal/geom"
)

// Annotation is a mark on a page. The set of implementations is closed:
// Ink and Text. Coordinates are normalized to the unrotated page's unit
// square.
type Annotation interface {
	// UUID returns the annotation's identifier, assigned at creation and
	// never reused.
	UUID() string

	// rotate applies n quarter turns clockwise to every stored point.
	rotate(n int)

	clone() Annotation
}

// Ink is a free-form pen stroke.
type Ink struct {
	ID     string
	Points []geom.Point
	Color  string
	Width  int
}

// Text is a positioned label.
type Text struct {
	ID     string
	Anchor geom.Point
	Text   string
	Font   string
	Color  string
	Size   int
}

// NewInk creates an ink stroke with a fresh identifier.
func NewInk(points []geom.Point, color string, width int) *Ink {
	return &Ink{ID: uuid.NewString(), Points: points, Color: color, Width: width}
}

// NewText creates a text label with a fresh identifier.
func NewText(anchor geom.Point, text, font, color string, size int) *Text {
	return &Text{ID: uuid.NewString(), Anchor: anchor, Text: text, Font: font, Color: color, Size: size}
}

func (a *Ink) UUID() string  { return a.ID }
func (a *Text) UUID() string { return a.ID }

func (a *Ink) rotate(n int) {
	for i, p := range a.Points {
		a.Points[i] = geom.RotatePoint(p, n*90)
	}
}

func (a *Text) rotate(n int) {
	a.Anchor = geom.RotatePoint(a.Anchor, n*90)
}

func (a *Ink) clone() Annotation {
	c := *a
	c.Points = make([]geom.Point, len(a.Points))
	copy(c.Points, a.Points)
	return &c
}

func (a *Text) clone() Annotation {
	c := *a
	return &c
}

// Wire records. The sidecar format stores ink points as [x, y] pairs and
// text anchors as flat x/y fields.

type inkRecord struct {
	UUID   string       `json:"uuid,omitempty"`
	Type   string       `json:"type"`
	Points [][2]float64 `json:"points"`
	Color  string       `json:"color"`
	Width  int          `json:"width"`
}

type textRecord struct {
	UUID  string  `json:"uuid,omitempty"`
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Font  string  `json:"font"`
	Color string  `json:"color"`
	Size  int     `json:"size"`
}

func encode(a Annotation) (json.RawMessage, error) {
	switch a := a.(type) {
	case *Ink:
		pts := make([][2]float64, len(a.Points))
		for i, p := range a.Points {
			pts[i] = [2]float64{p.X, p.Y}
		}
		return json.Marshal(inkRecord{UUID: a.ID, Type: "ink", Points: pts, Color: a.Color, Width: a.Width})
	case *Text:
		return json.Marshal(textRecord{
			UUID: a.ID, Type: "text",
			X: a.Anchor.X, Y: a.Anchor.Y,
			Text: a.Text, Font: a.Font, Color: a.Color, Size: a.Size,
		})
	default:
		return nil, fmt.Errorf("unknown annotation type %T", a)
	}
}

// decode parses one sidecar record. repaired reports whether the record
// lacked a uuid and received a fresh one.
func decode(raw json.RawMessage) (a Annotation, repaired bool, err error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, false, fmt.Errorf("while reading record header: %w", err)
	}

	switch head.Type {
	case "ink":
		var rec inkRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false, fmt.Errorf("while reading ink record: %w", err)
		}
		pts := make([]geom.Point, len(rec.Points))
		for i, p := range rec.Points {
			pts[i] = geom.Point{X: p[0], Y: p[1]}
		}
		ink := &Ink{ID: rec.UUID, Points: pts, Color: rec.Color, Width: rec.Width}
		if ink.ID == "" {
			ink.ID = uuid.NewString()
			repaired = true
		}
		return ink, repaired, nil
	case "text":
		var rec textRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false, fmt.Errorf("while reading text record: %w", err)
		}
		if rec.Text == "" {
			return nil, false, fmt.Errorf("text record without text")
		}
		txt := &Text{
			ID:     rec.UUID,
			Anchor: geom.Point{X: rec.X, Y: rec.Y},
			Text:   rec.Text, Font: rec.Font, Color: rec.Color, Size: rec.Size,
		}
		if txt.ID == "" {
			txt.ID = uuid.NewString()
			repaired = true
		}
		return txt, repaired, nil
	default:
		return nil, false, fmt.Errorf("unknown record type %q", head.Type)
	}
}
