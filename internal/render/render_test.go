package render

import (
	"image"
	"math"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"

	"github.com/lewtec/partitura/internal/annot"
	"github.com/lewtec/partitura/internal/geom"
	"github.com/lewtec/partitura/internal/storage"
)

// fakeRasterizer renders flat gray pages of a fixed intrinsic size.
type fakeRasterizer struct {
	pages         int
	width, height float64
	rendered      []renderCall
}

type renderCall struct {
	page     int
	zoom     float64
	rotation int
}

func (f *fakeRasterizer) PageCount() int { return f.pages }

func (f *fakeRasterizer) PageSize(page int) (float64, float64, error) {
	return f.width, f.height, nil
}

func (f *fakeRasterizer) RenderPage(page int, zoom float64, rotation int) (image.Image, error) {
	f.rendered = append(f.rendered, renderCall{page, zoom, rotation})
	w, h := f.width, f.height
	if rotation == 90 || rotation == 270 {
		w, h = h, w
	}
	return image.NewRGBA(image.Rect(0, 0, int(w*zoom), int(h*zoom))), nil
}

func setupCoordinator(t *testing.T) (*Coordinator, *annot.Manager, *fakeRasterizer) {
	t.Helper()
	fs := memfs.New()
	if err := fs.MkdirAll("/music", 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	mgr := annot.NewManager(storage.New(fs, nil))
	mgr.Load("/music/score.pdf")
	raster := &fakeRasterizer{pages: 8, width: 595, height: 842}
	return NewCoordinator(raster, mgr), mgr, raster
}

func TestRedraw_BackgroundAndPlacements(t *testing.T) {
	c, _, raster := setupCoordinator(t)

	frame, err := c.Redraw(0, 1200, 900, nil)
	if err != nil {
		t.Fatalf("Redraw() error = %v", err)
	}
	if got := frame.Background.Bounds(); got.Dx() != 1200 || got.Dy() != 900 {
		t.Errorf("background is %v, want 1200x900", got)
	}
	if len(frame.Placements) == 0 {
		t.Fatal("no placements")
	}
	if len(raster.rendered) != len(frame.Placements) {
		t.Errorf("rasterized %d pages for %d placements", len(raster.rendered), len(frame.Placements))
	}
	for i, call := range raster.rendered {
		pl := frame.Placements[i]
		if call.page != pl.Page || math.Abs(call.zoom-pl.Zoom) > 1e-9 || call.rotation != pl.Rotation {
			t.Errorf("rasterizer call %+v does not match placement %+v", call, pl)
		}
	}
}

func TestRedraw_ProjectsAnnotations(t *testing.T) {
	c, mgr, _ := setupCoordinator(t)

	ink := annot.NewInk([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, "black", 2)
	text := annot.NewText(geom.Point{X: 0.5, Y: 0.5}, "mf", "Times", "red", 2)
	mgr.Add(0, ink)
	mgr.Add(0, text)

	frame, err := c.Redraw(0, 1200, 900, nil)
	if err != nil {
		t.Fatalf("Redraw() error = %v", err)
	}
	if len(frame.Primitives) != 2 {
		t.Fatalf("got %d primitives, want 2", len(frame.Primitives))
	}

	pl := frame.Placements[0]

	t.Run("polyline spans the placement rectangle", func(t *testing.T) {
		poly, ok := frame.Primitives[0].(*Polyline)
		if !ok {
			t.Fatalf("primitive 0 is %T, want *Polyline", frame.Primitives[0])
		}
		if poly.AnnotationID() != ink.UUID() {
			t.Error("polyline not tagged with its annotation id")
		}
		first, last := poly.Points[0], poly.Points[1]
		if math.Abs(first.X-float64(pl.X)) > 1e-9 || math.Abs(first.Y-float64(pl.Y)) > 1e-9 {
			t.Errorf("(0,0) projected to %v, want placement origin (%d, %d)", first, pl.X, pl.Y)
		}
		if math.Abs(last.X-(float64(pl.X)+pl.Width)) > 1e-9 {
			t.Errorf("(1,1) projected to x=%v, want %v", last.X, float64(pl.X)+pl.Width)
		}
	})

	t.Run("label lands at the placement center", func(t *testing.T) {
		label, ok := frame.Primitives[1].(*Label)
		if !ok {
			t.Fatalf("primitive 1 is %T, want *Label", frame.Primitives[1])
		}
		if label.AnnotationID() != text.UUID() {
			t.Error("label not tagged with its annotation id")
		}
		wantX := float64(pl.X) + 0.5*pl.Width
		if math.Abs(label.At.X-wantX) > 1e-9 {
			t.Errorf("label x = %v, want %v", label.At.X, wantX)
		}
	})
}

// Rotating a page re-renders the bitmap rotated and keeps annotations
// anchored: the stored points were rotated by the manager, so the
// projected primitive moves with the page content without any further
// transform.
func TestRedraw_RotatedPage(t *testing.T) {
	c, mgr, raster := setupCoordinator(t)

	mgr.Add(0, annot.NewInk([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, "black", 2))
	mgr.RotatePage(0, 90)

	frame, err := c.Redraw(0, 1200, 900, nil)
	if err != nil {
		t.Fatalf("Redraw() error = %v", err)
	}

	last := raster.rendered[len(raster.rendered)-1]
	if last.rotation != 90 {
		t.Errorf("rasterizer asked for rotation %d, want 90", last.rotation)
	}
	// The placement is landscape now.
	pl := frame.Placements[0]
	if pl.Width <= pl.Height {
		t.Errorf("rotated placement %vx%v is not landscape", pl.Width, pl.Height)
	}

	poly := frame.Primitives[0].(*Polyline)
	// (0,0) rotated 90° CW is (1,0): the stroke end that was at the page's
	// top-left now projects to the placement's top-right corner.
	first := poly.Points[0]
	if math.Abs(first.X-(float64(pl.X)+pl.Width)) > 1e-9 || math.Abs(first.Y-float64(pl.Y)) > 1e-9 {
		t.Errorf("rotated stroke start projected to %v, want placement top-right", first)
	}
}

func TestFrameTargetsAndHitTesting(t *testing.T) {
	c, mgr, _ := setupCoordinator(t)
	mgr.Add(0, annot.NewText(geom.Point{X: 0.5, Y: 0.5}, "cresc", "Arial", "black", 2))

	frame, err := c.Redraw(0, 1200, 900, nil)
	if err != nil {
		t.Fatalf("Redraw() error = %v", err)
	}

	targets := frame.Targets()
	if len(targets) != 1 {
		t.Fatalf("got %d targets, want 1", len(targets))
	}
	if targets[0].ID == "" {
		t.Error("target has no annotation id")
	}

	t.Run("placement lookup", func(t *testing.T) {
		pl := frame.Placements[0]
		inside := geom.Point{X: float64(pl.X) + 5, Y: float64(pl.Y) + 5}
		if _, ok := frame.PlacementAt(inside); !ok {
			t.Error("PlacementAt missed a point inside the page")
		}
		if _, ok := frame.PlacementAt(geom.Point{X: 1, Y: 1}); ok {
			t.Error("PlacementAt matched the viewport margin")
		}
	})
}

func TestLabelPixels(t *testing.T) {
	cases := []struct {
		text string
		size int
		want int
	}{
		{"fingering", 2, 20},
		{"fingering", 0, 12},
		{"mf", 2, 120},
		{" mf ", 2, 120}, // surrounding space still matches the token
		{"♩", 1, 96},
		{"cresc", 3, 144},
		{"crescendo", 3, 24},
	}
	for _, c := range cases {
		if got := LabelPixels(c.text, c.size); got != c.want {
			t.Errorf("LabelPixels(%q, %d) = %d, want %d", c.text, c.size, got, c.want)
		}
	}
}
