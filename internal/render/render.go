// Package render turns a page of the open score into a frame: the
// composited page bitmaps plus the page's annotations projected into
// device-space draw primitives. Rasterization itself is somebody else's
// job; this package only consumes it.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/lewtec/partitura/internal/annot"
	"github.com/lewtec/partitura/internal/geom"
	"github.com/lewtec/partitura/internal/layout"
)

// Rasterizer is the consumed PDF engine interface.
type Rasterizer interface {
	// PageCount returns the number of pages in the open document.
	PageCount() int
	// PageSize returns a page's intrinsic (unrotated) size.
	PageSize(page int) (width, height float64, err error)
	// RenderPage rasterizes a page at the given zoom and view rotation.
	RenderPage(page int, zoom float64, rotation int) (image.Image, error)
}

// Background is the viewport fill behind the pages.
var Background = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// musicalSymbols are text tokens that render at six times the normal
// label size, so a lone dynamic marking or note glyph reads from a music
// stand distance.
var musicalSymbols = map[string]bool{
	"\U0001D15E": true, // minim
	"♩": true, "♩.": true, "♪": true,
	"pp": true, "p": true, "mp": true, "mf": true, "f": true, "ff": true,
	"sfz": true, "cresc": true, "dim": true,
}

// LabelPixels returns the rendered font size for a text annotation:
// 12 + 4 per pen-size unit, multiplied by six for recognized musical
// symbol tokens.
func LabelPixels(text string, size int) int {
	px := 12 + size*4
	if musicalSymbols[strings.TrimSpace(text)] {
		px *= 6
	}
	return px
}

// Primitive is a drawable produced from one annotation. Every primitive
// carries its source annotation's id so hit-testing (erase, edit) can
// recover it.
type Primitive interface {
	AnnotationID() string
	Bounds() geom.Rect
}

// Polyline is an ink stroke in device pixels.
type Polyline struct {
	ID     string
	Points []geom.Point
	Color  string
	Width  int
}

func (p *Polyline) AnnotationID() string { return p.ID }

func (p *Polyline) Bounds() geom.Rect {
	if len(p.Points) == 0 {
		return geom.Rect{}
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Label is positioned text in device pixels, anchored at its left edge,
// vertically centered.
type Label struct {
	ID     string
	At     geom.Point
	Text   string
	Font   string
	Color  string
	Pixels int
}

func (l *Label) AnnotationID() string { return l.ID }

// Bounds approximates the label's extent from its font size; exact glyph
// metrics live in the GUI toolkit, and erase tolerance is generous enough
// that the approximation is fine.
func (l *Label) Bounds() geom.Rect {
	h := float64(l.Pixels)
	w := 0.6 * h * float64(len([]rune(l.Text)))
	return geom.Rect{X: l.At.X, Y: l.At.Y - h/2, W: w, H: h}
}

// Frame is one complete redraw: the composited background and the
// annotation primitives to draw over it, with the placements they were
// projected through.
type Frame struct {
	Background *image.RGBA
	Placements []layout.Placement
	Primitives []Primitive
}

// Targets converts a frame's primitives into erase candidates.
func (f *Frame) Targets() []annot.Target {
	targets := make([]annot.Target, 0, len(f.Primitives))
	for _, p := range f.Primitives {
		targets = append(targets, annot.Target{ID: p.AnnotationID(), Bounds: p.Bounds()})
	}
	return targets
}

// PlacementAt returns the placement under a device point, if any.
func (f *Frame) PlacementAt(pt geom.Point) (layout.Placement, bool) {
	for _, pl := range f.Placements {
		r := geom.Rect{X: float64(pl.X), Y: float64(pl.Y), W: pl.Width, H: pl.Height}
		if r.Contains(pt) {
			return pl, true
		}
	}
	return layout.Placement{}, false
}

// Coordinator orchestrates redraws for the open document.
type Coordinator struct {
	raster Rasterizer
	annots *annot.Manager
}

// NewCoordinator composes the rasterizer with the annotation manager.
func NewCoordinator(raster Rasterizer, annots *annot.Manager) *Coordinator {
	return &Coordinator{raster: raster, annots: annots}
}

// pageSize returns a page's size with its view rotation applied: a quarter
// turn swaps width and height.
func (c *Coordinator) pageSize(page int) layout.PageSize {
	w, h, err := c.raster.PageSize(page)
	if err != nil || w <= 0 || h <= 0 {
		// Keep the layout arithmetic finite; the rasterizer already
		// reported what went wrong with the document.
		w, h = 595, 842
	}
	if r := c.annots.Rotation(page); r == 90 || r == 270 {
		w, h = h, w
	}
	return layout.PageSize{Width: w, Height: h}
}

// Layout computes the current placements without rasterizing, for input
// handling between redraws.
func (c *Coordinator) Layout(page, viewportW, viewportH int, rangeEnd *int) []layout.Placement {
	return layout.Compute(layout.Request{
		Page:           page,
		PageCount:      c.raster.PageCount(),
		Size:           c.pageSize,
		Rotation:       c.annots.Rotation,
		ViewportWidth:  viewportW,
		ViewportHeight: viewportH,
		RangeEnd:       rangeEnd,
	})
}

// Redraw produces a full frame for the given page and viewport: placements
// from the layout engine, bitmaps from the rasterizer composited onto the
// background, and the pages' annotations projected into tagged primitives.
func (c *Coordinator) Redraw(page, viewportW, viewportH int, rangeEnd *int) (*Frame, error) {
	placements := c.Layout(page, viewportW, viewportH, rangeEnd)

	frame := &Frame{Placements: placements}
	if viewportW < 10 || viewportH < 10 {
		viewportW, viewportH = layout.FallbackWidth, layout.FallbackHeight
	}
	frame.Background = image.NewRGBA(image.Rect(0, 0, viewportW, viewportH))
	draw.Draw(frame.Background, frame.Background.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	for _, pl := range placements {
		bitmap, err := c.raster.RenderPage(pl.Page, pl.Zoom, pl.Rotation)
		if err != nil {
			return nil, fmt.Errorf("while rasterizing page %d: %w", pl.Page, err)
		}
		dst := image.Rect(pl.X, pl.Y, pl.X+int(pl.Width), pl.Y+int(pl.Height))
		if bitmap.Bounds().Dx() == dst.Dx() && bitmap.Bounds().Dy() == dst.Dy() {
			draw.Draw(frame.Background, dst, bitmap, bitmap.Bounds().Min, draw.Src)
		} else {
			// Rasterizers round to whole pixels; rescale when they
			// disagree with the placement rectangle.
			xdraw.ApproxBiLinear.Scale(frame.Background, dst, bitmap, bitmap.Bounds(), xdraw.Src, nil)
		}

		frame.Primitives = append(frame.Primitives, c.project(pl)...)
	}
	return frame, nil
}

// project maps one page's annotations through its placement rectangle into
// device-space primitives. The manager keeps stored coordinates in the
// page's current view orientation (RotatePage applies the same unit-square
// mapping the rasterizer applies to the bitmap), so projection is a plain
// affine map onto the placement.
func (c *Coordinator) project(pl layout.Placement) []Primitive {
	ox, oy := float64(pl.X), float64(pl.Y)

	var prims []Primitive
	for _, a := range c.annots.Annotations(pl.Page) {
		switch a := a.(type) {
		case *annot.Ink:
			if len(a.Points) < 2 {
				continue
			}
			pts := make([]geom.Point, len(a.Points))
			for i, p := range a.Points {
				x, y := geom.ToDevice(p.X, p.Y, ox, oy, pl.Width, pl.Height)
				pts[i] = geom.Point{X: x, Y: y}
			}
			prims = append(prims, &Polyline{ID: a.ID, Points: pts, Color: a.Color, Width: a.Width})
		case *annot.Text:
			x, y := geom.ToDevice(a.Anchor.X, a.Anchor.Y, ox, oy, pl.Width, pl.Height)
			prims = append(prims, &Label{
				ID:     a.ID,
				At:     geom.Point{X: x, Y: y},
				Text:   a.Text,
				Font:   a.Font,
				Color:  a.Color,
				Pixels: LabelPixels(a.Text, a.Size),
			})
		}
	}
	return prims
}
