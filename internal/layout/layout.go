// Package layout computes where rendered page bitmaps sit inside the
// viewport. It is pure arithmetic: page sizes and the viewport go in,
// placement rectangles come out, and the render side does the drawing.
package layout

// PageGap is the fixed pixel separation between the two pages of a
// side-by-side spread.
const PageGap = 4

// Fallback dimensions used when the viewport has not been realized yet
// (a zero or negative size during window construction).
const (
	FallbackWidth  = 1200
	FallbackHeight = 850
)

// PageSize is a page's intrinsic size with its view rotation already
// applied: width and height are swapped for 90 and 270 degree rotations.
type PageSize struct {
	Width, Height float64
}

// Request describes one layout computation.
type Request struct {
	Page      int
	PageCount int
	// Size returns the rotation-adjusted intrinsic size of a page.
	Size func(page int) PageSize
	// Rotation returns a page's current view rotation in degrees.
	Rotation func(page int) int
	// Viewport size in pixels.
	ViewportWidth, ViewportHeight int
	// RangeEnd, when non-nil, is the last page of the active play range;
	// dual-page mode never reaches past it.
	RangeEnd *int
}

// Placement is the pixel rectangle one page occupies, plus the zoom and
// rotation the rasterizer must render it with.
type Placement struct {
	Page     int
	X, Y     int
	Width    float64
	Height   float64
	Zoom     float64
	Rotation int
}

// Compute returns the placement of the current page, or of the current
// page and the next one when a side-by-side spread fits. Pages are
// centered in the viewport on both axes at integer pixel offsets; single
// pages use best-fit zoom so the whole page is always visible.
func Compute(req Request) []Placement {
	vw, vh := float64(req.ViewportWidth), float64(req.ViewportHeight)
	if vw < 10 || vh < 10 {
		vw, vh = FallbackWidth, FallbackHeight
	}

	size := req.Size(req.Page)
	zoomFitHeight := vh / size.Height

	if next := req.Page + 1; next < req.PageCount && withinRange(next, req.RangeEnd) {
		nextSize := req.Size(next)
		w1 := size.Width * zoomFitHeight
		w2 := nextSize.Width * zoomFitHeight
		if w1+w2+PageGap <= vw {
			h1 := size.Height * zoomFitHeight
			h2 := nextSize.Height * zoomFitHeight
			totalW := w1 + w2 + PageGap
			maxH := h1
			if h2 > maxH {
				maxH = h2
			}
			x := (int(vw) - int(totalW)) / 2
			y := (int(vh) - int(maxH)) / 2
			return []Placement{
				{Page: req.Page, X: x, Y: y, Width: w1, Height: h1, Zoom: zoomFitHeight, Rotation: req.Rotation(req.Page)},
				{Page: next, X: x + int(w1) + PageGap, Y: y, Width: w2, Height: h2, Zoom: zoomFitHeight, Rotation: req.Rotation(next)},
			}
		}
	}

	zoom := vw / size.Width
	if zoomFitHeight < zoom {
		zoom = zoomFitHeight
	}
	w := size.Width * zoom
	h := size.Height * zoom
	return []Placement{{
		Page:     req.Page,
		X:        (int(vw) - int(w)) / 2,
		Y:        (int(vh) - int(h)) / 2,
		Width:    w,
		Height:   h,
		Zoom:     zoom,
		Rotation: req.Rotation(req.Page),
	}}
}

// Dual reports whether placements describe a side-by-side spread.
func Dual(placements []Placement) bool {
	return len(placements) == 2
}

func withinRange(page int, end *int) bool {
	return end == nil || page <= *end
}
