package layout

import (
	"math"
	"testing"
)

// a4 is a portrait page in PDF points.
var a4 = PageSize{Width: 595, Height: 842}

func uniformRequest(pages int, vw, vh int) Request {
	return Request{
		Page:           0,
		PageCount:      pages,
		Size:           func(int) PageSize { return a4 },
		Rotation:       func(int) int { return 0 },
		ViewportWidth:  vw,
		ViewportHeight: vh,
	}
}

func TestCompute_SinglePageBestFit(t *testing.T) {
	t.Run("height-bound viewport", func(t *testing.T) {
		// Narrow window: width limits the zoom.
		req := uniformRequest(1, 400, 2000)
		got := Compute(req)
		if len(got) != 1 {
			t.Fatalf("got %d placements, want 1", len(got))
		}
		wantZoom := 400.0 / a4.Width
		if math.Abs(got[0].Zoom-wantZoom) > 1e-9 {
			t.Errorf("zoom = %v, want %v", got[0].Zoom, wantZoom)
		}
		if got[0].Width > 400 || got[0].Height > 2000 {
			t.Errorf("page %vx%v does not fit the viewport", got[0].Width, got[0].Height)
		}
	})

	t.Run("whole page always visible, never cropped", func(t *testing.T) {
		for _, vp := range [][2]int{{300, 300}, {1200, 900}, {2000, 500}} {
			got := Compute(uniformRequest(1, vp[0], vp[1]))[0]
			if got.Width > float64(vp[0])+1e-9 || got.Height > float64(vp[1])+1e-9 {
				t.Errorf("viewport %v: page %vx%v cropped", vp, got.Width, got.Height)
			}
		}
	})

	t.Run("centered on both axes", func(t *testing.T) {
		got := Compute(uniformRequest(1, 1200, 900))[0]
		wantX := (1200 - int(got.Width)) / 2
		wantY := (900 - int(got.Height)) / 2
		if got.X != wantX || got.Y != wantY {
			t.Errorf("origin = (%d, %d), want (%d, %d)", got.X, got.Y, wantX, wantY)
		}
	})
}

func TestCompute_DualPage(t *testing.T) {
	t.Run("two pages fit side by side in a wide viewport", func(t *testing.T) {
		got := Compute(uniformRequest(10, 2000, 900))
		if !Dual(got) {
			t.Fatal("expected dual-page mode")
		}
		if got[0].Page != 0 || got[1].Page != 1 {
			t.Errorf("pages = %d, %d, want 0, 1", got[0].Page, got[1].Page)
		}
		// Both at fit-height zoom.
		wantZoom := 900.0 / a4.Height
		for _, p := range got {
			if math.Abs(p.Zoom-wantZoom) > 1e-9 {
				t.Errorf("page %d zoom = %v, want fit-height %v", p.Page, p.Zoom, wantZoom)
			}
		}
		if gap := got[1].X - (got[0].X + int(got[0].Width)); gap != PageGap {
			t.Errorf("gap between pages = %d, want %d", gap, PageGap)
		}
	})

	t.Run("no dual mode when the spread does not fit", func(t *testing.T) {
		got := Compute(uniformRequest(10, 900, 900))
		if Dual(got) {
			t.Error("dual-page mode selected in a narrow viewport")
		}
	})

	t.Run("no dual mode on the last page", func(t *testing.T) {
		req := uniformRequest(3, 2000, 900)
		req.Page = 2
		if got := Compute(req); Dual(got) {
			t.Error("dual-page mode selected with no next page")
		}
	})

	t.Run("play range caps the spread", func(t *testing.T) {
		req := uniformRequest(10, 2000, 900)
		req.Page = 4
		end := 4
		req.RangeEnd = &end
		if got := Compute(req); Dual(got) {
			t.Error("dual-page mode reached past the play range")
		}
		end = 5
		if got := Compute(req); !Dual(got) {
			t.Error("dual-page mode refused inside the play range")
		}
	})

	t.Run("rotated next page uses its swapped size", func(t *testing.T) {
		// Page 1 rotated 90°: landscape, wider but shorter.
		req := uniformRequest(10, 2000, 900)
		req.Size = func(page int) PageSize {
			if page == 1 {
				return PageSize{Width: a4.Height, Height: a4.Width}
			}
			return a4
		}
		req.Rotation = func(page int) int {
			if page == 1 {
				return 90
			}
			return 0
		}
		got := Compute(req)
		if !Dual(got) {
			t.Fatal("expected dual-page mode")
		}
		if got[1].Rotation != 90 {
			t.Errorf("placement rotation = %d, want 90", got[1].Rotation)
		}
		if got[1].Width <= got[0].Width {
			t.Error("rotated page should be wider at equal zoom")
		}
	})
}

func TestCompute_DegenerateViewport(t *testing.T) {
	for _, vp := range [][2]int{{0, 0}, {-5, 600}, {800, 1}} {
		got := Compute(uniformRequest(1, vp[0], vp[1]))
		if len(got) != 1 {
			t.Fatalf("viewport %v: got %d placements", vp, len(got))
		}
		if got[0].Width <= 0 || got[0].Height <= 0 {
			t.Errorf("viewport %v produced a degenerate rect %vx%v", vp, got[0].Width, got[0].Height)
		}
		if got[0].Width > FallbackWidth || got[0].Height > FallbackHeight {
			t.Errorf("viewport %v did not fall back to %dx%d", vp, FallbackWidth, FallbackHeight)
		}
	}
}
