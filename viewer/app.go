package viewer

import (
	"context"
	"log"
	"time"

	"github.com/lewtec/partitura/internal/annot"
	"github.com/lewtec/partitura/internal/geom"
	"github.com/lewtec/partitura/internal/library"
	"github.com/lewtec/partitura/internal/render"
	"github.com/lewtec/partitura/internal/setlist"
	"github.com/lewtec/partitura/internal/storage"
)

// Tool is the active pointer tool.
type Tool int

const (
	ToolNavigate Tool = iota
	ToolPen
	ToolText
	ToolEraser
)

// Interaction is the current tool context: which tool is armed and the
// styling new annotations receive. It is a plain value handed around
// explicitly rather than read from widget state.
type Interaction struct {
	Tool    Tool
	Color   string
	PenSize int
	Font    string
}

// PointerKind distinguishes the phases of a pointer gesture.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerDrag
	PointerUp
)

// PointerEvent is a pointer gesture phase at a viewport position.
type PointerEvent struct {
	Kind PointerKind
	At   geom.Point
}

// Key is a recognized keyboard command.
type Key int

const (
	KeyUndo Key = iota
	KeyRotateCW
	KeyRotateCCW
	KeyNextPage
	KeyPrevPage
	KeyFirstPage
	KeyLastPage
)

// KeyEvent is a keyboard command.
type KeyEvent struct {
	Key Key
}

// ResizeEvent reports a new viewport size.
type ResizeEvent struct {
	Width, Height int
}

// Notifier carries user-visible warnings and errors; the store and the
// app share one.
type Notifier = storage.Notifier

// Surface is the drawing side of the GUI frontend. Present hands it a
// finished frame; ScoreClosed tells it to drop back to the library view.
type Surface interface {
	Present(frame *render.Frame)
	ScoreClosed()
}

// TextDraft is the content exchanged with the text prompt.
type TextDraft struct {
	Text string
}

// TextPrompt asks the user for label text. It blocks the logic goroutine,
// the same way a modal dialog blocks the GUI; ok is false on cancel.
type TextPrompt interface {
	EditText(initial TextDraft) (draft TextDraft, ok bool)
}

// DocumentOpener opens the score at path and returns its rasterizer.
type DocumentOpener func(path string) (render.Rasterizer, error)

// App is the application logic loop. All state below is owned by the
// single goroutine running Run; frontends talk to it through Post and the
// collaborator interfaces.
type App struct {
	cfg     Config
	notify  storage.Notifier
	annots  *annot.Manager
	opener  DocumentOpener
	surface Surface
	prompt  TextPrompt

	events chan any
	scans  chan []*library.Score

	scores      []*library.Score
	interaction Interaction

	raster    render.Rasterizer
	coord     *render.Coordinator
	frame     *render.Frame
	page      int
	playStart int
	playEnd   *int

	viewportW, viewportH int
	pendingW, pendingH   int

	stroke []geom.Point
}

// NewApp assembles the loop around its collaborators. store persists
// annotation sidecars; opener, surface and prompt come from the frontend.
func NewApp(cfg Config, store *storage.Store, opener DocumentOpener, surface Surface, prompt TextPrompt, notify storage.Notifier) *App {
	if notify == nil {
		notify = storage.LogNotifier{}
	}
	return &App{
		cfg:     cfg,
		notify:  notify,
		annots:  annot.NewManager(store),
		opener:  opener,
		surface: surface,
		prompt:  prompt,
		events:  make(chan any, 16),
		scans:   make(chan []*library.Score, 1),
		interaction: Interaction{
			Tool:    ToolNavigate,
			Color:   cfg.PenColors[0],
			PenSize: cfg.DefaultPenSize,
			Font:    cfg.DefaultFont,
		},
		viewportW: cfg.WindowWidth,
		viewportH: cfg.WindowHeight,
	}
}

// Post queues an event for the logic goroutine.
func (a *App) Post(ev any) {
	a.events <- ev
}

// StartScan walks the library root on its own goroutine and delivers the
// result back through the event loop, so scanning a slow disk never
// freezes input handling.
func (a *App) StartScan() {
	root := a.cfg.ScanDir
	go func() {
		scores, err := library.Scan(root)
		if err != nil {
			a.notify.Warnf("could not scan %s: %v", root, err)
			return
		}
		a.scans <- scores
	}()
}

// Run dispatches events until ctx is cancelled. Resize events are
// debounced: re-rendering every page on every step of an interactive
// resize would saturate the rasterizer, so only the settled size is
// rendered.
func (a *App) Run(ctx context.Context) {
	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			a.CloseScore()
			return
		case scores := <-a.scans:
			a.setScores(scores)
		case <-debounce.C:
			a.applyResize()
		case ev := <-a.events:
			if r, ok := ev.(ResizeEvent); ok {
				a.pendingW, a.pendingH = r.Width, r.Height
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				if d := a.cfg.ResizeDebounce(); d > 0 {
					debounce.Reset(d)
				} else {
					a.applyResize()
				}
				continue
			}
			a.dispatch(ev)
		}
	}
}

func (a *App) dispatch(ev any) {
	switch ev := ev.(type) {
	case PointerEvent:
		a.handlePointer(ev)
	case KeyEvent:
		a.handleKey(ev)
	default:
		log.Printf("viewer: dropping unknown event %T", ev)
	}
}

func (a *App) setScores(scores []*library.Score) {
	library.Sort(scores, a.cfg.SortByTitle)
	a.scores = scores
	log.Printf("viewer: library scan found %d scores", len(scores))
}

// Scores returns the scanned library, sorted per the configuration.
func (a *App) Scores() []*library.Score {
	return a.scores
}

// SetInteraction switches the active tool context. An in-flight pen
// stroke is abandoned.
func (a *App) SetInteraction(in Interaction) {
	a.interaction = in
	a.stroke = nil
}

// Interaction returns the current tool context.
func (a *App) Interaction() Interaction {
	return a.interaction
}

// OpenScore opens the score at path with no play range.
func (a *App) OpenScore(path string) error {
	return a.openRange(path, 0, nil)
}

// OpenEntry opens a setlist entry, honoring its play range.
func (a *App) OpenEntry(e setlist.Entry) error {
	start, end := e.PlayRange()
	return a.openRange(e.NativePath(), start, end)
}

func (a *App) openRange(path string, start int, end *int) error {
	raster, err := a.opener(path)
	if err != nil {
		a.notify.Errorf("could not open %s: %v", path, err)
		return err
	}
	a.CloseScore()
	a.raster = raster
	a.annots.Load(path)
	a.coord = render.NewCoordinator(raster, a.annots)
	a.playStart, a.playEnd = start, end
	if last := raster.PageCount() - 1; a.playStart > last {
		a.playStart = last
	}
	a.page = a.playStart
	a.redraw()
	return nil
}

// CloseScore drops the open document and its in-memory annotation state.
func (a *App) CloseScore() {
	if a.raster == nil {
		return
	}
	a.annots.Clear()
	a.raster = nil
	a.coord = nil
	a.frame = nil
	a.stroke = nil
	a.surface.ScoreClosed()
}

// Page returns the current left page index.
func (a *App) Page() int {
	return a.page
}

func (a *App) lastPage() int {
	last := a.raster.PageCount() - 1
	if a.playEnd != nil && *a.playEnd < last {
		last = *a.playEnd
	}
	return last
}

// step is how far next/previous moves: two pages in dual layout so the
// reader never sees the same page twice.
func (a *App) step() int {
	if a.frame != nil && len(a.frame.Placements) == 2 {
		return 2
	}
	return 1
}

func (a *App) goToPage(page int) {
	if a.raster == nil {
		return
	}
	if page < a.playStart {
		page = a.playStart
	}
	if last := a.lastPage(); page > last {
		page = last
	}
	if page == a.page {
		return
	}
	a.page = page
	a.redraw()
}

// NextPage advances by the current layout step.
func (a *App) NextPage() { a.goToPage(a.page + a.step()) }

// PrevPage goes back by the current layout step.
func (a *App) PrevPage() { a.goToPage(a.page - a.step()) }

func (a *App) handleKey(ev KeyEvent) {
	if a.raster == nil {
		return
	}
	switch ev.Key {
	case KeyUndo:
		if a.annots.Undo(a.page) {
			a.redraw()
		}
	case KeyRotateCW:
		a.annots.RotatePage(a.page, 90)
		a.redraw()
	case KeyRotateCCW:
		a.annots.RotatePage(a.page, -90)
		a.redraw()
	case KeyNextPage:
		a.NextPage()
	case KeyPrevPage:
		a.PrevPage()
	case KeyFirstPage:
		a.goToPage(a.playStart)
	case KeyLastPage:
		a.goToPage(a.lastPage())
	}
}

func (a *App) handlePointer(ev PointerEvent) {
	if a.raster == nil || a.frame == nil {
		return
	}
	switch a.interaction.Tool {
	case ToolNavigate:
		if ev.Kind == PointerDown {
			a.navigateTap(ev.At)
		}
	case ToolPen:
		a.penGesture(ev)
	case ToolText:
		if ev.Kind == PointerDown {
			a.textTap(ev.At)
		}
	case ToolEraser:
		if ev.Kind == PointerDown || ev.Kind == PointerDrag {
			a.erase(ev.At)
		}
	}
}

// navigateTap implements the page-turn zones: the top strip closes the
// score, the left half goes back, the right half goes forward.
func (a *App) navigateTap(pt geom.Point) {
	if pt.Y < 0.15*float64(a.viewportH) {
		a.CloseScore()
		return
	}
	if pt.X < float64(a.viewportW)/2 {
		a.PrevPage()
	} else {
		a.NextPage()
	}
}

func (a *App) penGesture(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		a.stroke = []geom.Point{ev.At}
	case PointerDrag:
		if a.stroke != nil {
			a.stroke = append(a.stroke, ev.At)
		}
	case PointerUp:
		stroke := a.stroke
		a.stroke = nil
		if len(stroke) < 2 {
			return
		}
		pl, ok := a.frame.PlacementAt(stroke[0])
		if !ok {
			return
		}
		pts := make([]geom.Point, len(stroke))
		for i, p := range stroke {
			nx, ny := geom.ToNormalized(p.X, p.Y, float64(pl.X), float64(pl.Y), pl.Width, pl.Height)
			pts[i] = geom.Point{X: nx, Y: ny}
		}
		a.annots.Add(pl.Page, annot.NewInk(pts, a.interaction.Color, a.interaction.PenSize))
		a.redraw()
	}
}

// CurrentStroke is the in-progress pen stroke in device pixels, for the
// frontend to preview while the pointer is down. Nil when no stroke is
// being drawn.
func (a *App) CurrentStroke() []geom.Point {
	return a.stroke
}

// textTap edits the label under the pointer, or creates a new one where
// nothing is close enough.
func (a *App) textTap(pt geom.Point) {
	pl, ok := a.frame.PlacementAt(pt)
	if !ok {
		return
	}
	if t := a.labelNear(pl.Page, pt); t != nil {
		draft, ok := a.prompt.EditText(TextDraft{Text: t.Text})
		if !ok || draft.Text == "" {
			return
		}
		a.annots.EditText(pl.Page, t.ID, draft.Text, a.interaction.Font, a.interaction.Color, a.interaction.PenSize)
		a.redraw()
		return
	}

	draft, ok := a.prompt.EditText(TextDraft{})
	if !ok || draft.Text == "" {
		return
	}
	nx, ny := geom.ToNormalized(pt.X, pt.Y, float64(pl.X), float64(pl.Y), pl.Width, pl.Height)
	a.annots.Add(pl.Page, annot.NewText(geom.Point{X: nx, Y: ny}, draft.Text,
		a.interaction.Font, a.interaction.Color, a.interaction.PenSize))
	a.redraw()
}

// labelNear returns the page's text annotation whose drawn label is
// closest to pt within the erase tolerance, or nil.
func (a *App) labelNear(page int, pt geom.Point) *annot.Text {
	bestID := ""
	bestDist := a.cfg.EraseTolerance
	for _, p := range a.frame.Primitives {
		l, ok := p.(*render.Label)
		if !ok {
			continue
		}
		if d := l.Bounds().DistanceTo(pt); d <= bestDist {
			bestID, bestDist = l.ID, d
		}
	}
	if bestID == "" {
		return nil
	}
	for _, an := range a.annots.Annotations(page) {
		if t, ok := an.(*annot.Text); ok && t.ID == bestID {
			return t
		}
	}
	return nil
}

func (a *App) erase(pt geom.Point) {
	targets := a.frame.Targets()
	for _, pl := range a.frame.Placements {
		if a.annots.EraseNear(pl.Page, pt, a.cfg.EraseTolerance, targets) {
			a.redraw()
			return
		}
	}
}

func (a *App) applyResize() {
	if a.pendingW == 0 && a.pendingH == 0 {
		return
	}
	a.viewportW, a.viewportH = a.pendingW, a.pendingH
	a.pendingW, a.pendingH = 0, 0
	a.redraw()
}

func (a *App) redraw() {
	if a.coord == nil {
		return
	}
	frame, err := a.coord.Redraw(a.page, a.viewportW, a.viewportH, a.playEnd)
	if err != nil {
		a.notify.Errorf("could not render page %d: %v", a.page, err)
		return
	}
	a.frame = frame
	a.surface.Present(frame)
}
