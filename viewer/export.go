package viewer

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/abiosoft/mold"
	"github.com/russross/blackfriday/v2"

	"github.com/lewtec/partitura/internal/library"
	"github.com/lewtec/partitura/internal/setlist"
)

//go:embed templates/pages/*.html templates/layout.html
var templateFS embed.FS

// exportFuncs are the custom functions available in export templates.
var exportFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"markdown": func(text string) template.HTML {
		return template.HTML(blackfriday.Run([]byte(text)))
	},
	"pagerange": func(e setlist.Entry) string {
		if e.EndPage != nil {
			return fmt.Sprintf("%d–%d", e.StartPage, *e.EndPage)
		}
		return fmt.Sprintf("from %d", e.StartPage)
	},
}

// ExportSetlist is one named setlist with its resolved entries.
type ExportSetlist struct {
	Name    string
	Entries []setlist.Entry
}

// ExportData is everything the library export template sees.
type ExportData struct {
	Title string
	// Notes is markdown shown at the top of the page.
	Notes    string
	Scores   []*library.Score
	Setlists []ExportSetlist
}

// Exporter renders the score library to a standalone HTML page, for
// printing a repertoire list or sharing it with an ensemble.
type Exporter struct {
	mold mold.Engine
}

// NewExporter parses the embedded export templates.
func NewExporter() (*Exporter, error) {
	m, err := mold.New(templateFS,
		mold.WithRoot("templates"),
		mold.WithLayout("layout.html"),
		mold.WithFuncMap(exportFuncs),
	)
	if err != nil {
		return nil, fmt.Errorf("while parsing export templates: %w", err)
	}

	return &Exporter{mold: m}, nil
}

// WriteLibrary renders the library page to w.
func (e *Exporter) WriteLibrary(w io.Writer, data ExportData) error {
	if data.Title == "" {
		data.Title = "Score library"
	}
	return e.mold.Render(w, "pages/library.html", data)
}
