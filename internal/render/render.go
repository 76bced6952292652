// Package render renders the HTML views. Every view is parsed once at start up
// together with the layout and the shared partials.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/terra-clan/approved-premises/internal/dates"
	"github.com/terra-clan/approved-premises/internal/models"
	"github.com/terra-clan/approved-premises/internal/view"
)

//go:embed templates
var files embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsGlob = "templates/partials/*.html"
	viewsDir     = "templates/views"
)

// Renderer holds the parsed views by name, e.g. "applications/index"
type Renderer struct {
	views map[string]*template.Template
}

// New parses every embedded view
func New() (*Renderer, error) {
	r := &Renderer{views: make(map[string]*template.Template)}

	err := fs.WalkDir(files, viewsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}

		name := strings.TrimSuffix(strings.TrimPrefix(p, viewsDir+"/"), ".html")
		t, err := template.New(path.Base(layoutFile)).Funcs(Funcs()).ParseFS(files, layoutFile, partialsGlob, p)
		if err != nil {
			return fmt.Errorf("parse view %s: %w", name, err)
		}
		r.views[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("views parsed", "count", len(r.views))
	return r, nil
}

// Views returns the names of the parsed views
func (r *Renderer) Views() []string {
	names := make([]string, 0, len(r.views))
	for name := range r.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes a view inside the layout and writes it with status. Nothing
// is written when the view fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Funcs are the helpers available to every view
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(iso string) string {
			return dates.FormatDate(iso, dates.FormatMedium)
		},
		"formatDateLong": func(iso string) string {
			return dates.FormatDate(iso, dates.FormatLong)
		},
		"formatDateShort": func(iso string) string {
			return dates.FormatDate(iso, dates.FormatShort)
		},
		"formatTime":          formatTime,
		"formatDuration":      dates.FormatDuration,
		"applicationTag":      view.ApplicationStatusTag,
		"assessmentTag":       view.AssessmentStatusTag,
		"placementRequestTag": view.PlacementRequestStatusTag,
		"criterion":           view.CriterionLabel,
		"recordPath":          view.RecordPath,
		"can": func(u *models.User, permission string) bool {
			return u.HasPermission(permission)
		},
	}
}

// formatTime renders a timestamp, accepting values and pointers
func formatTime(v any) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv == nil {
			return ""
		}
		t = *tv
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}
