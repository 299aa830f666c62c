// Package templates handles HTML template rendering for the editor page and
// its Datastar SSE fragments.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"os"
	"sync"

	"github.com/joeblew999/plat-claimmap/internal/marker"
	"github.com/joeblew999/plat-claimmap/internal/report"
	"github.com/joeblew999/plat-claimmap/internal/staticmap"
)

//go:embed fragments/*.html pages/*.html
var embedded embed.FS

// Patterns parsed from the template filesystem.
var patterns = []string{"fragments/*.html", "pages/*.html"}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"currency": report.FormatCurrency,
	"date":     report.TruncateDate,
	"truncate": func(n int, s string) string { return report.TruncateText(s, n) },
	"color": func(m marker.Marker) string {
		if m.IsCamera() {
			return staticmap.CameraColor(m.Level)
		}
		return staticmap.IncidentColor(m.Level)
	},
}

// Renderer manages HTML page and fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the embedded templates, or from dir when it is
// not empty. dir must contain fragments/ and pages/.
func New(dir string) (*Renderer, error) {
	tmpl, err := parse(source(dir))
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func source(dir string) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}

func parse(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// MustRender renders a template and panics on error.
// Use only when you're certain the template exists.
func (r *Renderer) MustRender(name string, data any) string {
	s, err := r.Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Reload reparses templates from dir, or from the embedded copy when dir is
// empty (useful for dev hot-reload).
func (r *Renderer) Reload(dir string) error {
	tmpl, err := parse(source(dir))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
