// Package render draws the template-backed screens. Screens with a
// template render through here; everything else emits lines directly.
// Templates live embedded in the binary (text/template; nothing in the
// output is HTML).
package render

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// BannerData feeds the welcome and main-menu templates.
type BannerData struct {
	Name           string
	Description    string
	SysOpName      string
	Version        string
	ActiveSessions int
	Username       string
	UnreadMail     int64
}

// Renderer holds the parsed template set. Immutable after New; shared
// by all sessions.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcs := template.FuncMap{
		"repeat": strings.Repeat,
	}
	tmpl, err := template.New("screens").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse screen templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Has reports whether a template exists for the screen name.
func (r *Renderer) Has(name string) bool {
	return r.tmpl.Lookup(name+".tmpl") != nil
}

// Render executes the named template. Output uses bare LF line endings;
// the telnet codec converts to CRLF on the way out.
func (r *Renderer) Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name+".tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return b.String(), nil
}
