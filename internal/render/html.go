package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var pageFS embed.FS

// HTML renders public pages with the embedded templates.
type HTML struct {
	profile  *template.Template
	showcase *template.Template
}

// NewHTML parses the embedded page templates.
func NewHTML() (*HTML, error) {
	funcs := template.FuncMap{
		"href": safeHref,
		"initial": func(s string) string {
			for _, r := range s {
				return string(r)
			}
			return "?"
		},
	}
	profile, err := template.New("profile").Funcs(funcs).ParseFS(pageFS, "templates/base.html", "templates/profile.html")
	if err != nil {
		return nil, fmt.Errorf("parsing profile template: %w", err)
	}
	showcase, err := template.New("showcase").Funcs(funcs).ParseFS(pageFS, "templates/base.html", "templates/showcase.html")
	if err != nil {
		return nil, fmt.Errorf("parsing showcase template: %w", err)
	}
	return &HTML{profile: profile, showcase: showcase}, nil
}

// Profile writes the HTML of a public profile page.
func (h *HTML) Profile(w io.Writer, page *PublicPage) error {
	return execute(w, h.profile, page)
}

// Showcase writes the HTML of a vitrine page.
func (h *HTML) Showcase(w io.Writer, page *ShowcasePage) error {
	return execute(w, h.showcase, page)
}

// execute renders into a buffer first so a template error never leaves a
// half-written response.
func execute(w io.Writer, t *template.Template, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// safeHref admits the schemes FormatLink produces. html/template would
// otherwise rewrite tel: links to "#ZgotmplZ".
func safeHref(v string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(v))
	for _, scheme := range []string{"https://", "http://", "mailto:", "tel:"} {
		if strings.HasPrefix(lower, scheme) {
			return template.URL(v)
		}
	}
	return "#"
}
