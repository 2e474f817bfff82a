package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tidewise/buildbot-ci/pkg/status"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index       *template.Template
	log         *template.Template
	testResults *template.Template
}

func loadPages() (*pages, error) {
	title := cases.Title(language.English)
	funcs := template.FuncMap{
		// title turns a badge like FAILURE into "Failure".
		"title": func(b status.Badge) string {
			return title.String(strings.ToLower(string(b)))
		},
		"badgeClass": func(b status.Badge) string {
			return "badge-" + strings.ToLower(string(b))
		},
		"logTypes": func(logs map[string]string) []string {
			types := make([]string, 0, len(logs))
			for t := range logs {
				types = append(types, t)
			}
			sort.Strings(types)
			return types
		},
		// unsafeHTML marks generator-produced test results as trusted markup.
		"unsafeHTML": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec // rendered by the CI report generator
		},
	}

	parse := func(name string) (*template.Template, error) {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		return t, nil
	}

	p := &pages{}
	var err error
	if p.index, err = parse("index.html"); err != nil {
		return nil, err
	}
	if p.log, err = parse("log.html"); err != nil {
		return nil, err
	}
	if p.testResults, err = parse("test_results.html"); err != nil {
		return nil, err
	}
	return p, nil
}

// render executes t into a buffer first so a template error still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.writeError(w, r, fmt.Errorf("render %s: %w", t.Name(), err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
