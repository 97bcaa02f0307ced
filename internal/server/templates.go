package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/session"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pageNames = []string{"login", "dashboard", "activity", "reservations", "admin", "notfound"}

var funcs = template.FuncMap{
	"date": func(s string) string { return models.FormatDate(s, "N/A") },
}

type templates struct {
	pages map[string]*template.Template
}

// loadTemplates parses the layout once per page so each page can define its own "content".
func loadTemplates() (*templates, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(templateFiles, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(templateFiles, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		t.pages[name] = page
	}
	return t, nil
}

// pageData is what every template receives.
type pageData struct {
	Title     string
	Path      string
	Chrome    bool
	Session   *session.Session
	Nav       []router.Route
	Toasts    []notify.Toast
	CSRFField template.HTML
	Data      any
}

func (t *templates) render(w http.ResponseWriter, status int, name string, data pageData) error {
	tpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
