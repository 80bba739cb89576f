package adapthttp

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
)

// viewData carries the named parameters handed to a template.
type viewData map[string]any

// views renders HTML pages from on-disk templates, one file per page.
type views struct {
	templates map[string]*template.Template
}

var viewNames = []string{"index", "login", "register", "home", "404", "500"}

// loadViews parses every page template under dir.
func loadViews(dir string) (*views, error) {
	v := &views{templates: make(map[string]*template.Template)}
	for _, name := range viewNames {
		t, err := template.ParseFiles(filepath.Join(dir, name+".html"))
		if err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		v.templates[name] = t
	}
	return v, nil
}

// render writes the named page with the given status. A template failure
// after headers are out can only be logged.
func (v *views) render(w http.ResponseWriter, status int, name string, data viewData) {
	t, ok := v.templates[name]
	if !ok {
		log.Printf("render: unknown view %q", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.Execute(w, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}
