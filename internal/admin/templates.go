package admin

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

//go:embed templates/*.tmpl
var tplFS embed.FS

// набор готовых шаблонов по страницам (ключ = имя файла страницы, напр. "sweep.tmpl")
type pageTemplates map[string]*template.Template

var funcs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func parseTemplates() (pageTemplates, error) {
	all, err := fs.Glob(tplFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("admin: glob templates: %w", err)
	}

	// по одному набору на страницу: layout + сама страница
	out := make(pageTemplates)
	for _, f := range all {
		if path.Base(f) == "layout.tmpl" {
			continue
		}
		t := template.New("layout").Funcs(funcs)
		if _, err := t.ParseFS(tplFS, "templates/layout.tmpl", f); err != nil {
			return nil, fmt.Errorf("admin: parse %s: %w", f, err)
		}
		out[path.Base(f)] = t
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("admin: no page templates found in embed FS")
	}
	return out, nil
}
