package view

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	titler := cases.Title(language.English)
	funcMap := template.FuncMap{
		"formatDate": func(v any) string {
			var t time.Time
			switch ts := v.(type) {
			case time.Time:
				t = ts
			case *time.Time:
				if ts == nil {
					return ""
				}
				t = *ts
			default:
				return ""
			}
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatPrice": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		// displayLabel and upper accept any stringy value so templates can
		// pass named enum types without conversion.
		"displayLabel": func(v any) string {
			return titler.String(strings.ReplaceAll(fmt.Sprint(v), "_", " "))
		},
		"upper": func(v any) string {
			return strings.ToUpper(fmt.Sprint(v))
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
