package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/barcode-console/internal/shared"
	"github.com/odyssey-erp/barcode-console/web"
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

// NewEngine parses the embedded templates. Prices are rendered with currency
// as prefix.
func NewEngine(currency string) (*Engine, error) {
	funcMap := template.FuncMap{
		"formatPrice": func(d decimal.Decimal) string {
			return currency + d.StringFixed(2)
		},
		"orNA": func(s string) string {
			if strings.TrimSpace(s) == "" {
				return "N/A"
			}
			return s
		},
		"imageSrc": imageSrc,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// RenderStatus executes a named template and writes it with status. Nothing is
// written when execution fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, name string, status int, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// imageSrc passes image references the server generated through the URL
// sanitizer. Only inline images and http(s) links are trusted.
func imageSrc(ref string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(ref))
	switch {
	case strings.HasPrefix(lower, "data:image/"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "http://"):
		return template.URL(ref)
	default:
		return template.URL("#")
	}
}
