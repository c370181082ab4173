// Package web serves the HTML user interface of the content repository.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html templates/pages/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer manages HTML template rendering with custom functions.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
	mu        sync.RWMutex
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	return NewRendererFS(sub)
}

// NewRendererFS parses base.html and base_public.html, then combines each with
// every page template under pages/.
func NewRendererFS(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap:   createFuncMap(),
	}
	if err := r.parseTemplates(fsys); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return r, nil
}

// Render executes the named page inside the app chrome (base.html).
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	return r.execute(w, status, name, "base", data)
}

// RenderPublic executes the named page inside the minimal chrome used before login.
func (r *Renderer) RenderPublic(w http.ResponseWriter, status int, name string, data any) error {
	return r.execute(w, status, "public:"+name, "base_public", data)
}

// RenderError renders an error page with the given HTTP status code and message.
func (r *Renderer) RenderError(w http.ResponseWriter, code int, message string) {
	data := map[string]any{
		"Title":     http.StatusText(code),
		"Error":     message,
		"ErrorCode": http.StatusText(code),
	}
	if err := r.RenderPublic(w, code, "error.html", data); err != nil {
		http.Error(w, fmt.Sprintf("Error %d: %s", code, message), code)
	}
}

// execute renders into a buffer first so a template error never leaves a half-written page.
func (r *Renderer) execute(w http.ResponseWriter, status int, key, root string, data any) error {
	r.mu.RLock()
	tmpl, ok := r.templates[key]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", key)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, root, data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", key, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) parseTemplates(fsys fs.FS) error {
	base, err := fs.ReadFile(fsys, "base.html")
	if err != nil {
		return fmt.Errorf("failed to read base template: %w", err)
	}
	basePublic, err := fs.ReadFile(fsys, "base_public.html")
	if err != nil {
		return fmt.Errorf("failed to read base_public template: %w", err)
	}

	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return err
	}
	for _, p := range pages {
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", p, err)
		}
		name := path.Base(p)

		tmpl, err := template.New("base").Funcs(r.funcMap).Parse(string(base))
		if err != nil {
			return fmt.Errorf("failed to parse base template for %s: %w", name, err)
		}
		if tmpl, err = tmpl.Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}

		publicTmpl, err := template.New("base_public").Funcs(r.funcMap).Parse(string(basePublic))
		if err != nil {
			return fmt.Errorf("failed to parse base_public template for %s: %w", name, err)
		}
		if publicTmpl, err = publicTmpl.Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse public template %s: %w", name, err)
		}

		r.mu.Lock()
		r.templates[name] = tmpl
		r.templates["public:"+name] = publicTmpl
		r.mu.Unlock()
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no page templates found")
	}
	return nil
}

// createFuncMap creates the template function map with all custom functions.
func createFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": formatTime,
		"truncate":   truncate,
		"markdown":   renderMarkdown,
	}
}

// formatTime formats a time.Time as a human-readable date string.
// Example: "Jan 2, 2006"
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// truncate truncates a string to n characters, adding "..." if truncated.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

var descriptionPolicy = bluemonday.UGCPolicy()

// renderMarkdown converts a folder description to sanitized HTML.
func renderMarkdown(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	extensions := parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(s))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	sanitized := descriptionPolicy.SanitizeBytes(markdown.Render(doc, renderer))
	return template.HTML(sanitized)
}
