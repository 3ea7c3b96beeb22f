package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"

	"invoicepay-server/src/util"
)

//go:embed templates/*.html
var files embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	pages *template.Template
}

func NewRenderer() (*Renderer, error) {
	pages, err := template.New("pages").Funcs(template.FuncMap{
		"date":  util.FormatDate,
		"money": util.FormatAmount,
	}).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page. The page is rendered into a buffer first so a
// template error never leaves a half-written response.
func (rn *Renderer) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := rn.pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("ERROR: Failed to render template %s: %v", name, err)
		http.Error(w, "something went wrong", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
