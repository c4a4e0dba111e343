package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/markdown"
	"github.com/ziadkadry99/fee-web/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// page is the data handed to the index template.
type page struct {
	session.View
	PDFJSVersion string
}

func parseTemplates() *template.Template {
	funcs := markdown.FuncMap()
	funcs["date"] = func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006")
	}
	funcs["clock"] = func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("15:04")
	}
	funcs["selected"] = func(doc api.Document, sel *api.Document) bool {
		return sel != nil && sel.ID == doc.ID
	}
	return template.Must(template.New("index").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// ServeIndex renders the home page for the caller's session, running the
// first-visit loads if they have not happened yet.
func (h *Web) ServeIndex(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	s.Mount(r.Context())

	var buf bytes.Buffer
	data := page{View: s.View(), PDFJSVersion: h.opts.PDFJSVersion}
	if err := h.pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		h.log.Error("rendering index", zap.String("session", s.ID), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
