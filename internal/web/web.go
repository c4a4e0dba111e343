// Package web serves the Fee pages. Every browser action is a form post
// that mutates the caller's session and redirects back to the home page;
// the chat composer can also talk over a websocket.
package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/session"
)

// DefaultPDFJSVersion is the pdf.js release loaded from the CDN.
const DefaultPDFJSVersion = "3.4.120"

// maxUploadBytes bounds multipart bodies.
const maxUploadBytes = 32 << 20

// Options configures the handlers.
type Options struct {
	PDFJSVersion string
	// MessageTimeout bounds each websocket message's call to the Fee API.
	MessageTimeout time.Duration
	// AllowAllOrigins lets websocket handshakes from any origin through,
	// matching the server's permissive CORS mode.
	AllowAllOrigins bool
	Logger          *zap.Logger
}

// Web holds the page handlers.
type Web struct {
	sessions *session.Manager
	opts     Options
	log      *zap.Logger
	pages    *template.Template
}

// New creates the handlers. It panics if the embedded templates do not
// parse.
func New(sessions *session.Manager, opts Options) *Web {
	if opts.PDFJSVersion == "" {
		opts.PDFJSVersion = DefaultPDFJSVersion
	}
	if opts.MessageTimeout <= 0 {
		opts.MessageTimeout = 60 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Web{
		sessions: sessions,
		opts:     opts,
		log:      log.Named("web"),
		pages:    parseTemplates(),
	}
}

// RegisterRoutes mounts all page, action, state and websocket routes.
func (h *Web) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ServeIndex)
	r.Handle("/static/*", staticHandler())
	r.Get("/api/state", h.handleState)
	r.Get("/ws/chat", h.handleWebSocket)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/refresh", h.action(refreshDocuments))
		r.Post("/toggle", h.action(toggleDocuments))
		r.Post("/select", h.action(selectDocument))
		r.Post("/deselect", h.action(deselectDocument))
	})

	r.Post("/upload", h.action(submitUpload))
	r.Post("/upload/toggle", h.action(toggleUpload))
	r.Post("/view", h.action(setView))

	r.Route("/analysis", func(r chi.Router) {
		r.Post("/retry", h.action(retryAnalysis))
		r.Post("/tab", h.action(setAnalysisTab))
		r.Post("/facets/{facet}/toggle", h.action(toggleFacet))
	})

	r.Route("/chat", func(r chi.Router) {
		r.Post("/tab", h.action(setChatTab))
		r.Post("/send", h.action(sendMessage))
		r.Post("/upload", h.action(uploadInChat))
		r.Post("/retry", h.action(retryConversations))
		r.Post("/dismiss", h.action(dismissChatError))
		r.Post("/history", h.action(loadMoreHistory))
		r.Post("/history/toggle", h.action(toggleHistory))
	})

	r.Route("/viewer", func(r chi.Router) {
		r.Post("/prev", h.action(prevPage))
		r.Post("/next", h.action(nextPage))
		r.Post("/zoom-in", h.action(zoomIn))
		r.Post("/zoom-out", h.action(zoomOut))
		r.Post("/zoom-reset", h.action(zoomReset))
		r.Post("/loaded", h.report(viewerLoaded))
		r.Post("/failed", h.report(viewerFailed))
	})
}

func (h *Web) handleState(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	s.Mount(r.Context())
	writeJSON(w, http.StatusOK, s.View())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
