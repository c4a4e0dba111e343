// Package workspace is the page orchestrator of one session. It owns the
// selected document, its analysis, the PDF URL and the active view, and
// sequences upload, selection and analysis.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// View is the main content shown next to the document list.
type View string

const (
	ViewChat     View = "chat"
	ViewDocument View = "document"
	ViewAnalysis View = "analysis"
)

// DefaultFileHost is prefixed to relative document file paths.
const DefaultFileHost = "http://localhost:8000"

const analyzeFailed = "Failed to analyze document"

var (
	// ErrStale is returned when an analysis finished for a selection that
	// has since been replaced or cleared. The result is discarded.
	ErrStale = errors.New("workspace: analysis result discarded, selection changed")
	// ErrNoDocument is returned by actions that need a selected document.
	ErrNoDocument = errors.New("workspace: no document selected")
	// ErrUnknownView is returned by SetView for unknown views.
	ErrUnknownView = errors.New("workspace: unknown view")
	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("workspace: request already in progress")
)

// Backend is the part of the Fee API the workspace uses.
type Backend interface {
	AnalyzeDocument(ctx context.Context, documentID api.ID) (*api.Analysis, error)
	UploadDocument(ctx context.Context, file api.Upload, title string) (*api.Document, error)
}

// SelectionListener is told about every selection change, before any
// analysis starts. doc is nil after a deselect.
type SelectionListener func(ctx context.Context, doc *api.Document)

// Option configures a Workspace.
type Option func(*Workspace)

// WithFileHost sets the host used to absolutize document file paths.
func WithFileHost(host string) Option {
	return func(w *Workspace) {
		if host != "" {
			w.fileHost = host
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// WithSelectionListener registers fn for selection changes.
func WithSelectionListener(fn SelectionListener) Option {
	return func(w *Workspace) { w.listener = fn }
}

// Workspace is safe for concurrent use. The analyze call runs without
// the lock held; a selection token decides whether its result still
// applies when it returns.
type Workspace struct {
	backend  Backend
	fileHost string
	log      *zap.Logger
	listener SelectionListener
	notifyMu sync.Mutex

	mu       sync.Mutex
	selected *api.Document
	analysis *api.Analysis
	pdfURL   string
	view     View
	loading  bool
	err      string
	token    uint64

	showUpload    bool
	showDocuments bool
	showHistory   bool
	uploading     bool
	uploadErr     string
}

// New creates an empty workspace on the chat view.
func New(backend Backend, opts ...Option) *Workspace {
	w := &Workspace{
		backend:  backend,
		fileHost: DefaultFileHost,
		log:      zap.NewNop(),
		view:     ViewChat,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.Named("workspace")
	return w
}

var repeatedSlash = regexp.MustCompile(`([^:]/)/+`)

// FileURL absolutizes a backend file path against host. Empty paths stay
// empty, values starting with "http" are returned unchanged, and any run
// of slashes not following a colon is collapsed to one.
func FileURL(host, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}
	return repeatedSlash.ReplaceAllString(host+path, "$1")
}

// notify reports a selection change to the listener. Notifications run
// one at a time and are dropped once a newer selection took a token, so
// the listener always ends on the current selection.
func (w *Workspace) notify(ctx context.Context, doc *api.Document, token uint64) {
	if w.listener == nil {
		return
	}
	w.notifyMu.Lock()
	defer w.notifyMu.Unlock()

	w.mu.Lock()
	current := token == w.token
	w.mu.Unlock()
	if !current {
		w.log.Debug("skipping stale selection notice")
		return
	}
	if doc != nil {
		d := *doc
		doc = &d
	}
	w.listener(ctx, doc)
}

// SelectDocument selects doc and analyzes it. The overlay closes and the
// document is shown at once; the analysis is applied only if no other
// selection happened while it was running. On success the chat view is
// shown. On failure the error is kept and the document stays selected
// so the analysis can be retried.
func (w *Workspace) SelectDocument(ctx context.Context, doc api.Document) error {
	doc.File = FileURL(w.fileHost, doc.File)

	w.mu.Lock()
	w.loading = true
	w.err = ""
	w.showDocuments = false
	w.selected = &doc
	w.pdfURL = doc.File
	w.analysis = nil
	w.token++
	token := w.token
	w.mu.Unlock()

	w.notify(ctx, &doc, token)

	a, err := w.backend.AnalyzeDocument(ctx, doc.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.token {
		w.log.Debug("discarding stale analysis", zap.String("document", doc.ID.String()))
		return ErrStale
	}
	w.loading = false
	if err != nil {
		w.log.Error("analysis failed", zap.String("document", doc.ID.String()), zap.Error(err))
		w.err = err.Error()
		if w.err == "" {
			w.err = analyzeFailed
		}
		w.analysis = nil
		return err
	}
	w.analysis = a
	w.view = ViewChat
	return nil
}

// RetryAnalysis re-runs the selection flow for the selected document.
func (w *Workspace) RetryAnalysis(ctx context.Context) error {
	w.mu.Lock()
	if w.selected == nil {
		w.mu.Unlock()
		return ErrNoDocument
	}
	if w.loading {
		w.mu.Unlock()
		return ErrBusy
	}
	doc := *w.selected
	w.mu.Unlock()
	return w.SelectDocument(ctx, doc)
}

// HandleUploadSuccess adopts a freshly uploaded document, closes the
// upload panel and runs the full selection flow, so every upload is
// analyzed.
func (w *Workspace) HandleUploadSuccess(ctx context.Context, doc api.Document) error {
	abs := doc
	abs.File = FileURL(w.fileHost, doc.File)

	w.mu.Lock()
	w.selected = &abs
	w.pdfURL = abs.File
	w.showUpload = false
	w.mu.Unlock()

	return w.SelectDocument(ctx, doc)
}

// Deselect clears the selection, analysis, PDF URL and error together
// and invalidates any analysis still running.
func (w *Workspace) Deselect(ctx context.Context) {
	w.mu.Lock()
	w.selected = nil
	w.analysis = nil
	w.pdfURL = ""
	w.err = ""
	w.loading = false
	w.view = ViewChat
	w.token++
	token := w.token
	w.mu.Unlock()

	w.notify(ctx, nil, token)
}

// SetView switches the main content. Document and analysis views need
// a selected document.
func (w *Workspace) SetView(v View) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch v {
	case ViewChat:
	case ViewDocument, ViewAnalysis:
		if w.selected == nil {
			return ErrNoDocument
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	w.view = v
	return nil
}

// Selected returns a copy of the selected document.
func (w *Workspace) Selected() (api.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return api.Document{}, false
	}
	return *w.selected, true
}
