// Package documents holds the per-session document list.
package documents

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// DefaultError is shown when a load fails without a message.
const DefaultError = "Failed to load documents"

// Status is the single render state of the list.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// Lister fetches the user's documents.
type Lister interface {
	GetDocuments(ctx context.Context) ([]api.Document, error)
}

// List caches the document list of one session. Every Load replaces the
// whole list.
type List struct {
	lister Lister
	log    *zap.Logger

	mu      sync.Mutex
	docs    []api.Document
	loaded  bool
	loading bool
	err     string
	token   uint64
}

// New creates a List that has not been loaded yet.
func New(lister Lister, log *zap.Logger) *List {
	if log == nil {
		log = zap.NewNop()
	}
	return &List{lister: lister, log: log.Named("documents")}
}

// Load fetches the documents and replaces the cached list. A failure
// empties the list and records the error. When two loads overlap the
// later one wins.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	l.token++
	token := l.token
	l.loading = true
	l.err = ""
	l.mu.Unlock()

	docs, err := l.lister.GetDocuments(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.token {
		return nil
	}
	l.loading = false
	l.loaded = true
	if err != nil {
		l.log.Error("failed to load documents", zap.Error(err))
		l.err = err.Error()
		if l.err == "" {
			l.err = DefaultError
		}
		l.docs = nil
		return err
	}
	l.docs = append([]api.Document(nil), docs...)
	return nil
}

// Loaded reports whether at least one load has finished.
func (l *List) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Status returns exactly one of loading, error, empty or ready. A list
// that was never loaded reports loading.
func (l *List) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statusLocked()
}

func (l *List) statusLocked() Status {
	switch {
	case l.loading || !l.loaded:
		return StatusLoading
	case l.err != "":
		return StatusError
	case len(l.docs) == 0:
		return StatusEmpty
	default:
		return StatusReady
	}
}

// Find returns the cached document with the given id.
func (l *List) Find(id api.ID) (api.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range l.docs {
		if d.ID == id {
			return d, true
		}
	}
	return api.Document{}, false
}

// View is a copy of the list for rendering.
type View struct {
	Status    Status         `json:"status"`
	Error     string         `json:"error,omitempty"`
	Documents []api.Document `json:"documents"`
}

// View returns the current list state.
func (l *List) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return View{
		Status:    l.statusLocked(),
		Error:     l.err,
		Documents: append([]api.Document{}, l.docs...),
	}
}
