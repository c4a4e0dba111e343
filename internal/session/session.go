// Package session wires the per-browser components together: one
// workspace, chat, document list, PDF viewer and analysis panel per
// session. Components never call each other; the session relays
// selection changes and chat uploads between them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/analysis"
	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/chat"
	"github.com/ziadkadry99/fee-web/internal/documents"
	"github.com/ziadkadry99/fee-web/internal/viewer"
	"github.com/ziadkadry99/fee-web/internal/workspace"
)

// Backend is everything a session needs from the Fee API.
type Backend interface {
	chat.Backend
	workspace.Backend
	documents.Lister
}

// Options configures new sessions.
type Options struct {
	FileHost        string
	HistoryPageSize int
	Logger          *zap.Logger
}

// Session is the state of one browser.
type Session struct {
	ID        string
	Workspace *workspace.Workspace
	Chat      *chat.Chat
	Documents *documents.List
	Viewer    *viewer.Viewer
	Analysis  *analysis.Panel

	log *zap.Logger

	mu       sync.Mutex
	lastSeen time.Time
}

// New builds a session and wires its components.
func New(id string, backend Backend, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", id))

	s := &Session{
		ID:       id,
		Viewer:   viewer.New(),
		Analysis: analysis.NewPanel(),
		log:      log,
		lastSeen: time.Now(),
	}
	s.Documents = documents.New(backend, log)
	s.Workspace = workspace.New(backend,
		workspace.WithFileHost(opts.FileHost),
		workspace.WithLogger(log),
		workspace.WithSelectionListener(s.selectionChanged),
	)
	s.Chat = chat.New(backend,
		chat.WithLogger(log),
		chat.WithHistoryPageSize(opts.HistoryPageSize),
		chat.WithUploadHandler(s.chatUploaded),
	)
	return s
}

// selectionChanged relays a workspace selection to the viewer, the
// analysis panel and the chat.
func (s *Session) selectionChanged(ctx context.Context, doc *api.Document) {
	var id api.ID
	if doc != nil {
		id = doc.ID
		s.Viewer.SetFile(doc.File)
		s.Analysis.Reset()
	} else {
		s.Viewer.SetFile("")
	}
	if err := s.Chat.SetDocument(ctx, id); err != nil && !errors.Is(err, chat.ErrStale) {
		s.log.Warn("chat could not load document conversations", zap.String("document", id.String()), zap.Error(err))
	}
}

// chatUploaded hands a document uploaded from the chat to the workspace.
// Once the workspace has adopted the document the upload counts as done:
// a failed analysis stays on the workspace's retry panel, not in the chat.
func (s *Session) chatUploaded(ctx context.Context, doc api.Document) error {
	err := s.Workspace.HandleUploadSuccess(ctx, doc)
	if err != nil && !errors.Is(err, workspace.ErrStale) {
		s.log.Warn("analysis of chat upload failed", zap.String("document", doc.ID.String()), zap.Error(err))
	}
	return nil
}

// Mount runs the first-render loads: the chat welcome and history, and
// the document list. Both are single-shot.
func (s *Session) Mount(ctx context.Context) {
	if err := s.Chat.Mount(ctx); err != nil {
		s.log.Warn("chat mount", zap.Error(err))
	}
	if !s.Documents.Loaded() {
		s.Documents.Load(ctx)
	}
}

// Touch records activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// IdleFor reports how long the session has been inactive.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// View is everything a page render needs.
type View struct {
	ID        string          `json:"id"`
	Workspace workspace.State `json:"workspace"`
	Chat      chat.View       `json:"chat"`
	Documents documents.View  `json:"documents"`
	Viewer    viewer.State    `json:"viewer"`
	Analysis  *analysis.View  `json:"analysis,omitempty"`
}

// View returns a copy of every component's state.
func (s *Session) View() View {
	ws := s.Workspace.State()
	v := View{
		ID:        s.ID,
		Workspace: ws,
		Chat:      s.Chat.View(),
		Documents: s.Documents.View(),
		Viewer:    s.Viewer.State(),
	}
	if ws.Analysis != nil {
		av := s.Analysis.Build(ws.Analysis)
		v.Analysis = &av
	}
	return v
}

// Snapshot is the persisted form of a session. The document list is not
// saved; it is fetched again on mount.
type Snapshot struct {
	Workspace workspace.State     `json:"workspace"`
	Chat      chat.Snapshot       `json:"chat"`
	Viewer    viewer.State        `json:"viewer"`
	Analysis  analysis.PanelState `json:"analysis"`
}

// Snapshot captures the session for a Store.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Workspace: s.Workspace.State(),
		Chat:      s.Chat.Snapshot(),
		Viewer:    s.Viewer.State(),
		Analysis:  s.Analysis.State(),
	}
}

// Restore loads a snapshot into the session.
func (s *Session) Restore(snap Snapshot) {
	s.Workspace.Restore(snap.Workspace)
	s.Chat.Restore(snap.Chat)
	s.Viewer.Restore(snap.Viewer)
	s.Analysis.Restore(snap.Analysis)
}
