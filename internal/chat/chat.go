// Package chat owns the conversation threads of one session: the general
// thread, one thread per document, the active tab, the typing indicator
// and the paginated history sidebar.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// Tab selects which thread is shown.
type Tab string

const (
	TabGeneral  Tab = "general"
	TabDocument Tab = "document"
)

// Scope keys a thread: General, or one scope per document id.
type Scope string

// General is the scope of the conversation not tied to any document.
const General Scope = "general"

// DocumentScope returns the thread key for a document.
func DocumentScope(id api.ID) Scope {
	return Scope("document:" + id.String())
}

// Fixed message texts.
const (
	WelcomeID             = "welcome"
	WelcomeText           = "Hello! I'm Fee. You can start chatting with me right away, or upload a document for us to discuss. What would you like to do?"
	SendFailedText        = "I'm sorry, I couldn't process your message. Please try again."
	ConversationErrorText = "Failed to load conversation history"
)

var (
	// ErrBusy is returned when the same action is already in flight.
	ErrBusy = errors.New("chat: request already in progress")
	// ErrEmptyMessage is returned for blank outbound messages.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoDocument is returned by document-scoped actions with no document.
	ErrNoDocument = errors.New("chat: no document selected")
	// ErrUnknownTab is returned by SetTab for unknown tab names.
	ErrUnknownTab = errors.New("chat: unknown tab")
	// ErrStale is returned when a response arrived for a document that is
	// no longer current. The response is discarded.
	ErrStale = errors.New("chat: response discarded, document changed")
)

// Backend is the part of the Fee API the chat talks to.
type Backend interface {
	SendChatMessage(ctx context.Context, documentID api.ID, message string) (*api.ChatResponse, error)
	GetDocumentConversations(ctx context.Context, documentID api.ID) ([]api.ChatMessage, error)
	GetChatHistory(ctx context.Context, documentID api.ID, page, limit int) (*api.HistoryPage, error)
	UploadDocument(ctx context.Context, file api.Upload, title string) (*api.Document, error)
}

// UploadHandler receives a document uploaded from the chat composer.
type UploadHandler func(ctx context.Context, doc api.Document) error

// Option configures a Chat.
type Option func(*Chat)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chat) { c.log = l }
}

// WithUploadHandler sets the callback run after a chat upload succeeds.
func WithUploadHandler(h UploadHandler) Option {
	return func(c *Chat) { c.onUpload = h }
}

// WithHistoryPageSize sets the history page size.
func WithHistoryPageSize(n int) Option {
	return func(c *Chat) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithClock overrides the time source used for local message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Chat) { c.now = now }
}

// Chat is the chat orchestrator of one session. It is safe for
// concurrent use; no lock is held while the backend is called.
type Chat struct {
	backend  Backend
	onUpload UploadHandler
	log      *zap.Logger
	now      func() time.Time
	pageSize int

	mu          sync.Mutex
	initialized bool
	threads     map[Scope][]api.ChatMessage
	tab         Tab
	documentID  api.ID

	typing    bool
	uploading bool
	inputErr  string

	convLoading bool
	convErr     string
	convToken   uint64

	history        []api.ChatMessage
	historyPage    int
	hasMoreHistory bool
	historyLoading bool
}

// New creates a Chat on the general tab with empty threads.
func New(backend Backend, opts ...Option) *Chat {
	c := &Chat{
		backend:        backend,
		log:            zap.NewNop(),
		now:            time.Now,
		pageSize:       api.DefaultHistoryLimit,
		threads:        make(map[Scope][]api.ChatMessage),
		tab:            TabGeneral,
		historyPage:    1,
		hasMoreHistory: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("chat")
	return c
}

// Mount seeds the welcome message and loads the first history page. It
// runs once; later calls return nil without doing anything.
func (c *Chat) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = true
	c.threads[General] = append(c.threads[General], api.ChatMessage{
		ID:        WelcomeID,
		Message:   WelcomeText,
		IsFee:     true,
		Timestamp: c.now(),
	})
	c.mu.Unlock()

	if err := c.LoadMoreHistory(ctx); err != nil && !errors.Is(err, ErrBusy) {
		return fmt.Errorf("loading chat history: %w", err)
	}
	return nil
}

// SetDocument tells the chat which document is selected. A new id
// replaces that document's thread with the backend's conversations; an
// empty id drops back to the general tab.
func (c *Chat) SetDocument(ctx context.Context, id api.ID) error {
	c.mu.Lock()
	if id == c.documentID {
		c.mu.Unlock()
		return nil
	}
	c.documentID = id
	if id == "" {
		c.convToken++
		c.convLoading = false
		c.convErr = ""
		c.tab = TabGeneral
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.loadConversations(ctx, id)
}

// RetryConversations reloads the current document's conversations after
// a failed load.
func (c *Chat) RetryConversations(ctx context.Context) error {
	c.mu.Lock()
	id := c.documentID
	busy := c.convLoading
	c.mu.Unlock()

	if id == "" {
		return ErrNoDocument
	}
	if busy {
		return ErrBusy
	}
	return c.loadConversations(ctx, id)
}

func (c *Chat) loadConversations(ctx context.Context, id api.ID) error {
	c.mu.Lock()
	c.convToken++
	token := c.convToken
	c.convLoading = true
	c.convErr = ""
	scope := DocumentScope(id)
	known := len(c.threads[scope])
	c.mu.Unlock()

	msgs, err := c.backend.GetDocumentConversations(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.convToken {
		c.log.Debug("discarding conversations for stale document", zap.String("document", id.String()))
		return ErrStale
	}
	c.convLoading = false
	if err != nil {
		c.log.Error("failed to load conversations", zap.String("document", id.String()), zap.Error(err))
		c.convErr = ConversationErrorText
		return err
	}
	// Messages added to the thread while the fetch ran are kept after
	// the server's conversation.
	thread := append([]api.ChatMessage(nil), msgs...)
	if cur := c.threads[scope]; len(cur) > known {
		thread = append(thread, cur[known:]...)
	}
	c.threads[scope] = thread
	return nil
}

// SetTab switches the visible thread. The document tab needs a document.
func (c *Chat) SetTab(tab Tab) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch tab {
	case TabGeneral:
	case TabDocument:
		if c.documentID == "" {
			return ErrNoDocument
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	c.tab = tab
	return nil
}

// activeScope returns the scope of the visible thread. Callers hold mu.
func (c *Chat) activeScope() Scope {
	if c.tab == TabDocument && c.documentID != "" {
		return DocumentScope(c.documentID)
	}
	return General
}

// activeDocument returns the document the composer is bound to. Callers hold mu.
func (c *Chat) activeDocument() api.ID {
	if c.tab == TabDocument {
		return c.documentID
	}
	return ""
}

// appendLocked adds a locally created message to scope. Callers hold mu.
func (c *Chat) appendLocked(scope Scope, text string, fee, system bool) {
	c.threads[scope] = append(c.threads[scope], api.ChatMessage{
		ID:        api.ID(uuid.NewString()),
		Message:   text,
		IsFee:     fee,
		IsSystem:  system,
		Timestamp: c.now(),
	})
}

// Send appends the user's message to the visible thread, then asks the
// backend for a reply. The reply, or a single apology bubble on failure,
// lands in the thread the message was sent from.
func (c *Chat) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.typing || c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	scope := c.activeScope()
	docID := c.activeDocument()
	c.appendLocked(scope, text, false, false)
	c.typing = true
	c.inputErr = ""
	c.mu.Unlock()

	resp, err := c.backend.SendChatMessage(ctx, docID, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.typing = false
	if err != nil {
		c.log.Error("failed to send message", zap.String("scope", string(scope)), zap.Error(err))
		c.inputErr = err.Error()
		c.appendLocked(scope, SendFailedText, true, false)
		return err
	}
	if reply, ok := resp.FeeReply(); ok {
		c.threads[scope] = append(c.threads[scope], reply)
	}
	return nil
}

// UploadDocument uploads a PDF from the composer and hands the new
// document to the upload handler. Failures become chat messages; the
// returned error is informational.
func (c *Chat) UploadDocument(ctx context.Context, file api.Upload) error {
	if err := api.ValidatePDF(file.Filename, file.ContentType); err != nil {
		c.mu.Lock()
		c.inputErr = err.Error()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.uploading = true
	c.inputErr = ""
	c.appendLocked(c.activeScope(), fmt.Sprintf("Uploading document: %s...", file.Filename), true, true)
	c.mu.Unlock()

	doc, err := c.backend.UploadDocument(ctx, file, api.TitleFromFilename(file.Filename))
	if err != nil {
		c.log.Error("chat upload failed", zap.String("file", file.Filename), zap.Error(err))
		c.mu.Lock()
		defer c.mu.Unlock()
		c.uploading = false
		c.inputErr = err.Error()
		c.appendLocked(c.activeScope(), fmt.Sprintf("Failed to upload document: %s. Please try again.", err.Error()), true, false)
		return err
	}

	var handlerErr error
	if c.onUpload != nil {
		handlerErr = c.onUpload(ctx, *doc)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = false
	if handlerErr != nil {
		c.log.Error("handling uploaded document", zap.String("document", doc.ID.String()), zap.Error(handlerErr))
		c.appendLocked(c.activeScope(), fmt.Sprintf("There was an error processing the document: %s", handlerErr.Error()), true, false)
		return handlerErr
	}
	c.appendLocked(c.activeScope(), fmt.Sprintf("Document \"%s\" has been uploaded successfully. I'll analyze it and we can discuss it.", doc.Title), true, false)
	if c.documentID != "" {
		c.tab = TabDocument
	}
	return nil
}

// DismissError clears the composer's error alert.
func (c *Chat) DismissError() {
	c.mu.Lock()
	c.inputErr = ""
	c.mu.Unlock()
}
