package chat

import (
	"github.com/ziadkadry99/fee-web/internal/api"
)

// View is a copy of the chat state for rendering.
type View struct {
	Tab               Tab               `json:"tab"`
	Scope             Scope             `json:"scope"`
	DocumentID        api.ID            `json:"document_id,omitempty"`
	Messages          []api.ChatMessage `json:"messages"`
	Typing            bool              `json:"typing"`
	Uploading         bool              `json:"uploading"`
	InputError        string            `json:"input_error,omitempty"`
	LoadingThread     bool              `json:"loading_thread"`
	ThreadError       string            `json:"thread_error,omitempty"`
	History           []api.ChatMessage `json:"history"`
	HasMoreHistory    bool              `json:"has_more_history"`
	LoadingHistory    bool              `json:"loading_history"`
	Placeholder       string            `json:"placeholder"`
	DocumentDiscussed bool              `json:"document_discussed"`
}

// View returns the current state. Slices are copies.
func (c *Chat) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	scope := c.activeScope()
	v := View{
		Tab:               c.tab,
		Scope:             scope,
		DocumentID:        c.documentID,
		Messages:          append([]api.ChatMessage{}, c.threads[scope]...),
		Typing:            c.typing,
		Uploading:         c.uploading,
		InputError:        c.inputErr,
		LoadingThread:     c.convLoading,
		ThreadError:       c.convErr,
		History:           append([]api.ChatMessage{}, c.history...),
		HasMoreHistory:    c.hasMoreHistory,
		LoadingHistory:    c.historyLoading,
		DocumentDiscussed: c.tab == TabDocument,
	}
	switch {
	case c.uploading:
		v.Placeholder = "Uploading document..."
	case c.activeDocument() != "":
		v.Placeholder = "Ask about the document..."
	default:
		v.Placeholder = "Chat with Fee or upload a document..."
	}
	return v
}

// Thread returns a copy of the messages stored under scope.
func (c *Chat) Thread(scope Scope) []api.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.ChatMessage{}, c.threads[scope]...)
}

// Snapshot is the persistent part of the chat state. In-flight flags are
// not saved.
type Snapshot struct {
	Initialized    bool                        `json:"initialized"`
	Tab            Tab                         `json:"tab"`
	DocumentID     api.ID                      `json:"document_id,omitempty"`
	Threads        map[Scope][]api.ChatMessage `json:"threads"`
	ThreadError    string                      `json:"thread_error,omitempty"`
	History        []api.ChatMessage           `json:"history,omitempty"`
	HistoryPage    int                         `json:"history_page"`
	HasMoreHistory bool                        `json:"has_more_history"`
}

// Snapshot captures the state for persistence.
func (c *Chat) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	threads := make(map[Scope][]api.ChatMessage, len(c.threads))
	for scope, msgs := range c.threads {
		threads[scope] = append([]api.ChatMessage(nil), msgs...)
	}
	return Snapshot{
		Initialized:    c.initialized,
		Tab:            c.tab,
		DocumentID:     c.documentID,
		Threads:        threads,
		ThreadError:    c.convErr,
		History:        append([]api.ChatMessage(nil), c.history...),
		HistoryPage:    c.historyPage,
		HasMoreHistory: c.hasMoreHistory,
	}
}

// Restore replaces the state with s. Responses still in flight from
// before the restore are discarded.
func (c *Chat) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = s.Initialized
	c.tab = s.Tab
	if c.tab != TabDocument || s.DocumentID == "" {
		c.tab = TabGeneral
	}
	c.documentID = s.DocumentID
	c.threads = make(map[Scope][]api.ChatMessage, len(s.Threads))
	for scope, msgs := range s.Threads {
		c.threads[scope] = append([]api.ChatMessage(nil), msgs...)
	}
	c.convErr = s.ThreadError
	c.convToken++
	c.convLoading = false
	c.history = append([]api.ChatMessage(nil), s.History...)
	c.historyPage = s.HistoryPage
	if c.historyPage < 1 {
		c.historyPage = 1
	}
	c.hasMoreHistory = s.HasMoreHistory
}
