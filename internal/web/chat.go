package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/chat"
	"github.com/ziadkadry99/fee-web/internal/session"
)

// checkOrigin accepts the same browser origins as the CORS policy:
// the page's own host and local development servers, or any origin when
// AllowAllOrigins is set. Clients that send no Origin are not browsers.
func (h *Web) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.opts.AllowAllOrigins {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if u.Scheme != "http" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1":
		return true
	}
	return false
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "message" or "tab"
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type     string            `json:"type"` // "messages" or "error"
	Scope    chat.Scope        `json:"scope,omitempty"`
	Messages []api.ChatMessage `json:"messages,omitempty"`
	Content  string            `json:"content,omitempty"`
}

func (h *Web) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.FromRequest(w, r)
	// Carries the session cookie for first-time visitors.
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// The connection outlives the request deadline; each message gets its own.
	base := context.WithoutCancel(r.Context())

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read", zap.Error(err))
			}
			return
		}
		s.Touch()

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			h.sendError(conn, "invalid message format")
			continue
		}

		if req.Content == "" {
			h.sendError(conn, "content is required")
			continue
		}

		switch req.Type {
		case "message":
			h.handleChatMessage(base, conn, s, req)
		case "tab":
			h.handleTabMessage(conn, s, req)
		default:
			h.sendError(conn, "unknown message type: "+req.Type)
		}
	}
}

func (h *Web) handleChatMessage(base context.Context, conn *websocket.Conn, s *session.Session, req chatRequest) {
	ctx, cancel := context.WithTimeout(base, h.opts.MessageTimeout)
	defer cancel()

	err := s.Chat.Send(ctx, req.Content)
	h.sessions.Save(ctx, s)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		h.sendError(conn, "content is required")
		return
	case errors.Is(err, chat.ErrBusy):
		h.sendError(conn, "a message is already being sent")
		return
	}
	// A failed send still produced an apology bubble worth showing.
	h.sendMessages(conn, s)
}

func (h *Web) handleTabMessage(conn *websocket.Conn, s *session.Session, req chatRequest) {
	if err := s.Chat.SetTab(chat.Tab(req.Content)); err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.sendMessages(conn, s)
}

func (h *Web) sendMessages(conn *websocket.Conn, s *session.Session) {
	v := s.Chat.View()
	h.sendResponse(conn, chatResponse{
		Type:     "messages",
		Scope:    v.Scope,
		Messages: v.Messages,
	})
}

func (h *Web) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		h.log.Warn("websocket write", zap.Error(err))
	}
}

func (h *Web) sendError(conn *websocket.Conn, message string) {
	resp := chatResponse{
		Type:    "error",
		Content: message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		h.log.Warn("websocket write error", zap.Error(err))
	}
}
