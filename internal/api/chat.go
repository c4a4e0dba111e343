package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultHistoryLimit is the page size used when a caller passes none.
const DefaultHistoryLimit = 20

// SendChatMessage posts message to the document-scoped chat endpoint when
// documentID is set, and to the general chat endpoint otherwise. The
// response must carry a conversation array.
func (c *Client) SendChatMessage(ctx context.Context, documentID ID, message string) (*ChatResponse, error) {
	const op = "send chat message"
	const fallback = "Failed to send message"

	path := "/chat/"
	if documentID != "" {
		path = "/documents/" + url.PathEscape(documentID.String()) + "/chat/"
	}

	resp, err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"message": message})
	if err != nil {
		// Chat surfaces the transport error text itself.
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		return nil, c.failure(op, 0, nil, err, msg)
	}
	if !resp.ok() {
		return nil, c.failure(op, resp.status, resp.body,
			fmt.Errorf("unexpected status %d", resp.status),
			fmt.Sprintf("Request failed with status code %d", resp.status))
	}

	var envelope struct {
		Conversation *[]ChatMessage `json:"conversation"`
	}
	if err := json.Unmarshal(resp.body, &envelope); err != nil || envelope.Conversation == nil {
		return nil, c.failure(op, resp.status, nil, ErrInvalidResponse, ErrInvalidResponse.Error())
	}
	return &ChatResponse{Conversation: *envelope.Conversation}, nil
}

// GetDocumentConversations returns every stored message for a document.
// An empty documentID returns an empty list without touching the network.
func (c *Client) GetDocumentConversations(ctx context.Context, documentID ID) ([]ChatMessage, error) {
	const op = "get conversations"
	const fallback = "Failed to load conversations"

	if documentID == "" {
		return []ChatMessage{}, nil
	}

	resp, err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID.String())+"/conversations/", nil, "")
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	msgs, err := decodeList[ChatMessage](resp.body)
	if err != nil {
		return nil, c.failure(op, resp.status, nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err), fallback)
	}
	return msgs, nil
}

// GetChatHistory fetches one page of conversation history, document
// scoped when documentID is set. The envelope is returned as received.
func (c *Client) GetChatHistory(ctx context.Context, documentID ID, page, limit int) (*HistoryPage, error) {
	const op = "get chat history"
	const fallback = "Failed to load chat history"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	path := "/conversations/"
	if documentID != "" {
		path = "/documents/" + url.PathEscape(documentID.String()) + "/conversations/"
	}

	resp, err := c.do(ctx, http.MethodGet, path+"?"+params.Encode(), nil, "")
	if err != nil {
		return nil, c.failure(op, 0, nil, err, fallback)
	}
	if !resp.ok() {
		return nil, c.statusFailure(op, resp, fallback)
	}

	var hp HistoryPage
	if err := json.Unmarshal(resp.body, &hp); err != nil {
		return nil, c.failure(op, resp.status, nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err), fallback)
	}
	return &hp, nil
}
