package chat

import (
	"context"

	"go.uber.org/zap"
)

// LoadMoreHistory appends the next page of general chat history to the
// sidebar list. Loading stops once the server reports no next page.
// History entries are never merged into the live threads.
func (c *Chat) LoadMoreHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.historyLoading {
		c.mu.Unlock()
		return ErrBusy
	}
	if !c.hasMoreHistory {
		c.mu.Unlock()
		return nil
	}
	page := c.historyPage
	c.historyLoading = true
	c.mu.Unlock()

	hp, err := c.backend.GetChatHistory(ctx, "", page, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyLoading = false
	if err != nil {
		c.log.Warn("failed to load chat history", zap.Int("page", page), zap.Error(err))
		return err
	}
	c.hasMoreHistory = hp.HasNext()
	c.historyPage = page + 1
	c.history = append(c.history, hp.Results...)
	return nil
}
