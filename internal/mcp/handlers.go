package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/analysis"
	"github.com/ziadkadry99/fee-web/internal/api"
)

// handleListDocuments lists every uploaded document.
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.backend.GetDocuments(ctx)
	if err != nil {
		return s.toolError("list_documents", err), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents have been uploaded yet. Upload one with `fee upload`."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d document(s):\n", len(docs)))
	for _, d := range docs {
		sb.WriteString(fmt.Sprintf("\n- [%s] %s", d.ID, d.Title))
		if !d.UploadedAt.IsZero() {
			sb.WriteString(fmt.Sprintf(" (uploaded %s)", d.UploadedAt.Format("2006-01-02")))
		}
	}
	sb.WriteString("\n")
	return mcp.NewToolResultText(sb.String()), nil
}

// handleAnalyzeDocument runs the analysis of one document.
func (s *Server) handleAnalyzeDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("missing required parameter: document_id"), nil
	}

	a, err := s.backend.AnalyzeDocument(ctx, api.ID(id))
	if err != nil {
		return s.toolError("analyze_document", err), nil
	}
	return mcp.NewToolResultText(formatAnalysis(a)), nil
}

// handleGetAnalysis fetches a stored analysis.
func (s *Server) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("analysis_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("missing required parameter: analysis_id"), nil
	}

	rec, err := s.backend.GetAnalysis(ctx, api.ID(id))
	if err != nil {
		return s.toolError("get_analysis", err), nil
	}
	header := fmt.Sprintf("Analysis %s of document %s\n\n", rec.ID, rec.Document)
	return mcp.NewToolResultText(header + formatAnalysis(&rec.FeePerspectiveAnalysis)), nil
}

// handleChat sends one message to Fee.
func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}
	docID := api.ID(request.GetString("document_id", ""))

	resp, err := s.backend.SendChatMessage(ctx, docID, message)
	if err != nil {
		return s.toolError("chat", err), nil
	}
	reply, ok := resp.FeeReply()
	if !ok {
		return mcp.NewToolResultText("Fee did not reply."), nil
	}
	return mcp.NewToolResultText(reply.Message), nil
}

// handleGetConversations returns the transcript about one document.
func (s *Server) handleGetConversations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("missing required parameter: document_id"), nil
	}

	msgs, err := s.backend.GetDocumentConversations(ctx, api.ID(id))
	if err != nil {
		return s.toolError("get_conversations", err), nil
	}
	if len(msgs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No conversations about document %s yet.", id)), nil
	}
	return mcp.NewToolResultText(formatTranscript(msgs)), nil
}

// handleGetChatHistory returns one history page.
func (s *Server) handleGetChatHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID := api.ID(request.GetString("document_id", ""))
	page := request.GetInt("page", 1)
	limit := request.GetInt("limit", api.DefaultHistoryLimit)

	hist, err := s.backend.GetChatHistory(ctx, docID, page, limit)
	if err != nil {
		return s.toolError("get_chat_history", err), nil
	}
	if len(hist.Results) == 0 {
		return mcp.NewToolResultText("No chat history on this page."), nil
	}

	text := formatTranscript(hist.Results)
	if hist.HasNext() {
		text += fmt.Sprintf("\nMore history available: request page %d.\n", max(page, 1)+1)
	}
	return mcp.NewToolResultText(text), nil
}

// toolError logs err and turns it into a tool error result. Backend
// failures are reported to the agent, not returned as protocol errors.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.log.Warn("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

// formatTranscript renders messages oldest first, one per block.
func formatTranscript(msgs []api.ChatMessage) string {
	var sb strings.Builder
	for _, m := range msgs {
		who := "User"
		switch {
		case m.IsSystem:
			who = "System"
		case m.IsFee:
			who = "Fee"
		}
		sb.WriteString(who)
		if !m.Timestamp.IsZero() {
			sb.WriteString(" (" + m.Timestamp.Format("2006-01-02 15:04") + ")")
		}
		sb.WriteString(":\n")
		sb.WriteString(m.Message)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// formatAnalysis converts an analysis into a text report optimized for
// AI agent consumption.
func formatAnalysis(a *api.Analysis) string {
	ov := analysis.BuildOverview(a)
	pv := analysis.BuildPerspective(a)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Inclusivity score: %s (%s)\n", ov.Percent, ov.Tier.Message))
	if ov.Justification != "" {
		sb.WriteString(fmt.Sprintf("Justification: %s\n", ov.Justification))
	}
	writeList(&sb, "Major concerns", ov.MajorConcerns)
	writeList(&sb, "Positive aspects", ov.PositiveAspects)

	if len(pv.Expectations) > 0 {
		sb.WriteString("\n--- Fee's perspective ---\n")
		for _, row := range pv.Expectations {
			sb.WriteString(fmt.Sprintf("\n%s\n  Fee: %s\n  Consideration: %s\n", row.Label, row.Perspective, row.Consideration))
		}
	}
	writeList(&sb, "Recommendations", pv.Recommendations)

	for _, f := range pv.Facets {
		sb.WriteString(fmt.Sprintf("\n--- %s ---\n", f.Label))
		for _, c := range f.Categories {
			writeList(&sb, c.Label, c.Items)
		}
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", title))
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}
