package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Backend is the part of the Fee API exposed as tools.
type Backend interface {
	GetDocuments(ctx context.Context) ([]api.Document, error)
	AnalyzeDocument(ctx context.Context, documentID api.ID) (*api.Analysis, error)
	GetAnalysis(ctx context.Context, analysisID api.ID) (*api.AnalysisRecord, error)
	SendChatMessage(ctx context.Context, documentID api.ID, message string) (*api.ChatResponse, error)
	GetDocumentConversations(ctx context.Context, documentID api.ID) ([]api.ChatMessage, error)
	GetChatHistory(ctx context.Context, documentID api.ID, page, limit int) (*api.HistoryPage, error)
}

// Server wraps an MCP server that exposes the Fee API as tools.
type Server struct {
	backend Backend
	log     *zap.Logger
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server over backend.
func NewServer(backend Backend, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		backend: backend,
		log:     log.Named("mcp"),
	}

	s.mcp = server.NewMCPServer(
		"fee",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	s.mcp.AddTool(analyzeDocumentTool, s.handleAnalyzeDocument)
	s.mcp.AddTool(getAnalysisTool, s.handleGetAnalysis)
	s.mcp.AddTool(chatTool, s.handleChat)
	s.mcp.AddTool(getConversationsTool, s.handleGetConversations)
	s.mcp.AddTool(getChatHistoryTool, s.handleGetChatHistory)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	s.log.Info("serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}
