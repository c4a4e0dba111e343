package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listDocumentsTool defines the list_documents MCP tool.
var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the documents uploaded to Fee, with their ids, titles and upload dates."),
)

// analyzeDocumentTool defines the analyze_document MCP tool.
var analyzeDocumentTool = mcp.NewTool("analyze_document",
	mcp.WithDescription("Run Fee's inclusivity analysis on a document. Returns the inclusivity score, concerns, Fee's perspective and facet findings."),
	mcp.WithString("document_id",
		mcp.Required(),
		mcp.Description("Id of the document to analyze, as returned by list_documents"),
	),
)

// getAnalysisTool defines the get_analysis MCP tool.
var getAnalysisTool = mcp.NewTool("get_analysis",
	mcp.WithDescription("Fetch a stored analysis by its id without running the analysis again."),
	mcp.WithString("analysis_id",
		mcp.Required(),
		mcp.Description("Id of the stored analysis"),
	),
)

// chatTool defines the chat MCP tool.
var chatTool = mcp.NewTool("chat",
	mcp.WithDescription("Send a message to Fee and return Fee's reply. Pass document_id to discuss a specific document."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The message to send"),
	),
	mcp.WithString("document_id",
		mcp.Description("Document to discuss (optional; general chat when omitted)"),
	),
)

// getConversationsTool defines the get_conversations MCP tool.
var getConversationsTool = mcp.NewTool("get_conversations",
	mcp.WithDescription("Get the full conversation transcript about one document."),
	mcp.WithString("document_id",
		mcp.Required(),
		mcp.Description("Id of the document"),
	),
)

// getChatHistoryTool defines the get_chat_history MCP tool.
var getChatHistoryTool = mcp.NewTool("get_chat_history",
	mcp.WithDescription("Get one page of chat history, optionally restricted to a document."),
	mcp.WithString("document_id",
		mcp.Description("Restrict history to this document (optional)"),
	),
	mcp.WithNumber("page",
		mcp.Description("Page number, starting at 1 (default 1)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Messages per page (default 20)"),
	),
)
