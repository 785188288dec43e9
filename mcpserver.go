package main

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the query pipeline as an MCP tool so agent clients
// can ask questions about a document by URL.
func NewMCPServer(runner QueryRunner) *server.MCPServer {
	tool := mcp.NewTool("ask_document",
		mcp.WithDescription("Answer a question about a document fetched from a URL"),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("URL of the document to query"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer from the document"),
		))

	srv := server.NewMCPServer("docquery", version, server.WithToolCapabilities(false))
	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answers, _, err := runner.Run(ctx, document, []string{question})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(answers[0]), nil
	})

	return srv
}
