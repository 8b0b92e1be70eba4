// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the answer pipeline and the template registry as tools over the
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pmartynov/otvet/internal/match"
	"github.com/pmartynov/otvet/internal/pipeline"
	"github.com/pmartynov/otvet/internal/registry"
)

// Responder answers one query. Satisfied by *pipeline.Pipeline.
type Responder interface {
	Respond(ctx context.Context, req pipeline.Request) (*pipeline.Answer, error)
}

// Server wraps the MCP server with otvet tools.
type Server struct {
	mcp  *server.MCPServer
	pipe Responder
	reg  *registry.Registry
}

// New creates a new MCP server with all tools registered.
func New(pipe Responder, reg *registry.Registry) *Server {
	s := &Server{pipe: pipe, reg: reg}

	s.mcp = server.NewMCPServer(
		"Otvet",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("answer_query",
		mcp.WithDescription("Answer a support query. Letter mode routes through the "+
			"template registry and returns mail fields; normal mode generates directly."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query text")),
		mcp.WithString("mode", mcp.Description("Either \"letter\" or \"normal\" (default \"normal\")")),
		mcp.WithString("context", mcp.Description("Optional retrieved-document excerpts")),
	), s.answerQuery)

	s.mcp.AddTool(mcp.NewTool("find_template",
		mcp.WithDescription("Run the template matcher against a query without producing an answer."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query text")),
	), s.findTemplate)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List all registered letter templates in priority order."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("add_template",
		mcp.WithDescription("Register a new letter template. The id must be unused; "+
			"the registry is re-sorted and persisted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Unique template id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short template name")),
		mcp.WithString("description", mcp.Description("Human-readable description")),
		mcp.WithString("patterns", mcp.Required(), mcp.Description("Comma-separated keywords that must ALL appear in the query")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action key (e.g. block_and_notify)")),
		mcp.WithString("letter_file", mcp.Required(), mcp.Description("Letter file reference in the letters store")),
		mcp.WithString("priority", mcp.Description("Integer priority, higher wins (default 10)")),
	), s.addTemplate)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) answerQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := pipeline.ModeNormal
	if m, err := req.RequireString("mode"); err == nil && m != "" {
		if m != pipeline.ModeLetter && m != pipeline.ModeNormal {
			return mcp.NewToolResultError(fmt.Sprintf("unknown mode: %s", m)), nil
		}
		mode = m
	}
	contextText := ""
	if c, err := req.RequireString("context"); err == nil {
		contextText = c
	}

	answer, err := s.pipe.Respond(ctx, pipeline.Request{Text: query, Context: contextText, Mode: mode})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(answer, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := match.FindBest(s.reg.Snapshot(), query, "")
	if res == nil {
		return mcp.NewToolResultText("no template matched"), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"id":          res.Template.ID,
		"name":        res.Template.Name,
		"description": res.Template.Description,
		"action":      res.Template.Action,
		"letter_file": res.Template.LetterFile,
		"priority":    res.Template.Priority,
		"score":       res.Score,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.reg.Snapshot()
	if len(snap.Templates) == 0 {
		return mcp.NewToolResultText("no templates registered"), nil
	}
	out, _ := json.MarshalIndent(snap.Templates, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addTemplate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawPatterns, err := req.RequireString("patterns")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	letterFile, err := req.RequireString("letter_file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	description := ""
	if d, err := req.RequireString("description"); err == nil {
		description = d
	}
	priority := 10
	if p, err := req.RequireString("priority"); err == nil && p != "" {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid priority: %s", p)), nil
		}
		priority = n
	}

	var patterns []string
	for _, p := range strings.Split(rawPatterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return mcp.NewToolResultError("patterns must contain at least one keyword"), nil
	}

	t := registry.Template{
		ID:          id,
		Name:        name,
		Description: description,
		Patterns:    patterns,
		Action:      action,
		LetterFile:  letterFile,
		Priority:    priority,
	}
	if err := s.reg.Add(t); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s", id)), nil
}
