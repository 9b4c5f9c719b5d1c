// Package mcpserver exposes the procurement service as MCP tools, guide
// resources and prompts.
package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/naramarket/naramarket-mcp/internal/service"
)

type Server struct {
	server *mcp.Server
	svc    service.IProcurementService
	logger zerolog.Logger
	tools  []string
}

func New(svc service.IProcurementService, logger zerolog.Logger) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    service.AppName,
			Version: service.AppVersion,
		}, nil),
		svc:    svc,
		logger: logger.With().Str("component", "mcp").Logger(),
	}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// MCP returns the underlying go-sdk server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// ToolNames lists the registered tools in registration order.
func (s *Server) ToolNames() []string {
	return append([]string(nil), s.tools...)
}

// RunStdio serves a single client over stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info().Int("tools", len(s.tools)).Msg("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// addTool registers a typed tool. h's result is returned as JSON text; an
// error becomes a tool error result, not a protocol error.
func addTool[In any](s *Server, name, description string, h func(ctx context.Context, in In) (any, error)) {
	mcp.AddTool(s.server, &mcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
			out, err := h(ctx, in)
			if err != nil {
				s.logger.Warn().Err(err).Str("tool", name).Msg("tool call failed")
				return errorResult(err), nil, nil
			}
			res, err := jsonResult(out)
			if err != nil {
				return nil, nil, err
			}
			return res, nil, nil
		})
	s.tools = append(s.tools, name)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	b, _ := json.Marshal(map[string]any{"success": false, "error": err.Error()})
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}
