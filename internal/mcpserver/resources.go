package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/naramarket/naramarket-mcp/internal/guides"
)

const markdownMIME = "text/markdown"

func (s *Server) registerResources() {
	for _, g := range guides.Resources {
		s.server.AddResource(&mcp.Resource{
			Name:        g.Name,
			URI:         g.URI,
			Description: g.Description,
			MIMEType:    markdownMIME,
		}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{
					URI:      req.Params.URI,
					MIMEType: markdownMIME,
					Text:     g.Text,
				}},
			}, nil
		})
	}
}

func (s *Server) registerPrompts() {
	for _, g := range guides.Prompts {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        g.Name,
			Description: g.Description,
		}, func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return &mcp.GetPromptResult{
				Description: g.Description,
				Messages: []*mcp.PromptMessage{{
					Role:    "user",
					Content: &mcp.TextContent{Text: g.Text},
				}},
			}, nil
		})
	}
}
