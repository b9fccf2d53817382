// Package tools declares the MCP tool and resource surface and binds it to
// the supervisor, control-channel, Trello, and social packages. Every failure
// is recovered here and turned into a descriptive text result; the transport
// only ever sees unknown-tool errors.
package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/screenshot"
	"github.com/cexll/solar2d-mcp/internal/social"
	"github.com/cexll/solar2d-mcp/internal/supervisor"
)

// Deps carries the long-lived collaborators the handlers share. One instance
// lives for the whole server process.
type Deps struct {
	Supervisor *supervisor.Supervisor
	Poller     *screenshot.Poller
	Preview    *social.PreviewServer
}

// Register adds every tool and resource to the server.
func Register(server *mcp.Server, deps *Deps) {
	registerSimulatorTools(server, deps)
	registerScreenshotTools(server, deps)
	registerTouchTools(server)
	registerTrelloTools(server)
	registerSocialTools(server, deps)
	registerResources(server)
}

// textResult wraps a plain text payload.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult reports a handled failure as a text result flagged as an error,
// keeping it out of the transport layer.
func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// imageResult returns a caption followed by raw image bytes.
func imageResult(caption string, data []byte) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: caption},
			&mcp.ImageContent{Data: data, MIMEType: "image/jpeg"},
		},
	}
}
