package tools

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
)

const infoURI = "solar2d://info"

func registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         infoURI,
		Name:        "Solar2D Server Info",
		Description: "Current server configuration: simulator path, integration status, and artifact locations.",
		MIMEType:    "text/plain",
	}, handleInfoResource)
}

func handleInfoResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	cfg := config.Load()

	simulator := cfg.SimulatorPath
	if simulator == "" {
		simulator = "not configured (use configure_solar2d)"
	}

	trelloStatus := "not configured"
	if cfg.Trello.APIKey != "" && cfg.Trello.APIToken != "" {
		trelloStatus = "configured"
		if len(cfg.Trello.LaneMap) == 0 {
			trelloStatus = "configured (board not set up; run setup_trello_board)"
		}
	}

	socialStatus := "not configured"
	if cfg.Social.LateAPIKey != "" {
		socialStatus = "configured"
	}

	text := strings.Join([]string{
		"Solar2D MCP Server",
		"",
		"Simulator: " + simulator,
		"Trello: " + trelloStatus,
		"Social (Late): " + socialStatus,
		"",
		fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH),
		"Artifacts (logs, screenshots, control files): " + os.TempDir(),
	}, "\n")

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: infoURI, MIMEType: "text/plain", Text: text},
		},
	}, nil
}
