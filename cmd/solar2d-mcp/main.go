package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
	"github.com/cexll/solar2d-mcp/internal/screenshot"
	"github.com/cexll/solar2d-mcp/internal/social"
	"github.com/cexll/solar2d-mcp/internal/supervisor"
	"github.com/cexll/solar2d-mcp/internal/tools"
)

const version = "v1.0.0"

func main() {
	// Stdout carries the MCP protocol; everything else goes to stderr.
	log.SetOutput(os.Stderr)

	// Load .env if present (optional)
	_ = godotenv.Load()

	log.Printf("[Solar2D MCP] Starting Solar2D MCP Server %s", version)
	if config.IsConfigured() {
		log.Printf("[Solar2D MCP] Simulator: %s", config.Load().SimulatorPath)
	} else {
		log.Println("[Solar2D MCP] Simulator not configured yet; configure_solar2d will walk through setup")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "solar2d-mcp",
		Version: version,
	}, nil)

	deps := &tools.Deps{
		Supervisor: supervisor.New(),
		Poller:     screenshot.NewPoller(),
		Preview:    social.NewPreviewServer(),
	}
	tools.Register(server, deps)
	log.Println("[Solar2D MCP] Registered simulator, screenshot, touch, Trello, and social tools")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[Solar2D MCP] Received shutdown signal")
		cancel()
	}()

	// Simulators run in their own sessions and survive server shutdown; a
	// relaunch of the same project evicts them.
	log.Println("[Solar2D MCP] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[Solar2D MCP] Server error: %v", err)
	}
	log.Println("[Solar2D MCP] Server stopped gracefully")
}
