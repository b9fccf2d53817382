package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/project"
	"github.com/cexll/solar2d-mcp/internal/screenshot"
)

type StartRecordingParams struct {
	ProjectPath string  `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	Duration    float64 `json:"duration,omitempty" jsonschema:"Recording duration in seconds (default: 60, max: 300)"`
}

type StopRecordingParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
}

type GetScreenshotParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	Which       string `json:"which,omitempty" jsonschema:"'latest' (default) = capture fresh screenshot now. 'last' = most recent from recording. 'all' = list recorded screenshots. Or a number like '5' for specific recorded screenshot."`
}

type ListScreenshotsParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
}

func registerScreenshotTools(server *mcp.Server, deps *Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_screenshot_recording",
		Description: "Start recording screenshots from the Solar2D simulator. Screenshots are captured every 100ms. Can be called while already recording to extend the duration.",
	}, handleStartRecording)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stop_screenshot_recording",
		Description: "Stop screenshot recording early.",
	}, handleStopRecording)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_simulator_screenshot",
		Description: "Get a screenshot from the Solar2D simulator for visual analysis. By default captures a fresh screenshot of the current simulator state. Use 'last' or a number to retrieve from a previous recording session.",
	}, deps.handleGetScreenshot)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_screenshots",
		Description: "List all available screenshots from the Solar2D simulator.",
	}, handleListScreenshots)
}

func handleStartRecording(ctx context.Context, req *mcp.CallToolRequest, params StartRecordingParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}
	seconds := int(params.Duration)
	if seconds <= 0 {
		seconds = 60
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	seconds, err := screenshot.StartRecording(identity, seconds)
	if err != nil {
		return errorResult(fmt.Sprintf("Error starting recording: %v", err)), nil, nil
	}

	return textResult(fmt.Sprintf(
		"Screenshot recording started!\n\nDuration: %d seconds\nInterval: 100ms (10 fps)\nScreenshots will be saved to: %s\n\nUse get_simulator_screenshot to view captured images.\nUse stop_screenshot_recording to stop early.",
		seconds, project.ScreenshotDir(identity))), nil, nil
}

func handleStopRecording(ctx context.Context, req *mcp.CallToolRequest, params StopRecordingParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	if err := screenshot.StopRecording(identity); err != nil {
		return errorResult(fmt.Sprintf("Error stopping recording: %v", err)), nil, nil
	}
	return textResult("Screenshot recording stopped."), nil, nil
}

func (d *Deps) handleGetScreenshot(ctx context.Context, req *mcp.CallToolRequest, params GetScreenshotParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}
	which := params.Which
	if which == "" {
		which = "latest"
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))

	if which == "latest" {
		data, err := d.Poller.CaptureNow(ctx, identity)
		if errors.Is(err, screenshot.ErrTimeout) {
			return errorResult("Timeout waiting for screenshot. Make sure the simulator is running."), nil, nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Error capturing screenshot: %v", err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: "image/jpeg"}},
		}, nil, nil
	}

	if which == "all" {
		manifest, err := screenshot.ListManifest(identity)
		if err != nil || len(manifest) == 0 {
			return textResult("No recorded screenshots found. Use start_screenshot_recording to begin capturing."), nil, nil
		}
		lines := []string{fmt.Sprintf("Found %d screenshot(s):", len(manifest)), ""}
		for _, m := range manifest {
			lines = append(lines, fmt.Sprintf("  %s (%d bytes)", m.Name, m.Size))
		}
		lines = append(lines, "", "Use get_simulator_screenshot with a specific number to view an image.")
		return textResult(strings.Join(lines, "\n")), nil, nil
	}

	path, err := screenshot.Resolve(identity, which)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("Error reading %s: %v", filepath.Base(path), err)), nil, nil
	}
	return imageResult("Screenshot: "+filepath.Base(path), data), nil, nil
}

func handleListScreenshots(ctx context.Context, req *mcp.CallToolRequest, params ListScreenshotsParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	dir := project.ScreenshotDir(identity)
	if _, err := os.Stat(dir); err != nil {
		return textResult(fmt.Sprintf(
			"Screenshot directory not found: %s\n\nMake sure to run the project first with run_solar2d_project.", dir)), nil, nil
	}

	manifest, err := screenshot.ListManifest(identity)
	if err != nil || len(manifest) == 0 {
		return textResult("No screenshots found. Use start_screenshot_recording to begin capturing."), nil, nil
	}

	lines := []string{fmt.Sprintf("Found %d screenshot(s) in %s:", len(manifest), dir), ""}
	for _, m := range manifest {
		lines = append(lines, fmt.Sprintf("  %s (%d bytes)", m.Name, m.Size))
	}
	lines = append(lines, "", "Use get_simulator_screenshot to view images.")
	return textResult(strings.Join(lines, "\n")), nil, nil
}
