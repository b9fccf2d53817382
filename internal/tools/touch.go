package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/project"
	"github.com/cexll/solar2d-mcp/internal/touch"
)

type TapParams struct {
	ProjectPath string  `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	Left        float64 `json:"left" jsonschema:"Left edge of the target's bounding box, as a percentage of screen width (0-100)"`
	Right       float64 `json:"right" jsonschema:"Right edge of the target's bounding box, as a percentage of screen width (0-100)"`
	Top         float64 `json:"top" jsonschema:"Top edge of the target's bounding box, as a percentage of screen height (0-100)"`
	Bottom      float64 `json:"bottom" jsonschema:"Bottom edge of the target's bounding box, as a percentage of screen height (0-100)"`
}

type DragParams struct {
	ProjectPath string  `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	FromX       float64 `json:"from_x" jsonschema:"Drag start X as a percentage of screen width (0-100)"`
	FromY       float64 `json:"from_y" jsonschema:"Drag start Y as a percentage of screen height (0-100)"`
	ToX         float64 `json:"to_x" jsonschema:"Drag end X as a percentage of screen width (0-100)"`
	ToY         float64 `json:"to_y" jsonschema:"Drag end Y as a percentage of screen height (0-100)"`
	DurationMs  int     `json:"duration_ms,omitempty" jsonschema:"Drag duration in milliseconds (default: 300)"`
}

type DisplayInfoParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
}

func registerTouchTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_tap",
		Description: "Simulate a tap on the Solar2D simulator screen. Provide the bounding box of the target element as screen percentages (e.g. from analyzing a screenshot); the tap lands at the box center.",
	}, handleTap)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "simulate_drag",
		Description: "Simulate a drag gesture on the Solar2D simulator screen between two points given as screen percentages.",
	}, handleDrag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_display_info",
		Description: "Get the Solar2D simulator's content coordinate space (dimensions and origin). Useful for debugging tap coordinate issues.",
	}, handleDisplayInfo)
}

func validPercent(values ...float64) bool {
	for _, v := range values {
		if v < 0 || v > 100 {
			return false
		}
	}
	return true
}

func handleTap(ctx context.Context, req *mcp.CallToolRequest, params TapParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}
	if !validPercent(params.Left, params.Right, params.Top, params.Bottom) {
		return errorResult("Error: bounding box values must be percentages between 0 and 100"), nil, nil
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	info, err := touch.ReadDisplayInfo(identity)
	if errors.Is(err, touch.ErrNoDisplayInfo) {
		return errorResult("Error: display info not found. Run the project with run_solar2d_project first; the touch module writes coordinate info on startup."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Error reading display info: %v", err)), nil, nil
	}

	x, y := info.BoxCenter(params.Left, params.Right, params.Top, params.Bottom)
	if err := touch.Tap(identity, x, y); err != nil {
		return errorResult(fmt.Sprintf("Error sending tap command: %v", err)), nil, nil
	}

	return textResult(fmt.Sprintf(
		"Tap sent at content coordinates (%d, %d).\n\nBounding box: left=%.1f%% right=%.1f%% top=%.1f%% bottom=%.1f%%\nContent size: %.0fx%.0f\n\nUse get_simulator_screenshot to verify the result.",
		x, y, params.Left, params.Right, params.Top, params.Bottom,
		info.ContentWidth, info.ContentHeight)), nil, nil
}

func handleDrag(ctx context.Context, req *mcp.CallToolRequest, params DragParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}
	if !validPercent(params.FromX, params.FromY, params.ToX, params.ToY) {
		return errorResult("Error: drag coordinates must be percentages between 0 and 100"), nil, nil
	}
	duration := params.DurationMs
	if duration <= 0 {
		duration = 300
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	info, err := touch.ReadDisplayInfo(identity)
	if errors.Is(err, touch.ErrNoDisplayInfo) {
		return errorResult("Error: display info not found. Run the project with run_solar2d_project first; the touch module writes coordinate info on startup."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Error reading display info: %v", err)), nil, nil
	}

	x1 := int(info.ContentWidth * params.FromX / 100)
	y1 := int(info.ContentHeight * params.FromY / 100)
	x2 := int(info.ContentWidth * params.ToX / 100)
	y2 := int(info.ContentHeight * params.ToY / 100)

	if err := touch.Drag(identity, x1, y1, x2, y2, duration); err != nil {
		return errorResult(fmt.Sprintf("Error sending drag command: %v", err)), nil, nil
	}

	return textResult(fmt.Sprintf(
		"Drag sent from (%d, %d) to (%d, %d) over %dms.\n\nUse get_simulator_screenshot to verify the result.",
		x1, y1, x2, y2, duration)), nil, nil
}

func handleDisplayInfo(ctx context.Context, req *mcp.CallToolRequest, params DisplayInfoParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	info, err := touch.ReadDisplayInfo(identity)
	if errors.Is(err, touch.ErrNoDisplayInfo) {
		return errorResult("Error: display info not found. Run the project with run_solar2d_project first; the touch module writes coordinate info on startup."), nil, nil
	}
	if err != nil {
		return errorResult(fmt.Sprintf("Error reading display info: %v", err)), nil, nil
	}

	pretty, _ := json.MarshalIndent(info, "", "  ")
	return textResult(fmt.Sprintf(
		"Display info for %s:\n\n%s\n\nTap coordinates use content space: (0,0) is the top-left of the content area.",
		identity, pretty)), nil, nil
}
