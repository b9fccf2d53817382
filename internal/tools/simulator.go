package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
	"github.com/cexll/solar2d-mcp/internal/inject"
	"github.com/cexll/solar2d-mcp/internal/project"
)

type ConfigureParams struct {
	SimulatorPath string `json:"simulator_path,omitempty" jsonschema:"Path to the Solar2D/Corona Simulator executable. If not provided, will auto-detect and show options."`
	Confirm       bool   `json:"confirm,omitempty" jsonschema:"Set to true to confirm and save the auto-detected path."`
}

type RunProjectParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	Debug       *bool  `json:"debug,omitempty" jsonschema:"Enable debug mode (default: true)"`
	NoConsole   bool   `json:"no_console,omitempty" jsonschema:"Disable console output (default: false to capture logs)"`
}

type ReadLogsParams struct {
	ProjectPath string `json:"project_path" jsonschema:"Path to the project directory or main.lua file"`
	Lines       int    `json:"lines,omitempty" jsonschema:"Number of recent log lines to read (default: 50)"`
}

type ListProjectsParams struct{}

func registerSimulatorTools(server *mcp.Server, deps *Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "configure_solar2d",
		Description: "Configure or verify the Solar2D simulator path. Use this to set up the simulator location or change it later.",
	}, handleConfigure)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_solar2d_project",
		Description: "Run a Solar2D project in the simulator. Provide either a path to main.lua or a project directory.",
	}, deps.handleRunProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_solar2d_logs",
		Description: "Read the console logs from a running Solar2D Simulator instance. Shows print() statements, errors, and debug output from your Lua code.",
	}, handleReadLogs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_running_projects",
		Description: "List all currently running Solar2D Simulator projects tracked by this server.",
	}, deps.handleListProjects)
}

func handleConfigure(ctx context.Context, req *mcp.CallToolRequest, params ConfigureParams) (*mcp.CallToolResult, any, error) {
	if params.SimulatorPath != "" {
		if _, err := os.Stat(params.SimulatorPath); err != nil {
			return errorResult(fmt.Sprintf("Error: Path does not exist: %s\n\nPlease provide a valid path to the Solar2D/Corona Simulator executable.", params.SimulatorPath)), nil, nil
		}
		if err := config.SetSimulatorPath(params.SimulatorPath); err != nil {
			return errorResult(fmt.Sprintf("Error saving configuration: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf("Solar2D simulator configured successfully!\n\nPath: %s\n\nThis setting has been saved and will be remembered for future sessions.", params.SimulatorPath)), nil, nil
	}

	current, detected, needsConfirmation := config.ResolveSimulator()

	if params.Confirm && current != "" {
		if err := config.SetSimulatorPath(current); err != nil {
			return errorResult(fmt.Sprintf("Error saving configuration: %v", err)), nil, nil
		}
		return textResult(fmt.Sprintf("Solar2D simulator confirmed and saved!\n\nPath: %s\n\nThis setting has been saved and will be remembered for future sessions.", current)), nil, nil
	}

	var lines []string
	if config.IsConfigured() {
		lines = append(lines, "Current configuration: "+config.Load().SimulatorPath, "")
	}

	if len(detected) > 0 {
		lines = append(lines, "Detected Solar2D simulators:")
		for i, path := range detected {
			marker := ""
			if path == detected[len(detected)-1] {
				marker = " (recommended)"
			}
			lines = append(lines, fmt.Sprintf("  %d. %s%s", i+1, path, marker))
		}
		lines = append(lines, "")
		if needsConfirmation {
			lines = append(lines,
				"To use the recommended path, call this tool with confirm=true",
				`Or provide a specific path with simulator_path="/path/to/simulator"`)
		}
	} else {
		lines = append(lines,
			"No Solar2D simulators detected in common locations.",
			"",
			"Please provide the path manually:",
			`  configure_solar2d(simulator_path="/path/to/Corona Simulator.app/Contents/MacOS/Corona Simulator")`,
			"",
			"Common locations:",
			"  - /Applications/Corona-XXXX/Corona Simulator.app/Contents/MacOS/Corona Simulator",
			"  - /Applications/Solar2D-XXXX/Solar2D Simulator.app/Contents/MacOS/Solar2D Simulator")
	}

	return textResult(strings.Join(lines, "\n")), nil, nil
}

func (d *Deps) handleRunProject(ctx context.Context, req *mcp.CallToolRequest, params RunProjectParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}

	simulatorPath, detected, needsConfirmation := config.ResolveSimulator()
	if needsConfirmation {
		lines := []string{"Solar2D simulator needs to be configured before running projects.", ""}
		if len(detected) > 0 {
			lines = append(lines, "Detected simulators:")
			for _, path := range detected {
				lines = append(lines, "  - "+path)
			}
			lines = append(lines, "",
				"Please use the configure_solar2d tool to confirm or select a simulator:",
				"  - Call configure_solar2d with confirm=true to use the detected path",
				`  - Or provide a specific path with simulator_path="..."`)
		} else {
			lines = append(lines,
				"No Solar2D simulators were detected.",
				"Please use the configure_solar2d tool to set the simulator path:",
				`  configure_solar2d(simulator_path="/path/to/Corona Simulator")`)
		}
		return textResult(strings.Join(lines, "\n")), nil, nil
	}
	if simulatorPath == "" {
		return errorResult("Error: Solar2D Simulator not found. Please run configure_solar2d to set the path."), nil, nil
	}

	mainLua := project.FindMainLua(params.ProjectPath)
	identity := project.Identity(mainLua)

	// A stale instance for this identity goes away even when the relaunch
	// aborts; a project deleted mid-run must not leave its simulator tracked.
	d.Supervisor.Evict(identity)

	if _, err := os.Stat(mainLua); err != nil {
		return errorResult(fmt.Sprintf("Error: main.lua not found at %s", mainLua)), nil, nil
	}

	logFile := project.LogFile(identity)

	// Injection is best-effort: a read-only project still runs, just without
	// log/screenshot/touch capture.
	injected, err := inject.WriteCompanions(mainLua, identity)
	if err != nil {
		injected = inject.Result{}
	}

	debug := params.Debug == nil || *params.Debug
	args := make([]string, 0, 5)
	if params.NoConsole {
		args = append(args, "-no-console", "YES")
	}
	if debug {
		args = append(args, "-debug", "1")
	}
	args = append(args, "-project", mainLua)

	instance, err := d.Supervisor.Launch(identity, mainLua, logFile, exec.Command(simulatorPath, args...))
	if err != nil {
		return errorResult(fmt.Sprintf("Error launching Solar2D Simulator: %v", err)), nil, nil
	}

	status := []string{
		injectionStatus("Logger", injected.Logger),
		injectionStatus("Screenshot module", injected.Screenshot),
		injectionStatus("Touch module", injected.Touch),
	}

	return textResult(fmt.Sprintf(
		"Solar2D Simulator launched successfully!\n\nProject: %s\nPID: %d\nLog file: %s\nScreenshot dir: %s\nDebug: %t\nNo Console: %t\n\n%s\n\nAll print() output will be captured automatically.\nUse read_solar2d_logs to view the console output.\nUse start_screenshot_recording to capture screenshots.",
		mainLua, instance.PID, logFile, project.ScreenshotDir(identity), debug, params.NoConsole,
		strings.Join(status, "\n"))), nil, nil
}

func injectionStatus(name string, injected bool) string {
	if injected {
		return name + " injected into main.lua"
	}
	return name + " already present in main.lua"
}

func handleReadLogs(ctx context.Context, req *mcp.CallToolRequest, params ReadLogsParams) (*mcp.CallToolResult, any, error) {
	if params.ProjectPath == "" {
		return errorResult("Error: project_path is required"), nil, nil
	}
	lines := params.Lines
	if lines <= 0 {
		lines = 50
	}

	identity := project.Identity(project.FindMainLua(params.ProjectPath))
	logFile := project.LogFile(identity)

	data, err := os.ReadFile(logFile)
	if err != nil {
		return textResult(fmt.Sprintf(
			"Log file not found: %s\n\nPossible reasons:\n- The project hasn't been launched yet (with or without MCP)\n- The _mcp_logger hasn't been injected yet (run project via MCP once to inject it)\n- The simulator hasn't produced any output yet",
			logFile)), nil, nil
	}

	allLines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(allLines) == 1 && allLines[0] == "" {
		return textResult("No log output available yet. The simulator may still be starting up."), nil, nil
	}
	if len(allLines) > lines {
		allLines = allLines[len(allLines)-lines:]
	}

	return textResult(fmt.Sprintf("Solar2D Simulator Logs (last %d lines):\n\n%s",
		len(allLines), strings.Join(allLines, "\n"))), nil, nil
}

func (d *Deps) handleListProjects(ctx context.Context, req *mcp.CallToolRequest, params ListProjectsParams) (*mcp.CallToolResult, any, error) {
	statuses := d.Supervisor.List()
	if len(statuses) == 0 {
		return textResult("No Solar2D Simulator projects are currently running."), nil, nil
	}

	var sections []string
	for _, st := range statuses {
		state := "stopped"
		if st.Running {
			state = "running"
		}
		sections = append(sections, fmt.Sprintf(
			"Project: %s\n  Main: %s\n  PID: %d\n  Status: %s\n  Log: %s",
			st.Identity, st.MainLua, st.PID, state, st.LogFile))
	}

	return textResult("Running Solar2D Projects:\n\n" + strings.Join(sections, "\n\n")), nil, nil
}
