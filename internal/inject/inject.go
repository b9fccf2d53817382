// Package inject generates the Lua companion scripts that give the simulator
// runtime its log, screenshot, and touch capabilities, and wires them into a
// project's main.lua. Injection is best-effort: the simulator still runs
// without it, just without capture support.
package inject

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/cexll/solar2d-mcp/internal/project"
)

// StartBanner is the first line the logger companion writes after truncating
// the log on simulator start. Log readers may key on it to find run boundaries.
const StartBanner = "=== Solar2D Simulator Started ==="

// Companion module names, as required from main.lua.
const (
	LoggerModule     = "_mcp_logger"
	ScreenshotModule = "_mcp_screenshot"
	TouchModule      = "_mcp_touch"
)

var (
	loggerTmpl     = template.Must(template.New("logger").Parse(loggerTemplate))
	screenshotTmpl = template.Must(template.New("screenshot").Parse(screenshotTemplate))
	touchTmpl      = template.Must(template.New("touch").Parse(touchTemplate))
)

// Result reports, per companion, whether the require line was newly injected
// into main.lua on this launch. False also covers injection failures, which
// are downgraded rather than surfaced.
type Result struct {
	Logger     bool
	Screenshot bool
	Touch      bool
}

// WriteCompanions regenerates the three companion scripts next to main.lua
// with the identity-scoped paths baked in, then ensures each is referenced by
// main.lua exactly once.
func WriteCompanions(mainLua, identity string) (Result, error) {
	projectDir := filepath.Dir(mainLua)

	if err := writeCompanion(projectDir, LoggerModule, loggerTmpl, map[string]string{
		"LogFile": project.LogFile(identity),
		"Banner":  StartBanner,
	}); err != nil {
		return Result{}, err
	}
	if err := writeCompanion(projectDir, ScreenshotModule, screenshotTmpl, map[string]string{
		"ScreenshotDir": project.ScreenshotDir(identity),
		"ControlFile":   project.ScreenshotControlFile(identity),
	}); err != nil {
		return Result{}, err
	}
	if err := writeCompanion(projectDir, TouchModule, touchTmpl, map[string]string{
		"ControlFile": project.TouchControlFile(identity),
		"InfoFile":    project.DisplayInfoFile(identity),
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Logger:     EnsureRequire(mainLua, LoggerModule),
		Screenshot: EnsureRequire(mainLua, ScreenshotModule),
		Touch:      EnsureRequire(mainLua, TouchModule),
	}, nil
}

func writeCompanion(projectDir, module string, tmpl *template.Template, data map[string]string) error {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return fmt.Errorf("render %s: %w", module, err)
	}
	path := filepath.Join(projectDir, module+".lua")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EnsureRequire inserts `require("module")` into main.lua unless a reference
// in either quoting style is already present. Returns true only when the line
// was newly inserted; any I/O failure reports false so the launch proceeds
// without the capability.
func EnsureRequire(mainLua, module string) bool {
	content, err := os.ReadFile(mainLua)
	if err != nil {
		log.Printf("[Inject] Cannot read %s: %v", mainLua, err)
		return false
	}

	doubleQuoted := fmt.Sprintf("require(%q)", module)
	singleQuoted := fmt.Sprintf("require('%s')", module)
	text := string(content)
	if strings.Contains(text, doubleQuoted) || strings.Contains(text, singleQuoted) {
		return false
	}

	lines := strings.Split(text, "\n")
	idx := insertionIndex(lines)

	inserted := doubleQuoted + "  -- Auto-injected by MCP server"
	lines = append(lines[:idx], append([]string{inserted}, lines[idx:]...)...)

	if err := os.WriteFile(mainLua, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		log.Printf("[Inject] Cannot write %s: %v", mainLua, err)
		return false
	}
	return true
}

// insertionIndex picks where the require line goes: after a mobdebug bootstrap
// line if one exists, else before the first non-comment require, else before
// the first non-blank non-comment line, else the top of the file.
func insertionIndex(lines []string) int {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "mobdebug") && strings.Contains(lower, "require") {
			return i + 1
		}
		if strings.Contains(line, "require") && !strings.HasPrefix(strings.TrimSpace(line), "--") {
			return i
		}
	}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return i
		}
	}
	return 0
}
