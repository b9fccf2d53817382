package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/solar2d-mcp/internal/config"
	"github.com/cexll/solar2d-mcp/internal/control"
	"github.com/cexll/solar2d-mcp/internal/project"
	"github.com/cexll/solar2d-mcp/internal/supervisor"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want *mcp.TextContent", result.Content[0])
	}
	return text.Text
}

// newProject creates a project directory with a unique leaf name (the
// identity) and a main.lua, plus cleanup for the temp-dir artifacts.
func newProject(t *testing.T) (string, string) {
	t.Helper()
	identity := fmt.Sprintf("toolstest-%d", time.Now().UnixNano())
	dir := filepath.Join(t.TempDir(), identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.lua"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Remove(project.LogFile(identity))
		os.Remove(project.TouchControlFile(identity))
		os.Remove(project.DisplayInfoFile(identity))
		os.RemoveAll(project.ScreenshotDir(identity))
		os.Remove(project.ScreenshotControlFile(identity))
	})
	return dir, identity
}

func TestHandleReadLogsTail(t *testing.T) {
	dir, identity := newProject(t)

	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	if err := os.WriteFile(project.LogFile(identity), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, _, err := handleReadLogs(context.Background(), nil, ReadLogsParams{ProjectPath: dir, Lines: 3})
	if err != nil {
		t.Fatalf("handleReadLogs: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "last 3 lines") {
		t.Errorf("header missing: %q", text)
	}
	if strings.Contains(text, "line 7") || !strings.Contains(text, "line 8") || !strings.Contains(text, "line 10") {
		t.Errorf("wrong tail:\n%s", text)
	}
}

func TestHandleReadLogsMissingFile(t *testing.T) {
	dir, _ := newProject(t)

	result, _, err := handleReadLogs(context.Background(), nil, ReadLogsParams{ProjectPath: dir})
	if err != nil {
		t.Fatalf("handleReadLogs: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Log file not found") {
		t.Errorf("text = %q", resultText(t, result))
	}
}

func TestHandleReadLogsRequiresProjectPath(t *testing.T) {
	result, _, err := handleReadLogs(context.Background(), nil, ReadLogsParams{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("missing project_path should be an error result")
	}
}

func TestHandleTap(t *testing.T) {
	dir, identity := newProject(t)
	info := `{"contentWidth": 320, "contentHeight": 480}`
	if err := os.WriteFile(project.DisplayInfoFile(identity), []byte(info), 0o644); err != nil {
		t.Fatal(err)
	}

	result, _, err := handleTap(context.Background(), nil, TapParams{
		ProjectPath: dir, Left: 0, Right: 100, Top: 0, Bottom: 100,
	})
	if err != nil {
		t.Fatalf("handleTap: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "(160, 240)") {
		t.Errorf("text = %q", resultText(t, result))
	}

	payload, ok, _ := control.ReadAndConsume(project.TouchControlFile(identity))
	if !ok || payload != "tap,160,240" {
		t.Errorf("control payload = (%q, %v)", payload, ok)
	}
}

func TestHandleTapWithoutDisplayInfo(t *testing.T) {
	dir, _ := newProject(t)
	result, _, err := handleTap(context.Background(), nil, TapParams{
		ProjectPath: dir, Left: 0, Right: 100, Top: 0, Bottom: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "display info not found") {
		t.Errorf("result = %q", resultText(t, result))
	}
}

func TestHandleTapRejectsOutOfRangeBox(t *testing.T) {
	dir, _ := newProject(t)
	result, _, err := handleTap(context.Background(), nil, TapParams{
		ProjectPath: dir, Left: -5, Right: 120, Top: 0, Bottom: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("out-of-range percentages should be an error result")
	}
}

func TestHandleStartRecording(t *testing.T) {
	dir, identity := newProject(t)

	result, _, err := handleStartRecording(context.Background(), nil, StartRecordingParams{
		ProjectPath: dir, Duration: 900,
	})
	if err != nil {
		t.Fatalf("handleStartRecording: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Duration: 300 seconds") {
		t.Errorf("duration not capped: %q", text)
	}

	payload, ok, _ := control.ReadAndConsume(project.ScreenshotControlFile(identity))
	if !ok || payload != "300" {
		t.Errorf("control payload = (%q, %v)", payload, ok)
	}
}

func TestHandleRunProjectEvictsBeforeMainLuaCheck(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.SetSimulatorPath("/bin/echo"); err != nil {
		t.Fatal(err)
	}

	dir, identity := newProject(t)
	d := &Deps{Supervisor: supervisor.New()}
	if _, err := d.Supervisor.Launch(identity, filepath.Join(dir, "main.lua"),
		project.LogFile(identity), exec.Command("sleep", "30")); err != nil {
		t.Fatal(err)
	}

	// Delete the project while its simulator is tracked, then relaunch.
	if err := os.Remove(filepath.Join(dir, "main.lua")); err != nil {
		t.Fatal(err)
	}

	result, _, err := d.handleRunProject(context.Background(), nil, RunProjectParams{ProjectPath: dir})
	if err != nil {
		t.Fatalf("handleRunProject: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "main.lua not found") {
		t.Errorf("result = %q", resultText(t, result))
	}

	// The aborted relaunch must still have torn down the stale instance.
	if statuses := d.Supervisor.List(); len(statuses) != 0 {
		t.Errorf("stale instance survived aborted relaunch: %+v", statuses)
	}
}

func TestHandleAttachCardResolvesScreenshotRefs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir, _ := newProject(t)

	// A screenshot reference with nothing recorded fails in the resolver,
	// before any Trello call.
	result, _, err := handleAttachCard(context.Background(), nil, AttachCardParams{
		CardID: "card1", Media: "last", ProjectPath: dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "no recorded screenshots") {
		t.Errorf("result = %q", resultText(t, result))
	}

	// A direct file path resolves; the unconfigured Trello client is the next
	// failure, proving the media step accepted it.
	file := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(file, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, _, err = handleAttachCard(context.Background(), nil, AttachCardParams{
		CardID: "card1", Media: file,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "configure_trello") {
		t.Errorf("result = %q", resultText(t, result))
	}
}

func TestInjectionStatus(t *testing.T) {
	if got := injectionStatus("Logger", true); got != "Logger injected into main.lua" {
		t.Errorf("got %q", got)
	}
	if got := injectionStatus("Logger", false); got != "Logger already present in main.lua" {
		t.Errorf("got %q", got)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "***"},
		{"late_abcdefgh1234", "late_abc...1234"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.key); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
