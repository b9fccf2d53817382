package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindMainLua(t *testing.T) {
	dir := t.TempDir()
	projectDir := filepath.Join(dir, "mygame")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	mainLua := filepath.Join(projectDir, "main.lua")
	if err := os.WriteFile(mainLua, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	emptyDir := filepath.Join(dir, "emptied")
	if err := os.MkdirAll(emptyDir, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"direct main.lua path", mainLua, mainLua},
		{"project directory", projectDir, mainLua},
		// Identity must stay stable even when the script was deleted.
		{"directory without main.lua still maps to it", emptyDir, filepath.Join(emptyDir, "main.lua")},
		{"missing path falls through to absolute", filepath.Join(dir, "nope"), filepath.Join(dir, "nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindMainLua(tt.path)
			if got != tt.want {
				t.Errorf("FindMainLua(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIdentity(t *testing.T) {
	got := Identity("/home/dev/games/mygame/main.lua")
	if got != "mygame" {
		t.Errorf("Identity = %q, want %q", got, "mygame")
	}
}

func TestArtifactPaths(t *testing.T) {
	tmp := os.TempDir()
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"log file", LogFile("mygame"), filepath.Join(tmp, "solar2d_log_mygame.txt")},
		{"screenshot dir", ScreenshotDir("mygame"), filepath.Join(tmp, "solar2d_screenshots_mygame")},
		{"screenshot control", ScreenshotControlFile("mygame"), filepath.Join(tmp, "solar2d_screenshots_mygame.control")},
		{"touch control", TouchControlFile("mygame"), filepath.Join(tmp, "solar2d_touch_mygame.control")},
		{"display info", DisplayInfoFile("mygame"), filepath.Join(tmp, "solar2d_display_mygame.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestIdentityMatchesExternallyDerivablePaths(t *testing.T) {
	// An externally launched simulator derives paths from the identity alone;
	// every artifact path must embed the identity verbatim.
	id := "sample-project"
	for _, path := range []string{
		LogFile(id), ScreenshotDir(id), ScreenshotControlFile(id),
		TouchControlFile(id), DisplayInfoFile(id),
	} {
		if !strings.Contains(path, id) {
			t.Errorf("path %q does not embed identity %q", path, id)
		}
	}
}
