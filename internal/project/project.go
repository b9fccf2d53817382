// Package project resolves user-supplied paths to a Solar2D project's entry
// script and derives the stable identity that namespaces every control, log,
// and screenshot artifact the server exchanges with the simulator.
package project

import (
	"os"
	"path/filepath"
)

// EntryScript is the fixed name of a Solar2D project's entry point.
const EntryScript = "main.lua"

// namespace prefixes every filesystem artifact under the temp dir so that
// collaborators (including simulators launched outside this server) can derive
// the same paths knowing only the project identity.
const namespace = "solar2d"

// FindMainLua resolves a path that is either main.lua itself or a project
// directory. Directories always map to their main.lua even when the script is
// missing, so identity stays stable for a project deleted mid-run; callers
// check existence at the point of use.
func FindMainLua(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if filepath.Base(abs) == EntryScript {
		return abs
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return filepath.Join(abs, EntryScript)
	}

	return abs
}

// Identity derives the project key from the leaf name of the entry script's
// parent directory. Two distinct paths sharing a leaf directory name collide;
// this is a known limitation kept deliberately, because externally launched
// simulators compute the same identity independently and switching to a
// full-path hash would orphan their control files.
func Identity(mainLua string) string {
	return filepath.Base(filepath.Dir(mainLua))
}

// LogFile is the append-only console capture for a project. The injected
// logger truncates it once per simulator start; readers only ever read.
func LogFile(identity string) string {
	return filepath.Join(os.TempDir(), namespace+"_log_"+identity+".txt")
}

// ScreenshotDir holds the sequential frames plus the screenshot_latest sentinel.
func ScreenshotDir(identity string) string {
	return filepath.Join(os.TempDir(), namespace+"_screenshots_"+identity)
}

// ScreenshotControlFile carries recording/on-demand commands into the simulator.
func ScreenshotControlFile(identity string) string {
	return filepath.Join(os.TempDir(), namespace+"_screenshots_"+identity+".control")
}

// TouchControlFile carries tap/drag commands into the simulator.
func TouchControlFile(identity string) string {
	return filepath.Join(os.TempDir(), namespace+"_touch_"+identity+".control")
}

// DisplayInfoFile is written once by the injected touch module at simulator
// start and maps the logical content coordinate space.
func DisplayInfoFile(identity string) string {
	return filepath.Join(os.TempDir(), namespace+"_display_"+identity+".json")
}

// DraftFile is the single global pending social post slot. Not identity-scoped:
// at most one draft exists system-wide.
func DraftFile() string {
	return filepath.Join(os.TempDir(), namespace+"_social_draft.json")
}

// PreviewFile is the rendered HTML preview for the pending social post.
func PreviewFile() string {
	return filepath.Join(os.TempDir(), namespace+"_social_preview.html")
}
