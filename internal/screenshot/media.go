package screenshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cexll/solar2d-mcp/internal/project"
)

// ResolveMedia maps a media reference onto a concrete file path using the same
// conventions as the screenshot selectors: a direct file path, "latest" for
// the on-demand sentinel, "last" or a number for the recorded series. The
// screenshot forms need projectPath to derive the identity.
func ResolveMedia(media, projectPath string) (string, error) {
	if media == "" {
		return "", fmt.Errorf("no media reference given")
	}

	if info, err := os.Stat(media); err == nil && !info.IsDir() {
		return media, nil
	}

	if projectPath == "" {
		return "", fmt.Errorf("could not resolve media %q: use 'latest', 'last', a number, or a direct file path; screenshot references need project_path", media)
	}

	identity := project.Identity(project.FindMainLua(projectPath))

	if media == "latest" {
		path := filepath.Join(project.ScreenshotDir(identity), LatestName)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("no on-demand screenshot found for %q; use get_simulator_screenshot first", identity)
		}
		return path, nil
	}

	return Resolve(identity, media)
}
