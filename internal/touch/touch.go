// Package touch translates percentage bounding boxes into content-space
// coordinates using the display info the injected touch companion writes at
// simulator start, and sends tap/drag commands over the touch control file.
package touch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cexll/solar2d-mcp/internal/control"
	"github.com/cexll/solar2d-mcp/internal/project"
)

// ErrNoDisplayInfo means the simulator has not written its coordinate space
// yet. Callers must fail the request rather than guess dimensions.
var ErrNoDisplayInfo = errors.New("display info not found; make sure the simulator is running (info is written on startup)")

// DisplayInfo mirrors the JSON the touch companion writes on startup.
// Screenshots are captured at content size; tap coordinates use the same
// content space with (0,0) at the top-left of the content area.
type DisplayInfo struct {
	ContentWidth        float64 `json:"contentWidth"`
	ContentHeight       float64 `json:"contentHeight"`
	ActualContentWidth  float64 `json:"actualContentWidth"`
	ActualContentHeight float64 `json:"actualContentHeight"`
	ScreenOriginX       float64 `json:"screenOriginX"`
	ScreenOriginY       float64 `json:"screenOriginY"`
}

// ReadDisplayInfo loads the identity's display info file.
func ReadDisplayInfo(identity string) (*DisplayInfo, error) {
	data, err := os.ReadFile(project.DisplayInfoFile(identity))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoDisplayInfo
	}
	if err != nil {
		return nil, fmt.Errorf("read display info: %w", err)
	}

	var info DisplayInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse display info: %w", err)
	}
	if info.ContentWidth <= 0 || info.ContentHeight <= 0 {
		return nil, errors.New("invalid display info")
	}
	return &info, nil
}

// BoxCenter converts a percentage bounding box to the content-space pixel at
// its center.
func (d *DisplayInfo) BoxCenter(left, right, top, bottom float64) (int, int) {
	x := int(d.ContentWidth * (left + right) / 2 / 100)
	y := int(d.ContentHeight * (top + bottom) / 2 / 100)
	return x, y
}

// Tap sends a tap command at absolute content-space coordinates.
func Tap(identity string, x, y int) error {
	return control.Write(project.TouchControlFile(identity), control.TapCommand(x, y))
}

// Drag sends a drag command between two content-space points over durationMs.
func Drag(identity string, x1, y1, x2, y2, durationMs int) error {
	return control.Write(project.TouchControlFile(identity), control.DragCommand(x1, y1, x2, y2, durationMs))
}
