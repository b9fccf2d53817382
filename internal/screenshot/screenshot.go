// Package screenshot drives the capture protocol shared with the injected
// screenshot companion: recording windows and on-demand frames via the control
// file, retrieval via the sequentially numbered files it writes.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cexll/solar2d-mcp/internal/control"
	"github.com/cexll/solar2d-mcp/internal/project"
)

// MaxRecordingSeconds caps a recording window request.
const MaxRecordingSeconds = 300

// LatestName is the fixed-name sentinel overwritten in place by on-demand
// captures. It is not part of the sequential series.
const LatestName = "screenshot_latest.jpg"

// ErrTimeout reports that the on-demand sentinel never got fresher than the
// pre-trigger baseline within the poll window.
var ErrTimeout = errors.New("timeout waiting for screenshot; make sure the simulator is running")

// StartRecording opens or extends the bounded recording window. The window is
// a single end timestamp on the simulator side, so a new duration replaces the
// old one rather than stacking.
func StartRecording(identity string, seconds int) (int, error) {
	if seconds > MaxRecordingSeconds {
		seconds = MaxRecordingSeconds
	}
	err := control.Write(project.ScreenshotControlFile(identity), control.RecordCommand(seconds))
	return seconds, err
}

// StopRecording clears the recording window immediately. Last write wins: a
// stop racing a just-issued start leaves whichever command landed second.
func StopRecording(identity string) error {
	return control.Write(project.ScreenshotControlFile(identity), control.StopRecording)
}

// Poller captures an on-demand frame by triggering the companion and watching
// the latest sentinel's modification time. Interval and Timeout are explicit
// so tests can run with short windows.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
}

// NewPoller returns a poller with the production cadence: check every 100ms,
// give up after 2s.
func NewPoller() *Poller {
	return &Poller{Interval: 100 * time.Millisecond, Timeout: 2 * time.Second}
}

// CaptureNow records the sentinel's current mtime (zero when absent), writes
// the trigger command, and polls until the mtime is strictly newer or the
// timeout elapses. Freshness-by-mtime avoids a response channel from the
// simulator at the cost of a narrow race for captures already in flight.
func (p *Poller) CaptureNow(ctx context.Context, identity string) ([]byte, error) {
	dir := project.ScreenshotDir(identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}

	latest := filepath.Join(dir, LatestName)
	var baseline time.Time
	if info, err := os.Stat(latest); err == nil {
		baseline = info.ModTime()
	}

	if err := control.Write(project.ScreenshotControlFile(identity), control.CaptureNow); err != nil {
		return nil, err
	}

	deadline := time.After(p.Timeout)
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrTimeout
		case <-ticker.C:
			info, err := os.Stat(latest)
			if err != nil || !info.ModTime().After(baseline) {
				continue
			}
			data, err := os.ReadFile(latest)
			if err != nil {
				return nil, fmt.Errorf("read screenshot: %w", err)
			}
			return data, nil
		}
	}
}

// Recorded lists the sequential frames in the identity's screenshot directory,
// excluding the latest sentinel. The zero-padded suffix makes lexicographic
// order equal numeric order, so a plain sort suffices.
func Recorded(identity string) ([]string, error) {
	entries, err := os.ReadDir(project.ScreenshotDir(identity))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if name == LatestName {
			continue
		}
		if filepath.Ext(name) == ".jpg" && len(name) > len("screenshot_") && name[:len("screenshot_")] == "screenshot_" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve maps a selector onto the recorded series: "last" is the highest
// numbered frame, an integer picks its zero-padded file, anything else is
// invalid. "all" is handled by the caller as a manifest request.
func Resolve(identity, selector string) (string, error) {
	names, err := Recorded(identity)
	if err != nil || len(names) == 0 {
		return "", errors.New("no recorded screenshots found; use start_screenshot_recording to begin capturing")
	}

	if selector == "last" {
		return filepath.Join(project.ScreenshotDir(identity), names[len(names)-1]), nil
	}

	num, convErr := strconv.Atoi(selector)
	if convErr != nil {
		return "", fmt.Errorf("invalid selector %q: use 'latest', 'last', 'all', or a number", selector)
	}

	want := fmt.Sprintf("screenshot_%03d.jpg", num)
	for _, name := range names {
		if name == want {
			return filepath.Join(project.ScreenshotDir(identity), name), nil
		}
	}
	return "", fmt.Errorf("screenshot %d not found; available: 1-%d", num, len(names))
}

// Manifest describes one recorded frame for "all" listings, which return
// names and sizes instead of raw image bytes.
type Manifest struct {
	Name string
	Size int64
}

// ListManifest returns name and size for every recorded frame.
func ListManifest(identity string) ([]Manifest, error) {
	names, err := Recorded(identity)
	if err != nil {
		return nil, err
	}
	manifests := make([]Manifest, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(project.ScreenshotDir(identity), name))
		if err != nil {
			continue
		}
		manifests = append(manifests, Manifest{Name: name, Size: info.Size()})
	}
	return manifests, nil
}
