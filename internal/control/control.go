// Package control implements the file-based mailbox shared with the injected
// simulator scripts. Each channel is a single file: writing replaces any
// pending command (capacity one, last write wins) and the consuming side reads
// then deletes. Read-then-delete is not atomic; a crash in between can
// redeliver one command and a crash between delete and rewrite can drop one.
// Both are acceptable for this best-effort, low-frequency control plane.
package control

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Screenshot channel commands understood by the injected screenshot module.
const (
	// CaptureNow requests a single on-demand frame written to the
	// screenshot_latest sentinel file.
	CaptureNow = "now"
	// StopRecording clears the recording window immediately.
	StopRecording = "0"
)

// Write replaces the channel's pending command with payload, creating the
// file if absent. A second write before the reader consumes the first simply
// overwrites it; callers must not assume queueing.
func Write(path, payload string) error {
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		return fmt.Errorf("write control file %s: %w", path, err)
	}
	return nil
}

// ReadAndConsume returns the pending command and deletes the file. The second
// return value is false when no command is pending.
func ReadAndConsume(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read control file %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("consume control file %s: %w", path, err)
	}
	return string(data), true, nil
}

// RecordCommand encodes a bounded recording window of the given whole seconds.
func RecordCommand(seconds int) string {
	return strconv.Itoa(seconds)
}

// TapCommand encodes a tap at absolute content-space coordinates.
func TapCommand(x, y int) string {
	return fmt.Sprintf("tap,%d,%d", x, y)
}

// DragCommand encodes a drag between two content-space points over durationMs.
func DragCommand(x1, y1, x2, y2, durationMs int) string {
	return fmt.Sprintf("drag,%d,%d,%d,%d,%d", x1, y1, x2, y2, durationMs)
}

// ParseCommand splits a comma-delimited control payload into fields. Used by
// tests to verify the wire format the Lua side parses with string.gmatch.
func ParseCommand(payload string) []string {
	return strings.Split(payload, ",")
}
