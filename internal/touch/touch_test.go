package touch

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/cexll/solar2d-mcp/internal/control"
	"github.com/cexll/solar2d-mcp/internal/project"
)

func newIdentity(t *testing.T) string {
	t.Helper()
	identity := fmt.Sprintf("touch-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		os.Remove(project.DisplayInfoFile(identity))
		os.Remove(project.TouchControlFile(identity))
	})
	return identity
}

func writeDisplayInfo(t *testing.T, identity, payload string) {
	t.Helper()
	if err := os.WriteFile(project.DisplayInfoFile(identity), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadDisplayInfo(t *testing.T) {
	identity := newIdentity(t)
	writeDisplayInfo(t, identity, `{
		"contentWidth": 320, "contentHeight": 480,
		"actualContentWidth": 320, "actualContentHeight": 480,
		"screenOriginX": 0, "screenOriginY": 0
	}`)

	info, err := ReadDisplayInfo(identity)
	if err != nil {
		t.Fatalf("ReadDisplayInfo: %v", err)
	}
	if info.ContentWidth != 320 || info.ContentHeight != 480 {
		t.Errorf("info = %+v", info)
	}
}

func TestReadDisplayInfoMissing(t *testing.T) {
	identity := newIdentity(t)
	if _, err := ReadDisplayInfo(identity); !errors.Is(err, ErrNoDisplayInfo) {
		t.Errorf("err = %v, want ErrNoDisplayInfo", err)
	}
}

func TestReadDisplayInfoRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"zero dimensions", `{"contentWidth": 0, "contentHeight": 0}`},
		{"corrupt json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := newIdentity(t)
			writeDisplayInfo(t, identity, tt.payload)
			if _, err := ReadDisplayInfo(identity); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBoxCenter(t *testing.T) {
	info := &DisplayInfo{ContentWidth: 320, ContentHeight: 480}

	tests := []struct {
		name                     string
		left, right, top, bottom float64
		wantX, wantY             int
	}{
		{"full screen center", 0, 100, 0, 100, 160, 240},
		{"top-left quadrant", 0, 50, 0, 50, 80, 120},
		{"tight box", 40, 60, 70, 80, 160, 360},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := info.BoxCenter(tt.left, tt.right, tt.top, tt.bottom)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("BoxCenter = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestTapWritesControlCommand(t *testing.T) {
	identity := newIdentity(t)

	if err := Tap(identity, 160, 240); err != nil {
		t.Fatalf("Tap: %v", err)
	}

	payload, ok, err := control.ReadAndConsume(project.TouchControlFile(identity))
	if err != nil || !ok {
		t.Fatalf("control file = (%v, %v)", ok, err)
	}
	want := []string{"tap", "160", "240"}
	if got := control.ParseCommand(payload); !reflect.DeepEqual(got, want) {
		t.Errorf("payload = %v, want %v", got, want)
	}
}

func TestDragWritesControlCommand(t *testing.T) {
	identity := newIdentity(t)

	if err := Drag(identity, 10, 20, 300, 400, 250); err != nil {
		t.Fatalf("Drag: %v", err)
	}

	payload, ok, err := control.ReadAndConsume(project.TouchControlFile(identity))
	if err != nil || !ok {
		t.Fatalf("control file = (%v, %v)", ok, err)
	}
	want := []string{"drag", "10", "20", "300", "400", "250"}
	if got := control.ParseCommand(payload); !reflect.DeepEqual(got, want) {
		t.Errorf("payload = %v, want %v", got, want)
	}
}
