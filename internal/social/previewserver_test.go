package social

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cexll/solar2d-mcp/internal/project"
)

func TestPreviewServerServesPreviewAndScreenshots(t *testing.T) {
	if err := os.WriteFile(project.PreviewFile(), []byte("<html>preview body</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(project.PreviewFile()) })

	identity := fmt.Sprintf("preview-%d", time.Now().UnixNano())
	dir := project.ScreenshotDir(identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	if err := os.WriteFile(filepath.Join(dir, "screenshot_001.jpg"), []byte("jpgdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewPreviewServer()
	url, err := s.Serve()
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	// Serve is idempotent.
	again, err := s.Serve()
	if err != nil || again != url {
		t.Errorf("second Serve = (%q, %v), want same URL", again, err)
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "<html>preview body</html>" {
		t.Errorf("preview = (%d, %q)", resp.StatusCode, body)
	}

	resp, err = http.Get(url + "screenshots/" + identity + "/screenshot_001.jpg")
	if err != nil {
		t.Fatalf("GET screenshot: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "jpgdata" {
		t.Errorf("screenshot = (%d, %q)", resp.StatusCode, body)
	}
}

func TestPreviewServerRejectsTraversal(t *testing.T) {
	s := NewPreviewServer()
	url, err := s.Serve()
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	resp, err := http.Get(url + "screenshots/any/..%2f..%2fetc%2fpasswd")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Errorf("traversal request succeeded with %d", resp.StatusCode)
	}
}
