package social

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/cexll/solar2d-mcp/internal/project"
)

// PreviewServer serves the rendered social preview and captured screenshots
// over a loopback listener, so the preview works in browsers that block
// file:// data URIs and screenshots can be inspected directly.
type PreviewServer struct {
	mu   sync.Mutex
	url  string
	done chan struct{}
}

func NewPreviewServer() *PreviewServer {
	return &PreviewServer{}
}

// Serve lazily starts the listener and returns the preview URL. Subsequent
// calls return the same URL.
func (s *PreviewServer) Serve() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.url != "" {
		return s.url, nil
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("start preview server: %w", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handlePreview).Methods("GET")
	r.HandleFunc("/screenshots/{identity}/{name}", s.handleScreenshot).Methods("GET")

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := http.Serve(listener, r); err != nil {
			log.Printf("[Preview] Server stopped: %v", err)
		}
	}()

	s.url = fmt.Sprintf("http://%s/", listener.Addr())
	log.Printf("[Preview] Serving previews at %s", s.url)
	return s.url, nil
}

func (s *PreviewServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(project.PreviewFile())
	if err != nil {
		http.Error(w, "no preview rendered yet; use preview_social_post", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *PreviewServer) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]
	name := vars["name"]

	// Both segments feed a filesystem path; reject traversal outright.
	if strings.ContainsAny(identity, "/\\") || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(project.ScreenshotDir(identity), name))
}
