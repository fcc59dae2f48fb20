package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// PreviewServer serves a static site bundle locally for previewing.
type PreviewServer struct {
	bundlePath string
	port       int
	server     *http.Server
	out        io.Writer
}

// NewPreviewServer creates a new preview server for the given bundle.
func NewPreviewServer(bundlePath string, port int) *PreviewServer {
	return &PreviewServer{
		bundlePath: bundlePath,
		port:       port,
		out:        os.Stdout,
	}
}

// validate checks that the bundle exists and has an index page.
func (p *PreviewServer) validate() error {
	if _, err := os.Stat(p.bundlePath); os.IsNotExist(err) {
		return fmt.Errorf("bundle path does not exist: %s", p.bundlePath)
	}
	indexPath := filepath.Join(p.bundlePath, "index.html")
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return fmt.Errorf("no index.html found in bundle: %s", p.bundlePath)
	}
	return nil
}

// Handler returns the HTTP handler serving the bundle.
func (p *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Static file server with no-cache middleware
	fs := http.FileServer(http.Dir(p.bundlePath))
	mux.Handle("/", noCacheMiddleware(fs))

	mux.HandleFunc("/__preview__/status", p.statusHandler)
	return mux
}

// Start serves the bundle and blocks until the server is stopped.
func (p *PreviewServer) Start() error {
	if err := p.validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	p.port = ln.Addr().(*net.TCPAddr).Port
	p.server = &http.Server{
		Handler:           p.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(p.out, "\nPreview server running at %s\n", p.URL())
	fmt.Fprintf(p.out, "Serving: %s\n", p.bundlePath)
	fmt.Fprint(p.out, "\nPress Ctrl+C to stop\n\n")

	return p.server.Serve(ln)
}

// StartWithGracefulShutdown starts the server with signal handling for clean shutdown.
func (p *PreviewServer) StartWithGracefulShutdown(openBrowser bool) error {
	if err := p.validate(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errChan := make(chan error, 1)
	go func() {
		if err := p.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	if openBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := OpenInBrowser(p.URL()); err != nil {
				log.Printf("Warning: could not open browser: %v", err)
				fmt.Fprintf(p.out, "Open %s in your browser\n", p.URL())
			}
		}()
	}

	select {
	case <-stop:
		fmt.Fprintln(p.out, "\nShutting down preview server...")
		return p.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the preview server.
func (p *PreviewServer) Stop() error {
	if p.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.server.Shutdown(ctx)
}

// Port returns the port the server is running on.
func (p *PreviewServer) Port() int {
	return p.port
}

// URL returns the full URL of the preview server.
func (p *PreviewServer) URL() string {
	return fmt.Sprintf("http://localhost:%d", p.port)
}

// previewStatus is the body of the status endpoint.
type previewStatus struct {
	Status      string `json:"status"`
	Port        int    `json:"port"`
	BundlePath  string `json:"bundle_path"`
	HasIndex    bool   `json:"has_index"`
	FileCount   int    `json:"file_count"`
	Storyboards int    `json:"storyboards"`
}

// statusHandler returns the preview server status as JSON.
func (p *PreviewServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	st := previewStatus{Status: "running", Port: p.port, BundlePath: p.bundlePath, HasIndex: true}
	if _, err := os.Stat(filepath.Join(p.bundlePath, "index.html")); os.IsNotExist(err) {
		st.HasIndex = false
	}

	_ = filepath.Walk(p.bundlePath, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			st.FileCount++
			if strings.HasPrefix(info.Name(), "storyboard-") {
				st.Storyboards++
			}
		}
		return nil
	})

	_ = json.NewEncoder(w).Encode(st)
}

// noCacheMiddleware adds headers to prevent browser caching.
func noCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		// Add CORS headers for development
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// FindAvailablePort finds an available port in the given range.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}

// Ports tried when no port is configured.
const (
	PreviewPortRangeStart = 9000
	PreviewPortRangeEnd   = 9100
)

// PreviewConfig configures the preview server.
type PreviewConfig struct {
	// BundlePath is the path to the static site bundle
	BundlePath string

	// Port is the port to serve on (0 for auto-select)
	Port int

	// OpenBrowser determines whether to auto-open a browser
	OpenBrowser bool

	// Quiet suppresses status messages
	Quiet bool
}

// DefaultPreviewConfig returns sensible defaults for preview configuration.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Port:        0, // Auto-select
		OpenBrowser: true,
	}
}

// StartPreviewWithConfig serves a bundle until interrupted.
func StartPreviewWithConfig(config PreviewConfig) error {
	port := config.Port
	if port == 0 {
		var err error
		port, err = FindAvailablePort(PreviewPortRangeStart, PreviewPortRangeEnd)
		if err != nil {
			return fmt.Errorf("could not find available port: %w", err)
		}
	}

	server := NewPreviewServer(config.BundlePath, port)
	if config.Quiet {
		server.out = io.Discard
	}
	return server.StartWithGracefulShutdown(config.OpenBrowser)
}
