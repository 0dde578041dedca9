package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/geocine/epubweb/internal/config"
	"github.com/geocine/epubweb/internal/pathmap"
)

// LiveReloadPath is the event stream endpoint pages subscribe to while serving
const LiveReloadPath = "/__livereload"

// ServeOptions configures the development server
type ServeOptions struct {
	Webify WebifyOptions
	Host   string
	Port   int
	Open   bool
	// Interval between change checks of the watched files
	Interval time.Duration
}

// Serve converts the book, serves the output directory and rebuilds whenever
// the archive or the configuration file changes. It returns when ctx is done.
func Serve(ctx context.Context, opts ServeOptions, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 300 * time.Millisecond
	}
	opts.Webify.LiveReloadPath = LiveReloadPath
	if opts.Webify.Logger == nil {
		opts.Webify.Logger = log
	}

	res, err := Webify(opts.Webify)
	if err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}

	broker := newSSEBroker()
	mux := http.NewServeMux()
	mux.HandleFunc(LiveReloadPath, broker.serveSSE)
	mux.Handle("/", StaticHandler(res.OutputDir))

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving", zap.String("url", "http://"+addr), zap.String("dir", res.OutputDir))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if opts.Open {
		go func() {
			time.Sleep(300 * time.Millisecond)
			if err := openBrowser("http://" + addr); err != nil {
				log.Warn("could not open browser", zap.Error(err))
			}
		}()
	}

	watch := []string{opts.Webify.EpubPath, configPath(opts.Webify.ConfigPath)}
	lastHash, _ := snapshotModHash(watch)
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// open event streams would hold Shutdown until its deadline
			return server.Close()
		case err := <-errc:
			return fmt.Errorf("server error: %w", err)
		case <-ticker.C:
			hash, err := snapshotModHash(watch)
			if err != nil {
				log.Warn("watch error", zap.Error(err))
				continue
			}
			if hash == lastHash {
				continue
			}
			lastHash = hash
			log.Info("change detected, rebuilding")
			if _, err := Webify(opts.Webify); err != nil {
				log.Error("rebuild failed", zap.Error(err))
				continue
			}
			broker.broadcast("reload")
		}
	}
}

func configPath(p string) string {
	if p == "" {
		return config.FileName
	}
	return p
}

// StaticHandler serves files below root. Directory requests map to
// index.html; paths escaping root are rejected.
func StaticHandler(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := r.URL.Path
		if strings.Contains(upath, "..") {
			for _, seg := range strings.Split(upath, "/") {
				if seg == ".." {
					http.Error(w, "invalid path", http.StatusBadRequest)
					return
				}
			}
		}
		if upath == "" || strings.HasSuffix(upath, "/") {
			upath += pathmap.IndexFile
		}

		base, err := filepath.Abs(root)
		if err != nil {
			http.Error(w, "invalid root", http.StatusInternalServerError)
			return
		}
		target := filepath.Join(base, filepath.FromSlash(path.Clean(upath)))
		if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
			http.Error(w, "invalid path", http.StatusBadRequest)
			return
		}

		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, target)
			return
		}
		http.NotFound(w, r)
	})
}

// snapshotModHash returns a coarse fingerprint of the given files based on
// mtimes and sizes. Missing paths are skipped.
func snapshotModHash(paths []string) (string, error) {
	var b strings.Builder
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err := filepath.Walk(p, func(fp string, info os.FileInfo, err error) error {
				if err != nil || info.IsDir() {
					return nil
				}
				fmt.Fprintf(&b, "%s|%d|%d\n", fp, info.ModTime().UnixNano(), info.Size())
				return nil
			})
			if err != nil {
				return "", err
			}
			continue
		}
		fmt.Fprintf(&b, "%s|%d|%d\n", p, info.ModTime().UnixNano(), info.Size())
	}
	return b.String(), nil
}

// openBrowser attempts to open the provided URL in a browser.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// sseBroker fans reload events out to connected pages.
type sseBroker struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

func newSSEBroker() *sseBroker {
	return &sseBroker{clients: make(map[chan string]struct{})}
}

func (b *sseBroker) serveSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan string, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
	}()

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	fmt.Fprintf(w, ":ok\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ":hb\n\n")
			flusher.Flush()
		case msg := <-ch:
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (b *sseBroker) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *sseBroker) broadcast(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
