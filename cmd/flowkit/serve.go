package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/recera/flowkit/internal/config"
	"github.com/recera/flowkit/internal/watch"
	"github.com/recera/flowkit/pkg/live"
	"github.com/recera/flowkit/pkg/render"
)

//go:embed static/index.html
var indexHTML []byte

func newServeCommand(g *globalOptions) *cobra.Command {
	var port int
	var host string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve [diagram]",
		Short: "Serve the live editor",
		Long: `Serves a browser editor for a diagram file. Every browser tab gets its
own editing session over a WebSocket; saving writes the file, and changes
made to the file on disk are pushed to every session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.loadConfig()

			// CLI takes precedence
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if noWatch {
				cfg.Watch.Enabled = false
			}
			return runServe(cfg, g.diagramPath(cfg, args))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	cmd.Flags().StringVarP(&host, "host", "H", "localhost", "Host to bind the server to")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the diagram when it changes on disk")

	return cmd
}

// sourceStore holds the last saved source new sessions start from
type sourceStore struct {
	mu     sync.RWMutex
	source string
}

func (s *sourceStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

func (s *sourceStore) Set(source string) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}

type liveServer struct {
	cfg      *config.Config
	path     string
	store    *sourceStore
	renderer *render.LayoutRenderer
	live     *live.Server
	watcher  *watch.Watcher
}

func newLiveServer(cfg *config.Config, path string) (*liveServer, error) {
	source, err := readSource(path, os.Stdin, true)
	if err != nil {
		return nil, err
	}
	opts, err := editorOptions(cfg)
	if err != nil {
		return nil, err
	}

	s := &liveServer{
		cfg:      cfg,
		path:     path,
		store:    &sourceStore{source: source},
		renderer: newRenderer(cfg),
	}
	s.live = live.NewServer(live.Config{
		Path:        cfg.Server.Path,
		Source:      s.store.Get,
		Renderer:    s.renderer,
		Editor:      opts,
		OnSave:      s.save,
		CheckOrigin: allowOrigins(cfg.Server.AllowedOrigins),
	})

	if cfg.Watch.Enabled {
		s.watcher, err = watch.New(path, cfg.Watch.Debounce, s.reload)
		if err != nil {
			log.Printf("⚠️  File watching disabled: %v", err)
		}
	}
	return s, nil
}

// save writes a session's source and pushes it to the other sessions
func (s *liveServer) save(sessionID, source string) error {
	if s.watcher != nil {
		s.watcher.Remember(source)
	}
	if err := writeSource(s.path, source); err != nil {
		return err
	}
	s.store.Set(source)
	log.Printf("💾 Session %s saved %s", sessionID, s.path)
	s.live.Broadcast(source)
	return nil
}

// reload pushes a source changed on disk to every session
func (s *liveServer) reload(source string) {
	s.store.Set(source)
	n := s.live.Broadcast(source)
	log.Printf("🔄 %s changed, updated %d sessions", s.path, n)
}

func (s *liveServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.live.Path(), s.live.HandleWebSocket)
	mux.HandleFunc("/diagram.svg", s.handleSVG)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(bytes.ReplaceAll(indexHTML, []byte(live.DefaultPath), []byte(s.live.Path())))
	})
	return mux
}

func (s *liveServer) handleSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := renderSVG(r.Context(), s.renderer, s.store.Get(), false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

func runServe(cfg *config.Config, path string) error {
	s, err := newLiveServer(cfg, path)
	if err != nil {
		return err
	}
	defer s.live.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s.watcher != nil {
		go s.watcher.Run(ctx)
		log.Printf("👀 Watching %s", s.watcher.Path())
	}

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	log.Printf("🚀 Editing %s at http://%s", path, cfg.Addr())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// allowOrigins returns an origin check for the given list; an empty list
// allows any origin
func allowOrigins(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}
