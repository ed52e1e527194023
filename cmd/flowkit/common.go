package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/recera/flowkit/internal/cache"
	"github.com/recera/flowkit/internal/config"
	"github.com/recera/flowkit/pkg/debug"
	"github.com/recera/flowkit/pkg/flowchart"
	"github.com/recera/flowkit/pkg/render"
)

// emptyDiagram is the source of a diagram file that does not exist yet
const emptyDiagram = "flowchart TD\n"

type globalOptions struct {
	projectDir string
	debug      bool
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

// loadConfig loads flowkit.yaml, falling back to defaults with a warning
func (g *globalOptions) loadConfig() *config.Config {
	cfg, err := config.Load(g.projectDir)
	if err != nil {
		log.Printf("⚠️  Failed to load %s: %v (using defaults)", config.FileName, err)
		cfg = config.DefaultConfig()
	}
	if g.debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		debug.EnableLogging()
	}
	return cfg
}

// diagramPath resolves the diagram file from args or the config
func (g *globalOptions) diagramPath(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if filepath.IsAbs(cfg.Diagram) {
		return cfg.Diagram
	}
	return filepath.Join(g.projectDir, cfg.Diagram)
}

// readSource reads a diagram; "-" reads stdin. A missing file is an
// empty flowchart when allowMissing is set.
func readSource(path string, stdin io.Reader, allowMissing bool) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && allowMissing {
		return emptyDiagram, nil
	}
	if err != nil {
		return "", fmt.Errorf("read diagram: %w", err)
	}
	return string(data), nil
}

// writeSource replaces path atomically
func writeSource(path, source string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".flowkit-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// newRenderer creates the layout renderer described by cfg
func newRenderer(cfg *config.Config) *render.LayoutRenderer {
	cacheConfig := cache.DefaultConfig[*render.Diagram]()
	cacheConfig.MaxSize = int64(cfg.Cache.MaxEntries)
	cacheConfig.MaxAge = cfg.Cache.MaxAge
	cacheConfig.Strategy = cache.ParseStrategy(cfg.Cache.Strategy)

	return render.NewLayoutRenderer(render.LayoutOptions{
		NodeHeight:   cfg.Layout.NodeHeight,
		MinNodeWidth: cfg.Layout.MinNodeWidth,
		RankGap:      cfg.Layout.RankGap,
		NodeGap:      cfg.Layout.NodeGap,
		Margin:       cfg.Layout.Margin,
		Strict:       cfg.Layout.Strict,
		Cache:        cache.New(cacheConfig),
	})
}

// editorOptions converts the editor section of cfg
func editorOptions(cfg *config.Config) (flowchart.Options, error) {
	mode, err := flowchart.ParseConnectMode(cfg.Editor.ConnectMode)
	if err != nil {
		return flowchart.Options{}, err
	}
	return flowchart.Options{
		ConnectMode:  mode,
		Callback:     cfg.Editor.Callback,
		DefaultLabel: cfg.Editor.DefaultLabel,
	}, nil
}
