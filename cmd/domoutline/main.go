// Command domoutline compiles web pages into numbered outlines.
//
// Usage:
//
//	domoutline -html page.html              # outline a file ("-" reads stdin)
//	domoutline -snapshot snap.json          # outline a walker snapshot
//	domoutline -url https://example.com     # fetch (and escalate to Chrome) then outline
//	domoutline -html page.html -locate 3    # print the locators of outline line 3
//	domoutline -serve :8086                 # HTTP API + MCP (streamable) at /mcp
//	domoutline -mcp                         # MCP over stdio
//	domoutline -history 20                  # list recent renders
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domoutline/capture"
	"github.com/hazyhaar/domoutline/outline"
)

var version = "dev"

type options struct {
	config        string
	captureConfig string
	mode          string
	allowPrivate  bool
	html          string
	snapshot      string
	url           string
	observation   bool
	locate        int
	serve         string
	mcp           bool
	history       int
	sessionIdle   time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "path to outline YAML config")
	flag.StringVar(&o.captureConfig, "capture-config", "", "path to capture YAML config")
	flag.StringVar(&o.mode, "mode", "", "capture mode override: http, browser or auto")
	flag.BoolVar(&o.allowPrivate, "allow-private", false, "allow capturing loopback and private addresses")
	flag.StringVar(&o.html, "html", "", "HTML file to outline (- for stdin)")
	flag.StringVar(&o.snapshot, "snapshot", "", "snapshot JSON file to outline (- for stdin)")
	flag.StringVar(&o.url, "url", "", "URL to capture and outline")
	flag.BoolVar(&o.observation, "observation", false, "prefix the outline with the tab header")
	flag.IntVar(&o.locate, "locate", 0, "print selector and xpath of this outline number")
	flag.StringVar(&o.serve, "serve", "", "listen address for the HTTP API and MCP endpoint")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP over stdio")
	flag.IntVar(&o.history, "history", 0, "list the N most recent renders and exit")
	flag.DurationVar(&o.sessionIdle, "session-idle", 30*time.Minute, "close HTTP/MCP sessions idle for this long")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	loadDotEnv(logger, ".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("domoutline: fatal", "error", err)
		os.Exit(1)
	}
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(logger *slog.Logger, path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	logger.Warn("domoutline: ignoring env file", "path", path, "error", err)
	return err
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg := outline.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = outline.LoadConfigFile(o.config); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}

	var rec *outline.Recorder
	if cfg.History.DBPath != "" {
		var err error
		if rec, err = outline.OpenRecorder(cfg.History.DBPath); err != nil {
			return err
		}
		defer rec.Close()
	}

	newTree := func() *outline.Tree {
		return outline.New(outline.WithConfig(cfg), outline.WithLogger(logger), outline.WithRecorder(rec))
	}

	switch {
	case o.history > 0:
		return listHistory(ctx, rec, o.history)
	case o.serve != "":
		return serve(ctx, logger, newTree, o)
	case o.mcp:
		return serveStdio(ctx, newTree)
	case o.html != "", o.snapshot != "", o.url != "":
		return render(ctx, logger, newTree(), o)
	}
	flag.Usage()
	return errors.New("one of -html, -snapshot, -url, -serve, -mcp or -history is required")
}

func render(ctx context.Context, logger *slog.Logger, t *outline.Tree, o options) error {
	switch {
	case o.html != "":
		data, err := readInput(o.html)
		if err != nil {
			return err
		}
		if _, err := t.BuildFromHTML(ctx, string(data)); err != nil {
			return err
		}
	case o.snapshot != "":
		data, err := readInput(o.snapshot)
		if err != nil {
			return err
		}
		if _, err := t.BuildFromSnapshotJSON(ctx, data); err != nil {
			return err
		}
	default:
		c, err := newCapturer(logger, o)
		if err != nil {
			return err
		}
		defer c.Close()
		p, err := c.Capture(ctx, o.url)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "domoutline: captured", "url", p.URL, "via", p.Via)
		if _, err := capture.Build(ctx, t, p); err != nil {
			return err
		}
	}

	if o.locate > 0 {
		id, err := t.ResolveOutlineIndex(o.locate)
		if err != nil {
			return err
		}
		sel, xp, err := t.GetSelectorAndXPath(id)
		if err != nil {
			return err
		}
		frames, err := t.FrameChain(id)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"node_id": id, "selector": sel, "xpath": xp, "frames": frames,
		})
	}

	if o.observation {
		_, err := io.WriteString(os.Stdout, t.Observation(""))
		return err
	}
	_, err := io.WriteString(os.Stdout, t.Outline())
	return err
}

func newCapturer(logger *slog.Logger, o options) (*capture.Capturer, error) {
	cfg := capture.DefaultConfig()
	if o.captureConfig != "" {
		var err error
		if cfg, err = capture.LoadConfig(o.captureConfig); err != nil {
			return nil, err
		}
	}
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	if o.allowPrivate {
		cfg.Fetch.AllowPrivate = true
	}
	return capture.New(cfg, logger)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func listHistory(ctx context.Context, rec *outline.Recorder, limit int) error {
	if rec == nil {
		return errors.New("history is disabled: set history.db_path or DOMOUTLINE_HISTORY_DB")
	}
	records, err := rec.List(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func newMCPServer(svc *outline.Service) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "domoutline", Version: version}, nil)
	svc.RegisterMCP(srv)
	return srv
}

func serveStdio(ctx context.Context, newTree func() *outline.Tree) error {
	svc := outline.NewService(outline.NewRegistry(newTree), nil)
	return newMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}

func serve(ctx context.Context, logger *slog.Logger, newTree func() *outline.Tree, o options) error {
	reg := outline.NewRegistry(newTree)
	svc := outline.NewService(reg, logger)
	mcpSrv := newMCPServer(svc)

	r := chi.NewRouter()
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))
	r.Mount("/", svc.Handler())

	srv := &http.Server{
		Addr:              o.serve,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go pruneSessions(ctx, logger, reg, o.sessionIdle)

	errc := make(chan error, 1)
	go func() {
		logger.Info("domoutline: listening", "addr", o.serve, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("domoutline: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pruneSessions(ctx context.Context, logger *slog.Logger, reg *outline.Registry, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := reg.Prune(idle); n > 0 {
				logger.Info("domoutline: pruned idle sessions", "count", n, "open", reg.Len())
			}
		}
	}
}
