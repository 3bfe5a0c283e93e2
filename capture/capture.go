// Package capture acquires pages for the outline compiler: raw HTML over
// HTTP, or a live DOM walked in Chrome through rod. It also hands the action
// layer live elements for the locators the outline produced.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/domoutline/capture/internal/browser"
	"github.com/hazyhaar/domoutline/capture/internal/config"
	"github.com/hazyhaar/domoutline/capture/internal/fetcher"
	"github.com/hazyhaar/domoutline/outline"
)

// Config is the capture configuration.
type Config = config.Config

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config { return config.Default() }

// LoadConfig reads a YAML capture configuration.
func LoadConfig(path string) (*Config, error) { return config.LoadFile(path) }

// Errors returned by Capture, OpenPage and Locate.
var (
	ErrNoElement    = browser.ErrNoElement
	ErrUnsafeScheme = fetcher.ErrUnsafeScheme
	ErrPrivateHost  = fetcher.ErrPrivateHost
)

// Acquisition paths reported in Page.Via.
const (
	ViaHTTP    = "http"
	ViaBrowser = "browser"
)

// Page is one acquired page.
type Page struct {
	URL   string
	Title string
	HTML  string
	// Snapshot is the walker output ({map, root}); browser captures only.
	Snapshot []byte
	Via      string
}

// Capturer acquires pages according to its Config.
type Capturer struct {
	cfg     *Config
	fetcher *fetcher.Fetcher
	mgr     *browser.Manager
	logger  *slog.Logger
}

// New returns a Capturer. Chrome is launched on the first browser capture.
func New(cfg *Config, logger *slog.Logger) (*Capturer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	mode, err := browser.ParseMode(cfg.Browser.Stealth)
	if err != nil {
		return nil, err
	}
	return &Capturer{
		cfg: cfg,
		fetcher: fetcher.New(
			fetcher.WithClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
			fetcher.WithUserAgent(cfg.Fetch.UserAgent),
			fetcher.WithMaxBytes(cfg.Fetch.MaxBytes),
			fetcher.WithLogger(logger),
		),
		mgr: browser.NewManager(browser.Config{
			RemoteURL:         cfg.Browser.Remote,
			Mode:              mode,
			XvfbDisplay:       cfg.Browser.XvfbDisplay,
			ResourceBlocking:  cfg.Browser.ResourceBlocking,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			RecycleInterval:   cfg.Browser.RecycleInterval,
			Logger:            logger,
		}),
		logger: logger,
	}, nil
}

// Capture acquires pageURL. In auto mode an HTTP body that fails the
// sufficiency check, or a failed fetch, escalates to the browser.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (*Page, error) {
	if err := fetcher.CheckURL(ctx, pageURL, c.cfg.Fetch.AllowPrivate); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	switch c.cfg.Mode {
	case "http":
		p, _, err := c.fetch(ctx, pageURL)
		return p, err
	case "browser":
		return c.browse(ctx, pageURL)
	}

	p, sufficient, err := c.fetch(ctx, pageURL)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "capture: fetch failed, escalating to browser", "url", pageURL, "error", err)
	case !sufficient:
		c.logger.InfoContext(ctx, "capture: content insufficient via http, escalating to browser", "url", pageURL)
	default:
		return p, nil
	}
	return c.browse(ctx, pageURL)
}

func (c *Capturer) fetch(ctx context.Context, pageURL string) (*Page, bool, error) {
	res, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, false, fmt.Errorf("capture: %w", err)
	}
	if res.Truncated {
		c.logger.WarnContext(ctx, "capture: body truncated", "url", res.URL, "max_bytes", c.cfg.Fetch.MaxBytes)
	}
	return &Page{URL: res.URL, HTML: string(res.HTML), Via: ViaHTTP}, res.Sufficient, nil
}

func (c *Capturer) browse(ctx context.Context, pageURL string) (*Page, error) {
	tab, err := browser.OpenTab(ctx, c.mgr, pageURL)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	defer tab.Close()
	return c.read(ctx, tab)
}

// OpenPage opens a live tab on pageURL for a snapshot, render and act
// cycle. The caller closes it.
func (c *Capturer) OpenPage(ctx context.Context, pageURL string) (*rod.Page, error) {
	if err := fetcher.CheckURL(ctx, pageURL, c.cfg.Fetch.AllowPrivate); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	tab, err := browser.OpenTab(ctx, c.mgr, pageURL)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return tab.Page, nil
}

// Snapshot walks a live page again, typically after an action changed it.
func (c *Capturer) Snapshot(ctx context.Context, page *rod.Page) (*Page, error) {
	info, err := page.Context(ctx).Info()
	if err != nil {
		return nil, fmt.Errorf("capture: page info: %w", err)
	}
	return c.read(ctx, &browser.Tab{Page: page, URL: info.URL})
}

func (c *Capturer) read(ctx context.Context, tab *browser.Tab) (*Page, error) {
	snap, err := tab.Walk(ctx, c.cfg.Browser.PrecomputeXPath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	title, err := tab.Title(ctx)
	if err != nil {
		c.logger.DebugContext(ctx, "capture: no title", "url", tab.URL, "error", err)
	}
	c.logger.DebugContext(ctx, "capture: walked page", "url", tab.URL, "snapshot_bytes", len(snap))
	return &Page{URL: tab.URL, Title: title, HTML: html, Snapshot: snap, Via: ViaBrowser}, nil
}

// Build compiles p into t. Browser captures use the walker snapshot, whose
// visibility is computed by the page; HTTP captures use the HTML path.
func Build(ctx context.Context, t *outline.Tree, p *Page) (string, error) {
	t.SetPage(p.URL, p.Title)
	if len(p.Snapshot) > 0 {
		return t.BuildFromSnapshotJSON(ctx, p.Snapshot)
	}
	return t.BuildFromHTML(ctx, p.HTML)
}

// Locate returns the live element for a node's locators, descending the
// iframe chain from Tree.FrameChain first.
func Locate(ctx context.Context, page *rod.Page, frames []string, selector, xpath string) (*rod.Element, error) {
	return browser.Locate(ctx, page, frames, selector, xpath)
}

// Close shuts the browser down.
func (c *Capturer) Close() error {
	return c.mgr.Close()
}
