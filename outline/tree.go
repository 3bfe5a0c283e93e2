// Package outline compiles a DOM, given as raw HTML or as a pre-walked
// snapshot, into a numbered text outline an agent can read, and maps outline
// numbers back to CSS selectors and XPaths it can act on.
//
//	t := outline.New()
//	text, _ := t.BuildFromHTML(ctx, page)
//	id, _ := t.ResolveOutlineIndex(1)
//	sel, xp, _ := t.GetSelectorAndXPath(id)
//
// A Tree is rebuilt from scratch on every build and is not safe for
// concurrent use; Session serializes access for servers.
package outline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domoutline/kit"
	"github.com/hazyhaar/domoutline/outline/internal/build"
	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/internal/fragment"
	"github.com/hazyhaar/domoutline/outline/internal/history"
	"github.com/hazyhaar/domoutline/outline/internal/locate"
	"github.com/hazyhaar/domoutline/outline/internal/prune"
	"github.com/hazyhaar/domoutline/outline/internal/render"
	"github.com/hazyhaar/domoutline/outline/internal/semantic"
	"github.com/hazyhaar/domoutline/outline/internal/style"
	"github.com/hazyhaar/domoutline/outline/snapshot"
)

// Source values reported by Tree.Source.
const (
	SourceHTML     = "html"
	SourceSnapshot = "snapshot"
)

// Line is one emitted outline entry.
type Line = render.Line

// Resolution is the semantic reading of one node.
type Resolution struct {
	Role    string `json:"role"`
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// Tree holds one built snapshot and its last render.
type Tree struct {
	cfg      *Config
	logger   *slog.Logger
	recorder *history.Recorder
	frag     *fragment.Renderer

	source   string
	pageURL  string
	title    string
	docTitle string
	store    *dom.Store
	doc      *build.Document // nil for snapshot builds
	out      *render.Output
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.logger = l }
}

// WithConfig sets the render configuration. Default: DefaultConfig().
func WithConfig(c *Config) Option {
	return func(t *Tree) { t.cfg = c }
}

// WithRecorder stores every render in r.
func WithRecorder(r *history.Recorder) Option {
	return func(t *Tree) { t.recorder = r }
}

// New returns an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{}
	for _, o := range opts {
		o(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.cfg == nil {
		t.cfg = DefaultConfig()
	}
	t.cfg.applyDefaults()
	t.frag = fragment.New(*t.cfg.SanitizeFragments)
	return t
}

// SetPage records the URL and title of the page the next build comes from.
// They feed history records, markdown link resolution and Observation.
func (t *Tree) SetPage(url, title string) {
	t.pageURL = url
	t.title = title
}

// BuildFromHTML replaces the tree with the elements of src and returns the
// rendered outline. Elements hidden by authored CSS, the hidden attribute or
// aria-hidden are pruned with their subtree but stay addressable.
func (t *Tree) BuildFromHTML(ctx context.Context, src string) (string, error) {
	doc, err := build.FromHTML(src)
	if err != nil {
		t.reset()
		return "", fmt.Errorf("outline: build from html: %w", err)
	}

	sheet, errs := style.Collect(doc.Doc, t.logger)
	for _, err := range errs {
		t.logger.DebugContext(ctx, "outline: style block ignored", "error", err)
	}
	hidden := prune.HiddenMask(doc.Store, func(n *dom.Node) bool {
		return n.Source != nil && (style.HiddenByAttribute(n.Source) || sheet.Hides(n.Source))
	})
	prune.Structural(doc.Store, hidden)

	t.source = SourceHTML
	t.doc = doc
	t.store = doc.Store
	t.docTitle = documentTitle(doc.Doc)
	return t.render(ctx), nil
}

// BuildFromSnapshot replaces the tree with the nodes of snap and returns the
// rendered outline. A snapshot without node map or root, or whose root does
// not decode, yields an empty outline; the cause is logged.
func (t *Tree) BuildFromSnapshot(ctx context.Context, snap *snapshot.Snapshot) string {
	store, err := build.FromSnapshot(snap, t.logger)
	if err != nil {
		t.logger.WarnContext(ctx, "outline: empty outline for snapshot", "error", err)
	}
	prune.Evaluated(store)

	t.source = SourceSnapshot
	t.doc = nil
	t.store = store
	t.docTitle = ""
	return t.render(ctx)
}

// BuildFromSnapshotJSON decodes data as a snapshot and builds it. Only
// undecodable JSON is an error; a well-formed but incomplete snapshot gives
// an empty outline like BuildFromSnapshot.
func (t *Tree) BuildFromSnapshotJSON(ctx context.Context, data []byte) (string, error) {
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		return "", fmt.Errorf("outline: decode snapshot: %w", err)
	}
	return t.BuildFromSnapshot(ctx, snap), nil
}

func (t *Tree) reset() {
	t.source = ""
	t.doc = nil
	t.store = nil
	t.out = nil
	t.docTitle = ""
}

// Title returns the title set by SetPage, else the <title> of an HTML build.
func (t *Tree) Title() string {
	if t.title != "" {
		return t.title
	}
	return t.docTitle
}

func (t *Tree) renderOptions() render.Options {
	return render.Options{
		HideCollapsed:      t.cfg.HideCollapsed,
		MergeGrandchildren: *t.cfg.MergeGrandchildren,
		MaxContentLen:      t.cfg.MaxContentLen,
		StateAttributes:    t.cfg.StateAttributes,
	}
}

func (t *Tree) render(ctx context.Context) string {
	t.out = render.Render(t.store, t.renderOptions())
	t.logger.DebugContext(ctx, "outline: rendered",
		"session", kit.GetSessionID(ctx),
		"source", t.source,
		"nodes", t.store.Count(),
		"lines", len(t.out.Lines))
	t.record(ctx)
	return t.out.Text
}

// record stores the render. Failures are logged; rendering never depends
// on the recorder.
func (t *Tree) record(ctx context.Context) {
	if t.recorder == nil {
		return
	}
	rec := &history.Record{
		Source:    t.source,
		PageURL:   t.pageURL,
		Title:     t.Title(),
		Outline:   t.out.Text,
		IndexMap:  t.out.Index,
		NodeCount: t.store.Count(),
	}
	if err := t.recorder.Record(ctx, rec); err != nil {
		t.logger.WarnContext(ctx, "outline: history record failed",
			"session", kit.GetSessionID(ctx),
			"error", err)
	}
}

// Outline returns the text of the last render.
func (t *Tree) Outline() string {
	if t.out == nil {
		return ""
	}
	return t.out.Text
}

// Lines returns the lines of the last render.
func (t *Tree) Lines() []Line {
	if t.out == nil {
		return nil
	}
	return t.out.Lines
}

// Source reports how the tree was built: SourceHTML, SourceSnapshot, or ""
// before any build.
func (t *Tree) Source() string { return t.source }

// NodeCount returns the number of nodes in the store.
func (t *Tree) NodeCount() int {
	if t.store == nil {
		return 0
	}
	return t.store.Count()
}

// Observation returns the outline prefixed with the page header an agent
// prompt expects. An empty title uses the one set by SetPage or found in the
// document.
func (t *Tree) Observation(title string) string {
	if title == "" {
		title = t.Title()
	}
	return fmt.Sprintf("current web tab name is '%s'\n%s", title, t.Outline())
}

// ResolveOutlineIndex maps outline number n of the last render to its node id.
func (t *Tree) ResolveOutlineIndex(n int) (int, error) {
	if t.out == nil {
		return 0, ErrNotBuilt
	}
	id, ok := t.out.Index[n]
	if !ok {
		return 0, fmt.Errorf("outline: index %d: %w", n, ErrNodeNotFound)
	}
	return id, nil
}

// GetContent returns the content node id showed in the last render.
func (t *Tree) GetContent(id int) (string, error) {
	if t.out == nil {
		return "", ErrNotBuilt
	}
	v, ok := t.out.Values[id]
	if !ok {
		return "", fmt.Errorf("outline: content of node %d: %w", id, ErrNodeNotFound)
	}
	return v, nil
}

// GetSelectorAndXPath derives a CSS selector and an XPath for id from the
// built tree. A stale id or a broken ancestor chain yields ErrLocate.
func (t *Tree) GetSelectorAndXPath(id int) (string, string, error) {
	if t.store == nil {
		return "", "", fmt.Errorf("%w: %w", ErrLocate, ErrNotBuilt)
	}
	return locate.Locators(t.store, id)
}

func (t *Tree) node(id int) (*dom.Node, error) {
	if t.store == nil {
		return nil, ErrNotBuilt
	}
	n, err := t.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	return n, nil
}

// Valid reports whether id survived pruning and was not merged into another
// line by the last render.
func (t *Tree) Valid(id int) bool {
	if t.store == nil || !t.store.Valid(id) {
		return false
	}
	return t.out == nil || !t.out.Suppressed[id]
}

// Resolve returns the role, semantic id and content of id as the action
// layer sees it. It reads only; sibling fragments are merged into the
// content but nothing is invalidated.
func (t *Tree) Resolve(id int) (Resolution, error) {
	if _, err := t.node(id); err != nil {
		return Resolution{}, err
	}
	r := semantic.New(t.store)
	r.MergeGrandchildren = *t.cfg.MergeGrandchildren
	r.StateAttributes = t.cfg.StateAttributes
	res := r.Resolve(id)
	return Resolution{Role: res.Role, ID: res.ID, Content: strings.TrimSpace(res.Content)}, nil
}

// fragmentNode builds the pruned subtree of id. It returns nil for nodes
// pruned away.
func (t *Tree) fragmentNode(id int) (*html.Node, error) {
	n, err := t.node(id)
	if err != nil {
		return nil, err
	}
	if !t.store.Valid(id) {
		return nil, nil
	}
	if t.doc != nil && n.Source != nil {
		return fragment.Prune(n.Source, func(h *html.Node) bool {
			cid, ok := t.doc.IDs[h]
			return ok && t.store.Valid(cid)
		}), nil
	}
	return fragment.FromStore(t.store, id, t.store.Valid), nil
}

// HTML returns the outer HTML of id with pruned descendants removed. The
// source tree is untouched. Pruned nodes give "".
func (t *Tree) HTML(id int) (string, error) {
	h, err := t.fragmentNode(id)
	if err != nil {
		return "", err
	}
	return t.frag.HTML(h)
}

// Markdown returns the kept subtree of id as markdown, resolving relative
// links against the page URL.
func (t *Tree) Markdown(id int) (string, error) {
	h, err := t.fragmentNode(id)
	if err != nil {
		return "", err
	}
	if h == nil {
		return "", nil
	}
	return t.frag.Markdown(h, t.pageURL)
}

// IsFileUploader reports whether id, or a descendant at most maxDepth levels
// below it, is an <input> of type file or carrying accept. maxDepth <= 0
// means 3.
func (t *Tree) IsFileUploader(id, maxDepth int) (bool, error) {
	if _, err := t.node(id); err != nil {
		return false, err
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}
	var probe func(id, depth int) bool
	probe = func(id, depth int) bool {
		n := t.store.Node(id)
		if n == nil || depth > maxDepth {
			return false
		}
		if n.Tag == "input" && (strings.EqualFold(n.AttrValue("type"), "file") || n.HasAttr("accept")) {
			return true
		}
		for _, c := range n.Children {
			if probe(c, depth+1) {
				return true
			}
		}
		return false
	}
	return probe(id, 0), nil
}

// FrameChain returns the selectors of the iframe ancestors of id, outermost
// first. Each one scopes the next lookup to that frame's document.
func (t *Tree) FrameChain(id int) ([]string, error) {
	if t.store == nil {
		return nil, fmt.Errorf("%w: %w", ErrLocate, ErrNotBuilt)
	}
	chain, err := t.store.Ancestors(id)
	if err != nil {
		return nil, fmt.Errorf("%w: node %d: %w", ErrLocate, id, err)
	}
	var frames []string
	for i := len(chain) - 1; i >= 1; i-- {
		if t.store.Node(chain[i]).Tag != "iframe" {
			continue
		}
		sel, err := locate.Selector(t.store, chain[i])
		if err != nil {
			return nil, err
		}
		frames = append(frames, sel)
	}
	return frames, nil
}

// Query evaluates an XPath expression against an HTML-built tree and returns
// the matching node ids in document order.
func (t *Tree) Query(expr string) ([]int, error) {
	if t.doc == nil {
		if t.store == nil {
			return nil, fmt.Errorf("%w: %w", ErrLocate, ErrNotBuilt)
		}
		return nil, fmt.Errorf("%w: xpath queries need an html build", ErrLocate)
	}
	return locate.Query(t.doc.Doc, t.doc.IDs, expr)
}

func documentTitle(doc *html.Node) string {
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			return strings.Join(strings.Fields(b.String()), " ")
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return ""
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if s := find(c); s != "" {
				return s
			}
		}
		return ""
	}
	if doc == nil {
		return ""
	}
	return find(doc)
}
