// Package fragment serializes the kept part of a node's subtree as HTML or
// markdown. Sources are never mutated: pruning happens on a copy.
package fragment

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// Renderer turns pruned subtrees into HTML or markdown.
type Renderer struct {
	sanitize bool
	policy   *bluemonday.Policy
	md       *converter.Converter
}

// New returns a Renderer. With sanitize, emitted HTML passes through a
// user-generated-content policy that strips scripts and event handlers.
func New(sanitize bool) *Renderer {
	return &Renderer{
		sanitize: sanitize,
		policy:   bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Prune copies n, keeping text children and the element descendants for
// which keep returns true.
func Prune(n *html.Node, keep func(*html.Node) bool) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case html.ElementNode:
			if keep(ch) {
				c.AppendChild(Prune(ch, keep))
			}
		case html.TextNode:
			c.AppendChild(&html.Node{Type: html.TextNode, Data: ch.Data})
		}
	}
	return c
}

// FromStore rebuilds an html.Node tree for id from store records, keeping
// the descendants for which keep returns true. It serves snapshot-sourced
// stores, which have no parsed source.
func FromStore(s *dom.Store, id int, keep func(int) bool) *html.Node {
	n := s.Node(id)
	if n == nil {
		return nil
	}
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	el := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	for k, v := range n.Attrs {
		el.Attr = append(el.Attr, html.Attribute{Key: k, Val: v})
	}
	sort.Slice(el.Attr, func(i, j int) bool { return el.Attr[i].Key < el.Attr[j].Key })

	hasText := false
	for _, c := range n.Children {
		if cn := s.Node(c); cn != nil && cn.IsText() {
			hasText = true
			break
		}
	}
	if !hasText && n.Text != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: n.Text})
	}
	for _, c := range n.Children {
		cn := s.Node(c)
		if cn == nil || (cn.IsElement() && !keep(c)) {
			continue
		}
		if child := FromStore(s, c, keep); child != nil {
			el.AppendChild(child)
		}
	}
	return el
}

// HTML serializes n, sanitized when the renderer was built with sanitize.
func (r *Renderer) HTML(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("fragment: render: %w", err)
	}
	out := buf.String()
	if r.sanitize {
		out = r.policy.Sanitize(out)
	}
	return out, nil
}

// Markdown converts n to markdown. domain, when set, resolves relative links.
func (r *Renderer) Markdown(n *html.Node, domain string) (string, error) {
	h, err := r.HTML(n)
	if err != nil {
		return "", err
	}
	var opts []converter.ConvertOptionFunc
	if domain != "" {
		opts = append(opts, converter.WithDomain(domain))
	}
	md, err := r.md.ConvertString(h, opts...)
	if err != nil {
		return "", fmt.Errorf("fragment: markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
