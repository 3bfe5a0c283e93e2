// Package build populates a dom.Store from either a raw HTML document or a
// pre-walked snapshot.
package build

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// Document is the result of building from HTML: the store plus the parsed
// tree it was numbered from.
type Document struct {
	Store *dom.Store
	Doc   *html.Node
	IDs   map[*html.Node]int
}

// FromHTML parses src and numbers its elements breadth-first from the root
// element, which gets id 0. Comments and other non-element nodes are not
// numbered; direct text children are folded into their element's Text.
func FromHTML(src string) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("build: parse html: %w", err)
	}
	return FromNode(doc), nil
}

// FromNode numbers an already parsed document.
func FromNode(doc *html.Node) *Document {
	d := &Document{
		Store: dom.NewStore(64),
		Doc:   doc,
		IDs:   make(map[*html.Node]int),
	}
	root := firstElement(doc)
	if root == nil {
		return d
	}

	rootID := d.Store.Append(elementNode(root, dom.NoParent, 1))
	d.Store.SetRoot(rootID)
	d.IDs[root] = rootID

	queue := []*html.Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		pid := d.IDs[n]
		parent := d.Store.Node(pid)

		sibling := 0
		twins := make(map[string]int)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			sibling++
			child := elementNode(c, pid, parent.Depth+1)
			child.Sibling = sibling
			twins[child.Tag]++
			child.Twin = twins[child.Tag]

			id := d.Store.Append(child)
			d.IDs[c] = id
			// Append may have grown the table.
			parent = d.Store.Node(pid)
			parent.Children = append(parent.Children, id)
			queue = append(queue, c)
		}
	}
	return d
}

func firstElement(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == html.ElementNode {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func elementNode(n *html.Node, parent, depth int) dom.Node {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if _, dup := attrs[a.Key]; !dup {
			attrs[a.Key] = a.Val
		}
	}
	return dom.Node{
		Kind:    dom.Element,
		Tag:     strings.ToLower(n.Data),
		Text:    ownText(n),
		Attrs:   attrs,
		Parent:  parent,
		Depth:   depth,
		Sibling: 1,
		Twin:    1,
		Visible: true,
		Source:  n,
	}
}

// ownText joins the direct text children of n with single spaces.
func ownText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.Join(strings.Fields(c.Data), " "); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " ")
}
