// Package dom holds the arena-backed node store shared by every stage of the
// outline pipeline. Nodes reference each other by integer id only.
package dom

import (
	"golang.org/x/net/html"
)

// Kind discriminates element nodes from text nodes.
type Kind uint8

const (
	Element Kind = iota + 1
	Text
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "ELEMENT_NODE"
	case Text:
		return "TEXT_NODE"
	}
	return "UNKNOWN"
}

// Sentinel parent values.
const (
	NoParent    = -1 // root
	UnsetParent = -2 // never attached
)

// Node is one DOM node of a snapshot. ID equals its position in the Store.
type Node struct {
	ID    int
	Kind  Kind
	Tag   string
	Text  string
	Attrs map[string]string

	Children []int
	Parent   int
	Sibling  int // 1-based position among element siblings
	Twin     int // 1-based occurrence of Tag among element siblings
	Depth    int // root = 1

	// Visible is the browser-evaluated visibility. HTML-path nodes are
	// always visible here; authored CSS is applied by the style engine.
	Visible bool

	// Selector and XPath are set when the snapshot precomputed them.
	Selector string
	XPath    string

	// Source is the parsed node on the HTML path, nil otherwise.
	Source *html.Node
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool { return n.Kind == Element }

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Kind == Text }

// Attr returns the attribute value and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	if n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// AttrValue returns the attribute value or "".
func (n *Node) AttrValue(key string) string {
	v, _ := n.Attr(key)
	return v
}

// HasAttr reports whether the attribute is present, whatever its value.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}
