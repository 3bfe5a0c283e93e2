// Package prune decides which nodes of a store are eligible to appear in an
// outline and propagates validity towards the root.
package prune

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// allowed lists the interactive and content-carrying tags a node must have to
// be eligible on its own. Other nodes only become valid by propagation.
var allowed = map[string]bool{
	// interactive
	"a": true, "button": true, "input": true, "textarea": true, "select": true,
	"option": true, "summary": true, "label": true, "img": true,
	// content carriers
	"span": true, "p": true, "div": true, "li": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"em": true, "strong": true, "b": true, "i": true, "u": true, "small": true,
	"mark": true, "font": true, "sub": true, "sup": true, "code": true, "pre": true,
	"blockquote": true, "caption": true, "figcaption": true, "legend": true,
	"dt": true, "dd": true, "cite": true, "time": true, "abbr": true, "q": true,
}

// interactive tags are eligible even without text of their own; their label
// may come from attributes or descendants.
var interactive = map[string]bool{
	"a": true, "button": true, "input": true, "textarea": true, "select": true,
	"option": true, "summary": true, "label": true,
}

// Allowed reports whether tag is on the allow-list.
func Allowed(tag string) bool { return allowed[tag] }

// Eligible applies the allow-list and the element predicate to one node.
func Eligible(n *dom.Node) bool {
	if n == nil || !n.IsElement() || !allowed[n.Tag] {
		return false
	}
	if n.HasAttr("disabled") || strings.EqualFold(n.AttrValue("aria-disabled"), "true") {
		return false
	}
	switch n.Tag {
	case "input":
		return !strings.EqualFold(n.AttrValue("type"), "hidden")
	case "img":
		return HasAlnum(n.AttrValue("alt"))
	}
	if interactive[n.Tag] {
		return true
	}
	return HasAlnum(n.Text)
}

// HasAlnum reports whether s contains a letter or digit.
func HasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// HiddenMask returns, per node id, whether the node or one of its ancestors
// is hidden according to hides.
func HiddenMask(s *dom.Store, hides func(*dom.Node) bool) []bool {
	mask := make([]bool, s.Len())
	root := s.Root()
	if !s.Has(root) {
		return mask
	}
	type item struct {
		id     int
		hidden bool
	}
	stack := []item{{root, false}}
	seen := make([]bool, s.Len())
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[it.id] {
			continue
		}
		seen[it.id] = true
		n := s.Node(it.id)
		h := it.hidden || hides(n)
		mask[it.id] = h
		for _, c := range n.Children {
			if s.Has(c) {
				stack = append(stack, item{c, h})
			}
		}
	}
	return mask
}

// Structural prunes an HTML-sourced store. Nodes are visited deepest first
// (reverse breadth-first id order). A visible node that is eligible, or was
// already marked valid by a descendant, marks its whole ancestor chain valid.
// Hidden nodes never become valid, so a hidden subtree cannot anchor its
// ancestors.
//
// Invalid nodes are dropped individually. Widening the drop to their
// siblings is not applied: in this visiting order every sibling is either
// anchored by a valid descendant, which must keep it valid, or still
// undecided.
func Structural(s *dom.Store, hidden []bool) {
	s.ResetValidity(false)
	for id := s.Len() - 1; id >= 0; id-- {
		n := s.Node(id)
		if n == nil {
			continue
		}
		if id < len(hidden) && hidden[id] {
			s.SetValid(id, false)
			continue
		}
		if s.Valid(id) || Eligible(n) {
			s.MarkValidUpward(id)
		}
	}
}

// Evaluated prepares a snapshot-sourced store. The browser already resolved
// the cascade into each node's Visible flag, so every node stays valid and
// visibility is judged per node at render time: an invisible node emits no
// line but its children are still visited.
func Evaluated(s *dom.Store) {
	s.ResetValidity(true)
}
