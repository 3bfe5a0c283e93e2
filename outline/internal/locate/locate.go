// Package locate synthesizes CSS selectors and XPath expressions for nodes of
// a built store. It never touches a live DOM.
package locate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// ErrLocate is returned when no locator can be derived for a node.
var ErrLocate = errors.New("locate failed")

// ident matches a CSS identifier usable without escaping.
var ident = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

// fixedXPath segments are unique by construction and carry no index.
var fixedXPath = map[string]bool{"html": true, "head": true, "body": true}

// Locators returns the selector and XPath of id. Values precomputed by the
// snapshot win over synthesized ones.
func Locators(s *dom.Store, id int) (string, string, error) {
	sel, err := Selector(s, id)
	if err != nil {
		return "", "", err
	}
	xp, err := XPath(s, id)
	if err != nil {
		return "", "", err
	}
	return sel, xp, nil
}

// elementChain returns the ancestor chain of id ordered root to leaf, and
// whether id is a text node (dropped from the chain). The chain starts below
// the nearest iframe ancestor, if any.
func elementChain(s *dom.Store, id int) ([]int, bool, error) {
	chain, err := s.Ancestors(id)
	if err != nil {
		return nil, false, fmt.Errorf("%w: node %d: %w", ErrLocate, id, err)
	}
	text := false
	if n := s.Node(chain[0]); n.IsText() {
		text = true
		chain = chain[1:]
		if len(chain) == 0 {
			return nil, true, fmt.Errorf("%w: text node %d has no element parent", ErrLocate, id)
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	// Locators address the document of the nearest enclosing frame.
	for i := len(chain) - 2; i >= 0; i-- {
		if s.Node(chain[i]).Tag == "iframe" {
			chain = chain[i+1:]
			break
		}
	}
	return chain, text, nil
}

// XPath returns an absolute XPath for id built from twin indexes:
// /html/body/div[2]/a[1]. Text nodes address their parent's text().
func XPath(s *dom.Store, id int) (string, error) {
	chain, text, err := elementChain(s, id)
	if err != nil {
		return "", err
	}
	if leaf := s.Node(id); leaf != nil && leaf.XPath != "" {
		return leaf.XPath, nil
	}
	if text {
		if p := s.Node(chain[len(chain)-1]); p.XPath != "" {
			return p.XPath + "/text()", nil
		}
	}
	var b strings.Builder
	for _, cid := range chain {
		n := s.Node(cid)
		b.WriteByte('/')
		b.WriteString(n.Tag)
		if !fixedXPath[n.Tag] {
			fmt.Fprintf(&b, "[%d]", n.Twin)
		}
	}
	if text {
		b.WriteString("/text()")
	}
	return b.String(), nil
}

// Selector returns a CSS selector for id. Walking from the node to the root,
// an id attribute ends the walk; otherwise each level contributes its tag and
// sorted classes, plus :nth-child when a sibling would match the same
// segment. Text nodes use their parent's selector.
func Selector(s *dom.Store, id int) (string, error) {
	chain, text, err := elementChain(s, id)
	if err != nil {
		return "", err
	}
	leafID := chain[len(chain)-1]
	if n := s.Node(id); !text && n.Selector != "" {
		return n.Selector, nil
	}
	if p := s.Node(leafID); text && p.Selector != "" {
		return p.Selector, nil
	}

	var segs []string
	for i := len(chain) - 1; i >= 0; i-- {
		n := s.Node(chain[i])
		if v := strings.TrimSpace(n.AttrValue("id")); v != "" {
			segs = append(segs, idSegment(n.Tag, v))
			break
		}
		seg, classes := classSegment(n)
		if n.Parent >= 0 && ambiguous(s, n, classes) {
			seg += fmt.Sprintf(":nth-child(%d)", n.Sibling)
		}
		segs = append(segs, seg)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	sel := strings.Join(segs, " > ")
	if _, err := cascadia.Compile(sel); err != nil {
		return "", fmt.Errorf("%w: node %d: selector %q: %w", ErrLocate, id, sel, err)
	}
	return sel, nil
}

func idSegment(tag, id string) string {
	if ident.MatchString(id) {
		return "#" + id
	}
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(id)
	return tag + `[id="` + esc + `"]`
}

// classSegment returns tag.class1.class2 with classes sorted and those that
// are not plain identifiers dropped.
func classSegment(n *dom.Node) (string, []string) {
	classes := Classes(n)
	if len(classes) == 0 {
		return n.Tag, nil
	}
	return n.Tag + "." + strings.Join(classes, "."), classes
}

// Classes returns the sorted, de-duplicated identifier classes of n.
func Classes(n *dom.Node) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range strings.Fields(n.AttrValue("class")) {
		if ident.MatchString(c) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// ambiguous reports whether another element sibling of n has the same tag
// and every class of n, so the segment alone would match it too.
func ambiguous(s *dom.Store, n *dom.Node, classes []string) bool {
	for _, sid := range s.ElementChildren(n.Parent) {
		if sid == n.ID {
			continue
		}
		sib := s.Node(sid)
		if sib.Tag != n.Tag {
			continue
		}
		have := make(map[string]bool)
		for _, c := range strings.Fields(sib.AttrValue("class")) {
			have[c] = true
		}
		all := true
		for _, c := range classes {
			if !have[c] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
