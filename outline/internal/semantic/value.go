package semantic

import (
	"strings"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// Value extracts the content a node shows to a user, with line breaks and
// tabs removed and runs of spaces collapsed.
func Value(s *dom.Store, n *dom.Node) string {
	if n == nil {
		return ""
	}
	return clean(rawValue(s, n))
}

func rawValue(s *dom.Store, n *dom.Node) string {
	if n.IsText() {
		return n.Text
	}
	switch n.Tag {
	case "input":
		switch strings.ToLower(n.AttrValue("type")) {
		case "checkbox", "radio":
			return first(n.AttrValue("aria-label"), n.AttrValue("title"), n.AttrValue("value"), n.AttrValue("name"))
		}
		return first(n.AttrValue("value"), n.AttrValue("placeholder"), n.AttrValue("aria-label"), n.AttrValue("title"), n.AttrValue("name"))
	case "textarea":
		return first(n.Text, n.AttrValue("placeholder"), n.AttrValue("aria-label"), n.AttrValue("title"))
	case "select":
		return first(selectedOption(s, n), n.AttrValue("aria-label"), n.AttrValue("title"))
	case "img":
		return first(n.AttrValue("alt"), n.AttrValue("title"))
	}
	return first(n.Text, n.AttrValue("aria-label"), n.AttrValue("title"))
}

// selectedOption returns the text of the selected option, or of the first
// option when none is marked.
func selectedOption(s *dom.Store, sel *dom.Node) string {
	if s == nil {
		return ""
	}
	var firstText string
	var walk func(id int) (string, bool)
	walk = func(id int) (string, bool) {
		n := s.Node(id)
		if n == nil {
			return "", false
		}
		if n.Tag == "option" {
			text := first(n.Text, n.AttrValue("label"), n.AttrValue("value"))
			if n.HasAttr("selected") {
				return text, true
			}
			if firstText == "" {
				firstText = text
			}
			return "", false
		}
		for _, c := range n.Children {
			if t, ok := walk(c); ok {
				return t, true
			}
		}
		return "", false
	}
	for _, c := range sel.Children {
		if t, ok := walk(c); ok {
			return t
		}
	}
	return firstText
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
