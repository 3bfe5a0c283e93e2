// Package semantic maps nodes to display roles and content, merging
// fragmented inline text and locating where state attributes should surface.
package semantic

import (
	"strings"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

// Display roles.
const (
	RoleButton     = "button"
	RoleLink       = "link"
	RoleTextbox    = "textbox"
	RoleCheckbox   = "checkbox"
	RoleRadio      = "radio"
	RoleCombobox   = "combobox"
	RoleOption     = "option"
	RoleImg        = "img"
	RoleHeading    = "heading"
	RoleStaticText = "statictext"
)

// StateAttributes are surfaced after the content of a line.
var StateAttributes = []string{"aria-expanded", "aria-haspopup", "focused", "selected"}

// spanLike tags carry inline text that is merged with sibling fragments.
var spanLike = map[string]bool{
	"span": true, "em": true, "strong": true, "b": true, "i": true, "u": true,
	"small": true, "mark": true, "font": true, "sub": true, "sup": true,
}

// structural tags are not interactive themselves; they take the role of the
// nearest ancestor that has one.
var structural = map[string]bool{
	"div": true, "section": true, "article": true, "main": true, "header": true,
	"footer": true, "nav": true, "aside": true, "form": true, "fieldset": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"p": true, "label": true, "table": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true, "td": true, "th": true, "caption": true,
	"figure": true, "figcaption": true, "blockquote": true, "pre": true,
	"code": true, "legend": true, "body": true, "html": true, "details": true,
	"cite": true, "time": true, "abbr": true, "q": true,
}

// ariaRoles are role attribute values that override the tag.
var ariaRoles = map[string]string{
	"button": RoleButton, "link": RoleLink, "checkbox": RoleCheckbox,
	"radio": RoleRadio, "textbox": RoleTextbox, "searchbox": RoleTextbox,
	"combobox": RoleCombobox, "listbox": RoleCombobox, "option": RoleOption,
	"switch": RoleCheckbox, "menuitem": "menuitem", "menuitemcheckbox": "menuitem",
	"menuitemradio": "menuitem", "tab": "tab", "treeitem": "treeitem",
	"slider": "slider", "heading": RoleHeading, "img": RoleImg,
}

// IsSpanLike reports whether n is an inline text carrier.
func IsSpanLike(n *dom.Node) bool {
	return n != nil && n.IsElement() && spanLike[n.Tag]
}

// IsStructural reports whether n delegates its role to its parent.
func IsStructural(n *dom.Node) bool {
	return n != nil && n.IsElement() && structural[n.Tag]
}

// ownRole returns the role an element has on its own, if any.
func ownRole(n *dom.Node) (string, bool) {
	if n == nil || !n.IsElement() {
		return "", false
	}
	if r, ok := ariaRoles[strings.ToLower(strings.TrimSpace(n.AttrValue("role")))]; ok {
		return r, true
	}
	switch n.Tag {
	case "a":
		return RoleLink, true
	case "button", "summary":
		return RoleButton, true
	case "input":
		switch strings.ToLower(n.AttrValue("type")) {
		case "checkbox":
			return RoleCheckbox, true
		case "radio":
			return RoleRadio, true
		case "submit", "button", "reset", "image", "file":
			return RoleButton, true
		}
		return RoleTextbox, true
	case "textarea":
		return RoleTextbox, true
	case "select":
		return RoleCombobox, true
	case "option":
		return RoleOption, true
	case "img":
		return RoleImg, true
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return RoleHeading, true
	}
	return "", false
}
