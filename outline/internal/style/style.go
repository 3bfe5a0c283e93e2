// Package style evaluates authored CSS from <style> blocks and inline style
// attributes to decide which elements are hidden by display:none or
// visibility:hidden.
package style

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrStyleParse wraps CSS that could not be parsed.
var ErrStyleParse = errors.New("style parse error")

// declaration is one display or visibility value together with its cascade
// position.
type declaration struct {
	sel         cascadia.Sel
	specificity cascadia.Specificity
	order       int
	important   bool
	value       string
}

// Sheet holds the display and visibility declarations collected from a
// document's style blocks.
type Sheet struct {
	display    []declaration
	visibility []declaration
	order      int
	logger     *slog.Logger
}

// NewSheet returns an empty sheet.
func NewSheet(logger *slog.Logger) *Sheet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sheet{logger: logger}
}

// Collect scans every <style> element under doc in document order. A block
// that fails to parse is skipped; its error is returned alongside the sheet
// built from the remaining blocks.
func Collect(doc *html.Node, logger *slog.Logger) (*Sheet, []error) {
	s := NewSheet(logger)
	var errs []error
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			if err := s.Add(b.String()); err != nil {
				s.logger.Warn("style: skipping style block", "error", err)
				errs = append(errs, err)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if doc != nil {
		walk(doc)
	}
	return s, errs
}

// Add parses one stylesheet and records its display and visibility
// declarations. Nothing is recorded when the sheet fails to parse.
func (s *Sheet) Add(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	sheet, err := parser.Parse(text)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStyleParse, err)
	}
	for _, rule := range sheet.Rules {
		// At-rules (media queries, font faces) are conditional or irrelevant
		// to visibility; only top-level qualified rules count.
		if rule.Kind != css.QualifiedRule {
			continue
		}
		s.addRule(rule)
	}
	return nil
}

func (s *Sheet) addRule(rule *css.Rule) {
	var display, visibility *css.Declaration
	for _, d := range rule.Declarations {
		switch strings.ToLower(d.Property) {
		case "display":
			display = d
		case "visibility":
			visibility = d
		}
	}
	if display == nil && visibility == nil {
		return
	}
	for _, raw := range rule.Selectors {
		if raw == "" {
			continue
		}
		sel, err := cascadia.Parse(raw)
		if err != nil {
			// Pseudo-elements and unsupported syntax never match a real element.
			s.logger.Debug("style: unsupported selector", "selector", raw, "error", err)
			continue
		}
		s.order++
		base := declaration{sel: sel, specificity: sel.Specificity(), order: s.order}
		if display != nil {
			d := base
			d.value = strings.ToLower(strings.TrimSpace(display.Value))
			d.important = display.Important
			s.display = append(s.display, d)
		}
		if visibility != nil {
			d := base
			d.value = strings.ToLower(strings.TrimSpace(visibility.Value))
			d.important = visibility.Important
			s.visibility = append(s.visibility, d)
		}
	}
}

// Len returns the number of recorded declarations.
func (s *Sheet) Len() int { return len(s.display) + len(s.visibility) }

// Hides reports whether n itself is hidden by the cascade: its winning
// display value is none or its winning visibility value is hidden or
// collapse. Inheritance is left to the caller.
func (s *Sheet) Hides(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	inline := inlineDeclarations(n, s.logger)
	if v, ok := s.winner(n, s.display, inline["display"]); ok && v == "none" {
		return true
	}
	if v, ok := s.winner(n, s.visibility, inline["visibility"]); ok && (v == "hidden" || v == "collapse") {
		return true
	}
	return false
}

// winner resolves one property for n. Important beats normal, then higher
// specificity, then later order. An inline declaration beats every normal
// stylesheet declaration.
func (s *Sheet) winner(n *html.Node, decls []declaration, inline *css.Declaration) (string, bool) {
	var best *declaration
	for i := range decls {
		d := &decls[i]
		if !d.sel.Match(n) {
			continue
		}
		if best == nil || beats(d, best) {
			best = d
		}
	}
	if inline != nil {
		if best == nil || !best.important || inline.Important {
			return strings.ToLower(strings.TrimSpace(inline.Value)), true
		}
	}
	if best == nil {
		return "", false
	}
	return best.value, true
}

func beats(a, b *declaration) bool {
	if a.important != b.important {
		return a.important
	}
	if a.specificity != b.specificity {
		return b.specificity.Less(a.specificity)
	}
	return a.order > b.order
}

func inlineDeclarations(n *html.Node, logger *slog.Logger) map[string]*css.Declaration {
	var text string
	for _, a := range n.Attr {
		if a.Key == "style" {
			text = strings.TrimSpace(a.Val)
			break
		}
	}
	if text == "" {
		return nil
	}
	// The declaration parser only closes a value on ';' or '}'.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		logger.Debug("style: bad inline style", "style", text, "error", err)
		return nil
	}
	out := make(map[string]*css.Declaration, len(decls))
	for _, d := range decls {
		out[strings.ToLower(d.Property)] = d
	}
	return out
}

// HiddenByAttribute reports the hidden attribute and aria-hidden="true".
func HiddenByAttribute(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		}
	}
	return false
}
