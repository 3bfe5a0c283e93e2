// Package render walks a pruned store and produces the numbered outline.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/internal/prune"
	"github.com/hazyhaar/domoutline/outline/internal/semantic"
)

// Options tune one render.
type Options struct {
	// HideCollapsed stops descent below aria-expanded="false".
	HideCollapsed bool
	// MergeGrandchildren extends span merging one level deeper.
	MergeGrandchildren bool
	// MaxContentLen truncates displayed content to that many runes. 0 keeps
	// it whole. The recorded value is never truncated.
	MaxContentLen int
	// StateAttributes are shown after the content and promoted from
	// content-less wrappers. Nil means semantic.StateAttributes.
	StateAttributes []string
}

// Line is one emitted outline entry.
type Line struct {
	Number  int    `json:"number"`
	NodeID  int    `json:"node_id"`
	Indent  int    `json:"indent"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Attrs   string `json:"attrs,omitempty"`
}

// String formats the line without indentation.
func (l Line) String() string {
	s := fmt.Sprintf("[%d] %s '%s'", l.Number, l.Role, l.Content)
	if l.Attrs != "" {
		s += " " + l.Attrs
	}
	return s
}

// Output is the result of one render.
type Output struct {
	Text  string
	Lines []Line
	// Index maps outline numbers to node ids.
	Index map[int]int
	// Values maps node ids to the content they showed.
	Values map[int]string
	// Suppressed holds the fragments merged into another line.
	Suppressed map[int]bool
}

// Render walks the store depth-first in document order and emits one line per
// visible node whose resolved content has a letter or digit. Outline numbers
// are assigned to emitted lines only, starting at 1. The store is not
// modified; merge suppression and attribute promotion live in the output.
func Render(s *dom.Store, opts Options) *Output {
	out := &Output{
		Index:      make(map[int]int),
		Values:     make(map[int]string),
		Suppressed: make(map[int]bool),
	}
	root := s.Root()
	if !s.Has(root) {
		return out
	}

	emitted := make(map[int]bool)
	promoted := make(map[int]map[string]string)
	live := func(id int) bool { return s.Valid(id) && !out.Suppressed[id] }

	attrs := opts.StateAttributes
	if attrs == nil {
		attrs = semantic.StateAttributes
	}

	r := semantic.New(s)
	r.MergeGrandchildren = opts.MergeGrandchildren
	r.StateAttributes = attrs
	r.Mergeable = func(id int) bool { return live(id) && !emitted[id] }

	type frame struct{ id, depth int }
	stack := []frame{{root, 0}}
	effective := make(map[int]int)
	lastDepth := -1
	visited := make(map[int]bool)

	var b strings.Builder
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.id] || !live(f.id) {
			continue
		}
		visited[f.id] = true
		n := s.Node(f.id)

		res := r.Resolve(f.id)
		for _, a := range res.Absorbed {
			out.Suppressed[a] = true
			if p, ok := promoted[a]; ok {
				for k, v := range p {
					promote(promoted, f.id, k, v)
				}
			}
		}
		content := strings.TrimSpace(res.Content)

		if target, ok := r.PromotionTarget(f.id, content, live); ok {
			for _, a := range attrs {
				if v := stateValue(n, promoted, a); v != "" {
					promote(promoted, target, a, v)
				}
			}
		}

		if prune.HasAlnum(content) && n.Visible {
			if _, seen := effective[f.depth]; !seen {
				prev, ok := effective[lastDepth]
				if !ok {
					prev = -1
				}
				effective[f.depth] = prev + 1
				lastDepth = f.depth
			}
			line := Line{
				Number:  len(out.Lines) + 1,
				NodeID:  res.ID,
				Indent:  effective[f.depth],
				Role:    res.Role,
				Content: truncate(content, opts.MaxContentLen),
				Attrs:   semantic.AttrString(mergedState(n, promoted, attrs), attrs),
			}
			out.Lines = append(out.Lines, line)
			out.Index[line.Number] = res.ID
			out.Values[res.ID] = content
			emitted[f.id] = true

			b.WriteString(strings.Repeat("  ", line.Indent))
			b.WriteString(line.String())
			b.WriteByte('\n')
		}

		if opts.HideCollapsed && n.AttrValue("aria-expanded") == "false" {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], f.depth + 1})
		}
	}
	out.Text = b.String()
	return out
}

func promote(promoted map[int]map[string]string, id int, key, value string) {
	m := promoted[id]
	if m == nil {
		m = make(map[string]string)
		promoted[id] = m
	}
	m[key] = value
}

func stateValue(n *dom.Node, promoted map[int]map[string]string, key string) string {
	if v, ok := promoted[n.ID][key]; ok {
		return v
	}
	return n.AttrValue(key)
}

func mergedState(n *dom.Node, promoted map[int]map[string]string, attrs []string) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if v := stateValue(n, promoted, a); v != "" {
			m[a] = v
		}
	}
	return m
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
