package prune

import (
	"testing"

	"github.com/hazyhaar/domoutline/outline/internal/build"
	"github.com/hazyhaar/domoutline/outline/internal/dom"
)

func findTag(s *dom.Store, tag string) []int {
	var out []int
	for i := 0; i < s.Len(); i++ {
		if n := s.Node(i); n != nil && n.Tag == tag {
			out = append(out, i)
		}
	}
	return out
}

func TestEligible(t *testing.T) {
	tests := []struct {
		name string
		node dom.Node
		want bool
	}{
		{"button without text", dom.Node{Kind: dom.Element, Tag: "button"}, true},
		{"disabled button", dom.Node{Kind: dom.Element, Tag: "button", Attrs: map[string]string{"disabled": ""}}, false},
		{"aria disabled link", dom.Node{Kind: dom.Element, Tag: "a", Attrs: map[string]string{"aria-disabled": "true"}}, false},
		{"hidden input", dom.Node{Kind: dom.Element, Tag: "input", Attrs: map[string]string{"type": "hidden"}}, false},
		{"text input", dom.Node{Kind: dom.Element, Tag: "input", Attrs: map[string]string{"type": "text"}}, true},
		{"img with alt", dom.Node{Kind: dom.Element, Tag: "img", Attrs: map[string]string{"alt": "logo"}}, true},
		{"img without alt", dom.Node{Kind: dom.Element, Tag: "img"}, false},
		{"span with text", dom.Node{Kind: dom.Element, Tag: "span", Text: "hi"}, true},
		{"span punctuation only", dom.Node{Kind: dom.Element, Tag: "span", Text: " | "}, false},
		{"div empty", dom.Node{Kind: dom.Element, Tag: "div"}, false},
		{"nav not allowed", dom.Node{Kind: dom.Element, Tag: "nav", Text: "menu"}, false},
		{"script not allowed", dom.Node{Kind: dom.Element, Tag: "script", Text: "var x = 1"}, false},
		{"text node", dom.Node{Kind: dom.Text, Text: "hello"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(&tt.node); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructural_MonotoneUpward(t *testing.T) {
	doc, err := build.FromHTML(`<html><body><nav><ul><li><a href="/">Home</a></li></ul></nav><section><div></div></section></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.Store
	Structural(s, nil)

	for i := 0; i < s.Len(); i++ {
		if !s.Valid(i) {
			continue
		}
		chain, err := s.Ancestors(i)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range chain {
			if !s.Valid(a) {
				t.Fatalf("node %d is valid but ancestor %d is not", i, a)
			}
		}
	}
	a := findTag(s, "a")[0]
	if !s.Valid(a) {
		t.Fatal("link should be valid")
	}
	if s.Valid(findTag(s, "section")[0]) || s.Valid(findTag(s, "div")[0]) {
		t.Fatal("empty structural branch should be pruned")
	}
	if s.Valid(findTag(s, "head")[0]) {
		t.Fatal("head should be pruned")
	}
}

func TestStructural_HiddenSubtree(t *testing.T) {
	doc, err := build.FromHTML(`<html><body><div class="x"><button>Hidden</button></div><button>Shown</button></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.Store
	hidden := HiddenMask(s, func(n *dom.Node) bool { return n.AttrValue("class") == "x" })
	Structural(s, hidden)

	buttons := findTag(s, "button")
	if len(buttons) != 2 {
		t.Fatalf("buttons: %v", buttons)
	}
	if s.Valid(buttons[0]) {
		t.Error("button inside hidden div must be invalid")
	}
	if s.Valid(findTag(s, "div")[0]) {
		t.Error("hidden div must not be anchored by its descendants")
	}
	if !s.Valid(buttons[1]) {
		t.Error("visible button must stay valid")
	}
	if !hidden[buttons[0]] || hidden[buttons[1]] {
		t.Error("hidden mask must inherit down the subtree only")
	}
	// Pruning removes nodes from the outline, not from the store.
	if _, err := s.Get(buttons[0]); err != nil {
		t.Fatalf("hidden node must stay addressable: %v", err)
	}
}

func TestEvaluated_AllValid(t *testing.T) {
	s := dom.NewStore(2)
	s.Append(dom.Node{Kind: dom.Element, Tag: "body", Parent: dom.NoParent, Depth: 1, Children: []int{1}})
	s.Append(dom.Node{Kind: dom.Element, Tag: "div", Parent: 0, Depth: 2, Visible: false})
	s.SetRoot(0)
	Evaluated(s)
	if !s.Valid(0) || !s.Valid(1) {
		t.Fatal("evaluated pruning keeps every node valid")
	}
}

func TestHasAlnum(t *testing.T) {
	cases := map[string]bool{"": false, "  ": false, "--": false, "a": true, "9": true, "é": true, "→ x": true}
	for in, want := range cases {
		if got := HasAlnum(in); got != want {
			t.Errorf("%q: got %v, want %v", in, got, want)
		}
	}
}
