package semantic

import (
	"strings"
	"testing"

	"github.com/hazyhaar/domoutline/outline/internal/build"
	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/internal/prune"
)

// store builds and prunes an HTML fragment.
func store(t *testing.T, src string) *dom.Store {
	t.Helper()
	doc, err := build.FromHTML(src)
	if err != nil {
		t.Fatal(err)
	}
	prune.Structural(doc.Store, nil)
	return doc.Store
}

func tagged(s *dom.Store, tag string) []int {
	var out []int
	for i := 0; i < s.Len(); i++ {
		if n := s.Node(i); n != nil && n.Tag == tag {
			out = append(out, i)
		}
	}
	return out
}

func TestResolve_SpanMerge(t *testing.T) {
	s := store(t, `<div><span>Hello</span><span> World</span></div>`)
	spans := tagged(s, "span")
	r := New(s)
	for i, id := range spans {
		res := r.Resolve(id)
		if res.ID != id {
			t.Errorf("span %d: id %d, want %d", i, res.ID, id)
		}
		if strings.Count(res.Content, "Hello") != 1 || strings.Count(res.Content, "World") != 1 {
			t.Errorf("span %d: content %q should hold each fragment once", i, res.Content)
		}
		if res.Content != "Hello World" {
			t.Errorf("span %d: content %q, want %q", i, res.Content, "Hello World")
		}
		other := spans[1-i]
		if len(res.Absorbed) != 1 || res.Absorbed[0] != other {
			t.Errorf("span %d: absorbed %v, want [%d]", i, res.Absorbed, other)
		}
		if res.Role != RoleStaticText {
			t.Errorf("span %d: role %q", i, res.Role)
		}
	}
	// Resolving is a read: the store is untouched.
	for _, id := range spans {
		if !s.Valid(id) {
			t.Fatalf("span %d invalidated by a read", id)
		}
	}
}

func TestResolve_SpanMergeGrandchildren(t *testing.T) {
	s := store(t, `<div><span>A</span><p><b>B</b></p><em>C</em></div>`)
	a := tagged(s, "span")[0]
	r := New(s)
	res := r.Resolve(a)
	if res.Content != "A B C" {
		t.Fatalf("content: got %q, want %q", res.Content, "A B C")
	}
	r.MergeGrandchildren = false
	res = r.Resolve(a)
	if res.Content != "A C" {
		t.Fatalf("without grandchildren: got %q, want %q", res.Content, "A C")
	}
}

func TestResolve_SpanMergeSkipsUnmergeable(t *testing.T) {
	s := store(t, `<div><span>A</span><span>B</span></div>`)
	spans := tagged(s, "span")
	r := New(s)
	r.Mergeable = func(id int) bool { return id != spans[1] }
	res := r.Resolve(spans[0])
	if res.Content != "A" || len(res.Absorbed) != 0 {
		t.Fatalf("got %q absorbed %v", res.Content, res.Absorbed)
	}
}

func TestResolve_Roles(t *testing.T) {
	tests := []struct {
		name string
		src  string
		tag  string
		role string
		text string
	}{
		{"span in button", `<button><span>Save</span></button>`, "span", RoleButton, "Save"},
		{"div in link", `<a href="/x"><div>Docs</div></a>`, "div", RoleLink, "Docs"},
		{"plain div", `<div>Note</div>`, "div", RoleStaticText, "Note"},
		{"unknown tag", `<x-widget>Thing</x-widget>`, "x-widget", RoleStaticText, "Thing"},
		{"checkbox", `<input type="checkbox" aria-label="Agree">`, "input", RoleCheckbox, "Agree"},
		{"text input placeholder", `<input placeholder="Search">`, "input", RoleTextbox, "Search"},
		{"text input value", `<input value="hello" placeholder="Search">`, "input", RoleTextbox, "hello"},
		{"submit", `<input type="submit" value="Send">`, "input", RoleButton, "Send"},
		{"select", `<select><option>One</option><option selected>Two</option></select>`, "select", RoleCombobox, "Two"},
		{"select first option", `<select><option>One</option><option>Two</option></select>`, "select", RoleCombobox, "One"},
		{"image", `<img alt="Logo">`, "img", RoleImg, "Logo"},
		{"heading", `<h2>Title</h2>`, "h2", RoleHeading, "Title"},
		{"aria role", `<div role="button">Open</div>`, "div", RoleButton, "Open"},
		{"aria label fallback", `<a aria-label="Close"></a>`, "a", RoleLink, "Close"},
		{"whitespace cleaned", "<p>a\n\tb   c</p>", "p", RoleStaticText, "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store(t, tt.src)
			ids := tagged(s, tt.tag)
			if len(ids) == 0 {
				t.Fatalf("no %s element", tt.tag)
			}
			res := New(s).Resolve(ids[0])
			if res.Role != tt.role || res.Content != tt.text {
				t.Fatalf("got (%q, %q), want (%q, %q)", res.Role, res.Content, tt.role, tt.text)
			}
		})
	}
}

func TestRole_RootIsStaticText(t *testing.T) {
	s := store(t, `<p>x</p>`)
	if got := New(s).Role(s.Root()); got != RoleStaticText {
		t.Fatalf("got %q", got)
	}
	if got := New(s).Role(999); got != RoleStaticText {
		t.Fatalf("missing node: got %q", got)
	}
}

func TestPromotionTarget(t *testing.T) {
	s := store(t, `<div aria-expanded="true" aria-haspopup="menu"><i></i><p><span>Menu</span></p><span>Other</span></div>`)
	div := tagged(s, "div")[0]
	r := New(s)
	target, ok := r.PromotionTarget(div, "", nil)
	if !ok {
		t.Fatal("expected a promotion target")
	}
	if got := s.Node(target).Text; got != "Menu" {
		t.Fatalf("target: got %d (%q), want the Menu span", target, got)
	}
	if _, ok := r.PromotionTarget(div, "has text", nil); ok {
		t.Fatal("a node with content keeps its attributes")
	}
	plain := store(t, `<div><span>x</span></div>`)
	if _, ok := New(plain).PromotionTarget(tagged(plain, "div")[0], "", nil); ok {
		t.Fatal("no state attributes, nothing to promote")
	}
}

func TestAttrString(t *testing.T) {
	got := AttrString(map[string]string{"aria-expanded": "false", "selected": "true", "focused": "", "class": "x"}, StateAttributes)
	if got != "expanded: false selected: true" {
		t.Fatalf("got %q", got)
	}
	if AttrString(nil, StateAttributes) != "" {
		t.Fatal("nil attrs should render empty")
	}
}
