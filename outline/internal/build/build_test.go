package build

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/hazyhaar/domoutline/outline/internal/dom"
	"github.com/hazyhaar/domoutline/outline/snapshot"
)

func TestFromHTML_BreadthFirstNumbering(t *testing.T) {
	doc, err := FromHTML(`<html><head><title>T</title></head><body><!-- note --><ul><li>a</li><li>b</li></ul><p>x</p></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.Store
	want := []string{"html", "head", "body", "title", "ul", "p", "li", "li"}
	if s.Len() != len(want) {
		t.Fatalf("len: got %d, want %d", s.Len(), len(want))
	}
	for i, tag := range want {
		if got := s.Node(i).Tag; got != tag {
			t.Errorf("node %d: got %q, want %q", i, got, tag)
		}
	}
	if s.Root() != 0 || s.Node(0).Parent != dom.NoParent {
		t.Fatalf("root: got %d parent %d", s.Root(), s.Node(0).Parent)
	}
	if err := s.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestFromHTML_Relations(t *testing.T) {
	doc, err := FromHTML(`<html><body><div></div><span></span><div></div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.Store
	body := s.Node(2)
	if len(body.Children) != 3 {
		t.Fatalf("body children: got %v", body.Children)
	}
	tests := []struct {
		id            int
		tag           string
		sibling, twin int
	}{
		{body.Children[0], "div", 1, 1},
		{body.Children[1], "span", 2, 1},
		{body.Children[2], "div", 3, 2},
	}
	for _, tt := range tests {
		n := s.Node(tt.id)
		if n.Tag != tt.tag || n.Sibling != tt.sibling || n.Twin != tt.twin {
			t.Errorf("node %d: got %s sibling=%d twin=%d, want %s %d %d",
				tt.id, n.Tag, n.Sibling, n.Twin, tt.tag, tt.sibling, tt.twin)
		}
		if n.Depth != 3 {
			t.Errorf("node %d: depth %d, want 3", tt.id, n.Depth)
		}
		if doc.IDs[n.Source] != tt.id {
			t.Errorf("node %d: source index mismatch", tt.id)
		}
	}
}

func TestFromHTML_OwnText(t *testing.T) {
	doc, err := FromHTML("<p>  Hello\n\t<b>bold</b>  world </p>")
	if err != nil {
		t.Fatal(err)
	}
	var p *dom.Node
	for i := 0; i < doc.Store.Len(); i++ {
		if n := doc.Store.Node(i); n.Tag == "p" {
			p = n
		}
	}
	if p == nil {
		t.Fatal("no p element")
	}
	if p.Text != "Hello world" {
		t.Fatalf("text: got %q, want %q", p.Text, "Hello world")
	}
}

func TestFromHTML_IDsArePositions(t *testing.T) {
	doc, err := FromHTML(`<div><div><div><a>x</a></div></div><i></i></div>`)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for i := 0; i < doc.Store.Len(); i++ {
		n := doc.Store.Node(i)
		if n.ID != i || seen[n.ID] {
			t.Fatalf("node at %d has id %d", i, n.ID)
		}
		seen[n.ID] = true
		if n.Parent >= 0 && n.Parent >= n.ID {
			t.Errorf("node %d: parent %d created after child", n.ID, n.Parent)
		}
	}
}

func buildSnap(t *testing.T, root int, nodes map[int]snapshot.NodeDescriptor) *snapshot.Snapshot {
	t.Helper()
	var s snapshot.Snapshot
	for id, d := range nodes {
		if err := s.Add(id, d); err != nil {
			t.Fatal(err)
		}
	}
	s.SetRoot(root)
	return &s
}

func ids(v ...int) []snapshot.ID {
	out := make([]snapshot.ID, len(v))
	for i, x := range v {
		out[i] = snapshot.ID(x)
	}
	return out
}

func TestFromSnapshot_Links(t *testing.T) {
	snap := buildSnap(t, 0, map[int]snapshot.NodeDescriptor{
		0: {Type: snapshot.ElementNode, TagName: "BODY", Children: ids(1, 2, 4)},
		1: {Type: snapshot.ElementNode, TagName: "div", Children: ids(3)},
		2: {Type: snapshot.ElementNode, TagName: "div"},
		3: {Type: snapshot.TextNode, Text: "hello"},
		4: {Type: snapshot.ElementNode, TagName: "a"},
	})
	s, err := FromSnapshot(snap, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if s.Node(0).Tag != "body" {
		t.Errorf("tag should be lowercased, got %q", s.Node(0).Tag)
	}
	if n := s.Node(2); n.Parent != 0 || n.Sibling != 2 || n.Twin != 2 || n.Depth != 2 {
		t.Errorf("node 2: %+v", n)
	}
	if n := s.Node(4); n.Sibling != 3 || n.Twin != 1 {
		t.Errorf("node 4: sibling %d twin %d", n.Sibling, n.Twin)
	}
	if n := s.Node(3); !n.IsText() || n.Parent != 1 || n.Depth != 3 {
		t.Errorf("node 3: %+v", n)
	}
}

func TestFromSnapshot_SkipsBadDescriptors(t *testing.T) {
	data := []byte(`{"map":{
		"0":{"type":"ELEMENT_NODE","tagName":"body","children":[1,2,3,0,1]},
		"1":{"type":"ELEMENT_NODE","tagName":"button","text":"ok"},
		"2":null,
		"x":{"type":"ELEMENT_NODE","tagName":"p"}
	},"root":0}`)
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	s, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Has(2) {
		t.Error("null descriptor should be skipped")
	}
	got := s.Node(0).Children
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("children: got %v, want [1]", got)
	}
	if err := s.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestFromSnapshot_PseudoElements(t *testing.T) {
	snap := buildSnap(t, 0, map[int]snapshot.NodeDescriptor{
		0: {Type: snapshot.ElementNode, TagName: "button", Text: "Next",
			PseudoElements: &snapshot.PseudoElements{
				Before: &snapshot.Pseudo{Content: `"» "`},
				After:  &snapshot.Pseudo{Content: `"-moz-alt-content"`},
			}},
	})
	s, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Node(0).Text; got != "» Next" {
		t.Fatalf("text: got %q, want %q", got, "» Next")
	}
	if got := pseudoContent(&snapshot.Pseudo{Content: "none"}); got != "" {
		t.Fatalf("none: got %q", got)
	}
}

func TestFromSnapshot_Malformed(t *testing.T) {
	cases := map[string]*snapshot.Snapshot{
		"nil":     nil,
		"empty":   {},
		"no root": {NodeMap: buildSnap(t, 0, map[int]snapshot.NodeDescriptor{0: {Type: snapshot.ElementNode, TagName: "a"}}).NodeMap},
		"missing root": buildSnap(t, 5, map[int]snapshot.NodeDescriptor{
			0: {Type: snapshot.ElementNode, TagName: "a"},
		}),
	}
	for name, snap := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := FromSnapshot(snap, nil)
			if !errors.Is(err, ErrSnapshotMalformed) {
				t.Fatalf("got %v, want ErrSnapshotMalformed", err)
			}
			if s == nil || s.Len() != 0 {
				t.Fatal("expected an empty store")
			}
		})
	}
}

func TestFromSnapshot_SparseKeysAreRenumbered(t *testing.T) {
	data := []byte(`{"map":{
		"7":{"type":"ELEMENT_NODE","tagName":"body","children":[1000000000,5000000]},
		"5000000":{"type":"ELEMENT_NODE","tagName":"a","text":"Docs"},
		"1000000000":{"type":"ELEMENT_NODE","tagName":"button","text":"Go"}
	},"root":7}`)
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	s, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 3 || s.Count() != 3 {
		t.Fatalf("table: got len %d count %d, want 3", s.Len(), s.Count())
	}
	if err := s.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	root := s.Node(s.Root())
	if root.Tag != "body" || s.Root() != 0 {
		t.Fatalf("root: got %d %q", s.Root(), root.Tag)
	}
	var tags []string
	for _, c := range root.Children {
		tags = append(tags, s.Node(c).Tag)
	}
	if len(tags) != 2 || tags[0] != "button" || tags[1] != "a" {
		t.Fatalf("children: got %v, want [button a]", tags)
	}
}

func TestFromSnapshot_SingleHugeKey(t *testing.T) {
	data := []byte(`{"map":{"5000000":{"type":"ELEMENT_NODE","tagName":"button","text":"Go"}},"root":5000000}`)
	snap, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	s, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || s.Node(s.Root()).Tag != "button" {
		t.Fatalf("got len %d root %d", s.Len(), s.Root())
	}
}

func TestFromSnapshot_DenseKeysKeepTheirIDs(t *testing.T) {
	snap := buildSnap(t, 0, map[int]snapshot.NodeDescriptor{
		0: {Type: snapshot.ElementNode, TagName: "body", Children: ids(3, 9)},
		3: {Type: snapshot.ElementNode, TagName: "p", Text: "a"},
		9: {Type: snapshot.ElementNode, TagName: "p", Text: "b"},
	})
	s, err := FromSnapshot(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Node(3) == nil || s.Node(9) == nil || s.Node(9).Text != "b" {
		t.Fatal("small sparse keys should stay addressable by key")
	}
	if s.Has(4) {
		t.Fatal("gap should stay absent")
	}
}
