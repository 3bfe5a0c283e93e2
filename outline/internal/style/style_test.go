package style

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func TestHides(t *testing.T) {
	tests := []struct {
		name string
		css  string
		body string
		want bool
	}{
		{"class display none", `.hidden { display: none; }`, `<div id="t" class="hidden">x</div>`, true},
		{"no match", `.hidden { display: none; }`, `<div id="t" class="shown">x</div>`, false},
		{"id beats class", `#t { display: none; } .a { display: block; }`, `<div id="t" class="a">x</div>`, true},
		{"class beats tag", `.a { display: block; } div { display: none; }`, `<div id="t" class="a">x</div>`, false},
		{"later wins on tie", `.a { display: none; } .b { display: block; }`, `<div id="t" class="a b">x</div>`, false},
		{"earlier loses on tie", `.b { display: block; } .a { display: none; }`, `<div id="t" class="a b">x</div>`, true},
		{"descendant combinator", `nav a { visibility: hidden; }`, `<nav><p><a id="t">x</a></p></nav>`, true},
		{"descendant combinator miss", `nav a { visibility: hidden; }`, `<div><a id="t">x</a></div>`, false},
		{"visibility collapse", `tr { visibility: collapse }`, `<table><tr id="t"><td>x</td></tr></table>`, true},
		{"important beats id", `.a { display: none !important; } #t { display: block; }`, `<div id="t" class="a">x</div>`, true},
		{"inline beats sheet", `.a { display: none; }`, `<div id="t" class="a" style="display:block">x</div>`, false},
		{"inline hides", ``, `<div id="t" style="display: none">x</div>`, true},
		{"important beats inline", `.a { display: none !important; }`, `<div id="t" class="a" style="display:block">x</div>`, true},
		{"selector list", `.x, .y { display: none; }`, `<div id="t" class="y">x</div>`, true},
		{"pseudo element ignored", `p::before { display: none; }`, `<p id="t">x</p>`, false},
		{"media query ignored", `@media print { .a { display: none; } }`, `<div id="t" class="a">x</div>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><head><style>"+tt.css+"</style></head><body>"+tt.body+"</body></html>")
			sheet, errs := Collect(doc, nil)
			if len(errs) > 0 {
				t.Fatalf("collect: %v", errs)
			}
			target := byID(doc, "t")
			if target == nil {
				t.Fatal("target not found")
			}
			if got := sheet.Hides(target); got != tt.want {
				t.Fatalf("Hides: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollect_SkipsMalformedBlock(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<style>.a { display: none; } }</style>
		<style>.b { display: none; }</style>
	</head><body><div id="a" class="a"></div><div id="b" class="b"></div></body></html>`)
	sheet, errs := Collect(doc, nil)
	if len(errs) != 1 {
		t.Fatalf("errors: got %d, want 1", len(errs))
	}
	if !errors.Is(errs[0], ErrStyleParse) {
		t.Fatalf("got %v, want ErrStyleParse", errs[0])
	}
	if sheet.Hides(byID(doc, "a")) {
		t.Error("rules from the malformed block must be dropped")
	}
	if !sheet.Hides(byID(doc, "b")) {
		t.Error("rules from the valid block must apply")
	}
}

func TestCollect_BodyStyleBlocks(t *testing.T) {
	doc := parseDoc(t, `<html><body><style>.late { visibility: hidden; }</style><span id="t" class="late">x</span></body></html>`)
	sheet, _ := Collect(doc, nil)
	if !sheet.Hides(byID(doc, "t")) {
		t.Fatal("style blocks in body should apply")
	}
	if sheet.Len() != 1 {
		t.Fatalf("len: got %d, want 1", sheet.Len())
	}
}

func TestHiddenByAttribute(t *testing.T) {
	doc := parseDoc(t, `<div id="a" hidden></div><div id="b" aria-hidden="true"></div><div id="c" aria-hidden="false"></div>`)
	cases := map[string]bool{"a": true, "b": true, "c": false}
	for id, want := range cases {
		if got := HiddenByAttribute(byID(doc, id)); got != want {
			t.Errorf("%s: got %v, want %v", id, got, want)
		}
	}
}
