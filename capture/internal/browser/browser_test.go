package browser

import (
	"strings"
	"testing"
)

func TestBlockSet(t *testing.T) {
	set := blockSet([]string{"Images", " fonts", "media", "XHR"})
	tests := []struct {
		resType string
		want    bool
	}{
		{"image", true},
		{"font", true},
		{"media", true},
		{"xhr", true},
		{"stylesheet", false},
		{"document", false},
	}
	for _, tt := range tests {
		if got := set[tt.resType]; got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.resType, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", Headless, false},
		{"headless", Headless, false},
		{"headful", Headful, false},
		{"xvfb", Headless, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q): got %v, %v", tt.in, got, err)
		}
	}
}

func TestWalkerScript(t *testing.T) {
	for _, want := range []string{"JSON.stringify({map: map, root: root})", "'TEXT_NODE'", "'ELEMENT_NODE'", "isVisible", "shadowRoot"} {
		if !strings.Contains(walkerJS, want) {
			t.Errorf("walker script lacks %q", want)
		}
	}
}

func TestWalkerScript_RootedAtDocumentElement(t *testing.T) {
	for _, want := range []string{"walk(document.documentElement, true)", "contentDocument.documentElement"} {
		if !strings.Contains(walkerJS, want) {
			t.Errorf("walker script lacks %q", want)
		}
	}
	if strings.Contains(walkerJS, "document.body") {
		t.Error("walker script still roots at document.body")
	}
	// Skipped tags keep their slot among element siblings.
	if strings.Contains(walkerJS, "skipped.has(node.tagName)) return null") {
		t.Error("walker script drops skipped elements")
	}
}

func TestManager_ClosedRefusesBrowser(t *testing.T) {
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Browser(t.Context()); err == nil {
		t.Fatal("expected error from closed manager")
	}
}
