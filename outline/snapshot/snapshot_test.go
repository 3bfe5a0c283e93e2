package snapshot

import (
	"testing"
)

func TestUnmarshal_ShortKeys(t *testing.T) {
	data := []byte(`{"map":{"0":{"type":"ELEMENT_NODE","tagName":"body","children":["1"]},"1":{"type":"TEXT_NODE","text":"hi"}},"root":"0"}`)
	s, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Complete() {
		t.Fatal("snapshot should be complete")
	}
	if int(*s.RootID) != 0 {
		t.Fatalf("root: got %d, want 0", *s.RootID)
	}
	d, err := s.Decode("0")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Children) != 1 || d.Children[0] != 1 {
		t.Fatalf("children: got %v", d.Children)
	}
	if !d.Visible() {
		t.Error("missing isVisible should default to visible")
	}
}

func TestUnmarshal_LongKeys(t *testing.T) {
	data := []byte(`{"nodeMap":{"3":{"type":"ELEMENT_NODE","tagName":"a","isVisible":false}},"rootId":3}`)
	s, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	d, err := s.Decode("3")
	if err != nil {
		t.Fatal(err)
	}
	if d.Visible() {
		t.Error("isVisible false should be honoured")
	}
}

func TestComplete_Empty(t *testing.T) {
	s, err := Unmarshal([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Complete() {
		t.Fatal("empty snapshot should not be complete")
	}
	var nilSnap *Snapshot
	if nilSnap.Complete() {
		t.Fatal("nil snapshot should not be complete")
	}
}

func TestDecode_Malformed(t *testing.T) {
	s, err := Unmarshal([]byte(`{"map":{"0":null,"1":{"type":"ELEMENT_NODE"},"2":{"type":"COMMENT"},"3":"oops"},"root":0}`))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"0", "1", "2", "3", "9"} {
		if _, err := s.Decode(key); err == nil {
			t.Errorf("decode %s: expected error", key)
		}
	}
}

func TestAddRoundTrip(t *testing.T) {
	var s Snapshot
	if err := s.Add(0, NodeDescriptor{Type: ElementNode, TagName: "button", Text: "Go"}); err != nil {
		t.Fatal(err)
	}
	s.SetRoot(0)
	data, err := Marshal(&s)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	d, err := back.Decode("0")
	if err != nil {
		t.Fatal(err)
	}
	if d.TagName != "button" || d.Text != "Go" {
		t.Fatalf("got %+v", d)
	}
}

func TestID_Invalid(t *testing.T) {
	var id ID
	if err := id.UnmarshalJSON([]byte(`"abc"`)); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if err := id.UnmarshalJSON([]byte(`7.0`)); err != nil || id != 7 {
		t.Fatalf("got %d, %v", id, err)
	}
}
