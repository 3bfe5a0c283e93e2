package idgen

import (
	"sort"
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	parts := strings.Split(id, "-")
	if len(parts) != 5 || len(id) != 36 {
		t.Fatalf("UUIDv7: unexpected format %q", id)
	}
	if parts[2][0] != '7' {
		t.Fatalf("UUIDv7: version nibble is %c in %q", parts[2][0], id)
	}
}

func TestUUIDv7_SortsByCreation(t *testing.T) {
	gen := UUIDv7()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen()
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("UUIDv7 ids are not time-ordered: %v", ids)
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("cap_", Sequence(""))()
	if id != "cap_1" {
		t.Fatalf("got %q, want %q", id, "cap_1")
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("s")
	for _, want := range []string{"s1", "s2", "s3"} {
		if got := gen(); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, id := range []string{New(), Capture()} {
		if got, err := Parse(id); err != nil || got != id {
			t.Fatalf("Parse(%q): got %q, %v", id, got, err)
		}
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error for invalid id")
	}
}
