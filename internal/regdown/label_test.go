package regdown

import (
	"strings"
	"testing"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"a", 0},
		{"a-1", 1},
		{"a-1-b-ii", 3},
		{"6-a-Interp-1", 0},
		{"12-b-Interp-2-i", 1},
		{"12-b-interp-2-i", 1},
		{"A-1-a", 0},
		{"A-2-d-1", 1},
		{"A2-intro-", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Level(tt.label); got != tt.want {
			t.Errorf("Level(%q): expected %d, got %d", tt.label, tt.want, got)
		}
	}
}

func TestLevelUnprefixedCountsHyphens(t *testing.T) {
	for _, label := range []string{"b", "b-2", "b-2-c", "x-y-z-1-2"} {
		if got, want := Level(label), strings.Count(label, "-"); got != want {
			t.Errorf("Level(%q): expected %d, got %d", label, want, got)
		}
	}
}

func TestStripPrefixes(t *testing.T) {
	if got := stripInterpPrefix("12-b-Interp-2-i"); got != "2-i" {
		t.Errorf("expected %q, got %q", "2-i", got)
	}
	if got := stripInterpPrefix("a-1"); got != "a-1" {
		t.Errorf("expected unprefixed label unchanged, got %q", got)
	}
	if got := stripAppendixPrefix("A-2-d-1"); got != "d-1" {
		t.Errorf("expected %q, got %q", "d-1", got)
	}
	if got := stripAppendixPrefix("a-2-d"); got != "a-2-d" {
		t.Errorf("expected lowercase label unchanged, got %q", got)
	}
}

func TestLevelClass(t *testing.T) {
	if got := LevelClass("a-1"); got != "regdown-block level-1" {
		t.Errorf("expected %q, got %q", "regdown-block level-1", got)
	}
}

func TestHashID(t *testing.T) {
	const emptyDigest = "6b4e03423667dbb73b6e15454f0eb1abd4597f9a1b078e3f5b5a6bc7"
	if got := HashID(""); got != emptyDigest {
		t.Fatalf("expected %q, got %q", emptyDigest, got)
	}

	a := HashID("Some paragraph.")
	if len(a) != 56 {
		t.Fatalf("expected 56 hex characters, got %d", len(a))
	}
	if a != HashID("Some paragraph.") {
		t.Error("expected identical text to hash identically")
	}
	if a == HashID("Some other paragraph.") {
		t.Error("expected different text to hash differently")
	}
	if HashID("  x") != HashID("x") {
		t.Error("expected leading whitespace to be ignored")
	}
	if HashID("x ") == HashID("x") {
		t.Error("expected trailing whitespace to be significant")
	}
}
