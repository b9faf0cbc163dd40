package ui

import (
	"strings"
	"testing"
)

func TestRenderCache(t *testing.T) {
	rc := NewRenderCache(2)
	calls := 0
	compute := func() string { calls++; return "x" }

	rc.GetOrCompute(ComputeKey("a"), compute)
	rc.GetOrCompute(ComputeKey("a"), compute)
	if calls != 1 {
		t.Fatalf("expected a cache hit, computed %d times", calls)
	}

	rc.GetOrCompute(ComputeKey("b"), compute)
	rc.GetOrCompute(ComputeKey("c"), compute)
	if len(rc.entries) > 2 {
		t.Fatalf("cache exceeded its bound: %d", len(rc.entries))
	}
}

func TestComputeKeySeparatesInputs(t *testing.T) {
	if ComputeKey("ab", "c") == ComputeKey("a", "bc") {
		t.Fatalf("keys must not collide across input boundaries")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer("notty")
	out := r.Render("# Title\n\nSome **bold** text.", 60)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Fatalf("unexpected render:\n%s", out)
	}
	if again := r.Render("# Title\n\nSome **bold** text.", 60); again != out {
		t.Fatalf("cached render differs")
	}
}
