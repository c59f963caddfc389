package parse

import (
	"strings"
	"testing"

	"github.com/amirbrooks/ttodo/internal/task"
)

func TestParseMarkerStripping(t *testing.T) {
	drafts := Parse("!!Fix the bug")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	d := drafts[0]
	if d.Priority != task.PriorityHigh || d.Difficulty != task.DifficultyHigh {
		t.Fatalf("expected high/high, got %s/%s", d.Priority, d.Difficulty)
	}
	if d.Content != "Fix the bug" {
		t.Fatalf("expected content %q, got %q", "Fix the bug", d.Content)
	}
}

func TestParseSingleMarkersLeaveDifficultyUnset(t *testing.T) {
	cases := []struct {
		in   string
		prio task.Priority
		diff task.Difficulty
		want string
	}{
		{"!Ship release", task.PriorityHigh, task.DifficultyUnset, "Ship release"},
		{"?Maybe refactor", task.PriorityLow, task.DifficultyUnset, "Maybe refactor"},
		{"??Someday cleanup", task.PriorityLow, task.DifficultyLow, "Someday cleanup"},
		{"！！全角マーカー", task.PriorityHigh, task.DifficultyHigh, "全角マーカー"},
		{"？全角疑問", task.PriorityLow, task.DifficultyUnset, "全角疑問"},
	}
	for _, tc := range cases {
		drafts := Parse(tc.in)
		if len(drafts) != 1 {
			t.Fatalf("%q: expected 1 draft, got %d", tc.in, len(drafts))
		}
		d := drafts[0]
		if d.Priority != tc.prio || d.Difficulty != tc.diff {
			t.Fatalf("%q: expected %s/%s, got %s/%s", tc.in, tc.prio, tc.diff, d.Priority, d.Difficulty)
		}
		if d.Content != tc.want {
			t.Fatalf("%q: expected content %q, got %q", tc.in, tc.want, d.Content)
		}
	}
}

func TestParseMarkerOnlyLineYieldsNoDraft(t *testing.T) {
	for _, in := range []string{"!!", "!", "?", "??", "!! "} {
		if drafts := Parse(in); len(drafts) != 0 {
			t.Fatalf("%q: expected no drafts, got %d", in, len(drafts))
		}
	}
}

func TestParseContinuationMerge(t *testing.T) {
	drafts := Parse("Buy milk\n  also eggs")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Content != "Buy milk\nalso eggs" {
		t.Fatalf("expected merged content, got %q", drafts[0].Content)
	}
}

func TestParseContinuationWithoutPendingStartsDraft(t *testing.T) {
	// "- item" looks like a continuation, but nothing is pending, so it
	// becomes its own draft.
	drafts := Parse("- item")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Content != "- item" {
		t.Fatalf("expected %q, got %q", "- item", drafts[0].Content)
	}
}

func TestParseTagScoping(t *testing.T) {
	drafts := Parse("#Work\nTask A\n\nTask B")
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	a, b := drafts[0], drafts[1]
	if len(a.Tags) != 1 || a.Tags[0] != "Work" {
		t.Fatalf("expected Task A tagged Work, got %#v", a.Tags)
	}
	if len(b.Tags) != 0 {
		t.Fatalf("expected Task B untagged, got %#v", b.Tags)
	}
}

func TestParseTagContextAppliesUntilReplaced(t *testing.T) {
	drafts := Parse("#Home\nTask A\nTask B\n#Office\nTask C")
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}
	for i, want := range []string{"Home", "Home", "Office"} {
		if got := drafts[i].Tags; len(got) != 1 || got[0] != want {
			t.Fatalf("draft %d: expected tag %q, got %#v", i, want, got)
		}
	}
}

func TestParseEmptyTagLineClearsContext(t *testing.T) {
	drafts := Parse("#Work\nTask A\n#\nTask B")
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if len(drafts[1].Tags) != 0 {
		t.Fatalf("expected cleared tags, got %#v", drafts[1].Tags)
	}
}

func TestParseTagLineFinalizesPendingDraft(t *testing.T) {
	drafts := Parse("Task A\n#Work\nTask B")
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if len(drafts[0].Tags) != 0 {
		t.Fatalf("expected Task A untagged, got %#v", drafts[0].Tags)
	}
	if got := drafts[1].Tags; len(got) != 1 || got[0] != "Work" {
		t.Fatalf("expected Task B tagged Work, got %#v", got)
	}
}

func TestParseNewlineConventions(t *testing.T) {
	for _, in := range []string{"one\r\ntwo", "one\rtwo", "one\ntwo"} {
		drafts := Parse(in)
		if len(drafts) != 2 {
			t.Fatalf("%q: expected 2 drafts, got %d", in, len(drafts))
		}
	}
}

func TestParseIdempotentOnResplit(t *testing.T) {
	drafts := Parse("Deploy service\n  bump version\n  check logs")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	// Rendering the lines back with a continuation marker and re-parsing
	// must reproduce the same draft.
	lines := drafts[0].Lines()
	rendered := lines[0]
	for _, l := range lines[1:] {
		rendered += "\n  " + l
	}
	again := Parse(rendered)
	if len(again) != 1 {
		t.Fatalf("expected 1 draft on re-parse, got %d", len(again))
	}
	if again[0].Content != drafts[0].Content {
		t.Fatalf("re-parse changed content: %q vs %q", again[0].Content, drafts[0].Content)
	}
}

func TestParseMixedMessage(t *testing.T) {
	raw := strings.Join([]string{
		"#Release",
		"!!Cut 2.4 branch",
		"  freeze deps first",
		"?Write announcement draft",
		"",
		"Pick up laundry",
	}, "\n")
	drafts := Parse(raw)
	if len(drafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(drafts))
	}
	if drafts[0].Content != "Cut 2.4 branch\nfreeze deps first" {
		t.Fatalf("unexpected first draft content %q", drafts[0].Content)
	}
	if drafts[0].Priority != task.PriorityHigh || drafts[0].Difficulty != task.DifficultyHigh {
		t.Fatalf("unexpected first draft marker %s/%s", drafts[0].Priority, drafts[0].Difficulty)
	}
	if got := drafts[1].Tags; len(got) != 1 || got[0] != "Release" {
		t.Fatalf("expected second draft tagged Release, got %#v", got)
	}
	if len(drafts[2].Tags) != 0 {
		t.Fatalf("expected last draft untagged after blank line, got %#v", drafts[2].Tags)
	}
}
