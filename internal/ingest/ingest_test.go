package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/amirbrooks/ttodo/internal/store"
	"github.com/amirbrooks/ttodo/internal/task"
)

func testService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.Open(t.TempDir())
	svc := New(st)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, st
}

func TestParseAndIngestAttachesMetadata(t *testing.T) {
	svc, st := testService(t)
	meta := Meta{
		AuthorID:    "u1",
		AuthorName:  "alice",
		AvatarURL:   "https://cdn.example/a.png",
		ChannelID:   "c9",
		ChannelName: "general",
		GuildName:   "Acme",
	}
	created, err := svc.ParseAndIngest("#Work\n!!Fix the bug\n  repro in staging\n\nBuy milk", meta)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(created))
	}

	first := created[0]
	if !strings.HasPrefix(first.ID, "tsk_") {
		t.Fatalf("expected ULID id with tsk_ prefix, got %q", first.ID)
	}
	if first.AuthorID != "u1" || first.ChannelID != "c9" || first.GuildName != "Acme" {
		t.Fatalf("metadata not attached: %+v", first)
	}
	if first.Assignee != "alice" {
		t.Fatalf("assignee must default to author name, got %q", first.Assignee)
	}
	if first.Content != "Fix the bug\nrepro in staging" {
		t.Fatalf("unexpected content %q", first.Content)
	}
	if first.Priority != task.PriorityHigh || first.Difficulty != task.DifficultyHigh {
		t.Fatalf("marker not applied: %s/%s", first.Priority, first.Difficulty)
	}
	if first.PrimaryTag() != "Work" {
		t.Fatalf("expected tag Work, got %#v", first.Tags)
	}
	if first.Effort != task.EffortUnknown {
		t.Fatalf("effort must start unknown, got %s", first.Effort)
	}
	if first.Reported || first.CompletedAt != nil {
		t.Fatalf("new task must be unreported and incomplete: %+v", first)
	}

	if got := st.All(); len(got) != 2 {
		t.Fatalf("expected 2 tasks in store, got %d", len(got))
	}
}

func TestParseAndIngestAssigneeOverride(t *testing.T) {
	svc, _ := testService(t)
	created, err := svc.ParseAndIngest("Review the PR", Meta{AuthorID: "u1", AuthorName: "alice", Assignee: "bob"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(created) != 1 || created[0].Assignee != "bob" {
		t.Fatalf("expected assignee bob, got %#v", created)
	}
}

func TestParseAndIngestEmptyInput(t *testing.T) {
	svc, st := testService(t)
	created, err := svc.ParseAndIngest("  \n\n!!\n", Meta{AuthorID: "u1", AuthorName: "alice"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no tasks, got %d", len(created))
	}
	if got := st.All(); len(got) != 0 {
		t.Fatalf("store must stay empty, got %d", len(got))
	}
}

func TestParseAndIngestUniqueIDs(t *testing.T) {
	svc, _ := testService(t)
	created, err := svc.ParseAndIngest("one\ntwo\nthree", Meta{AuthorID: "u1", AuthorName: "alice"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	seen := map[string]bool{}
	for _, tk := range created {
		if seen[tk.ID] {
			t.Fatalf("duplicate id %s", tk.ID)
		}
		seen[tk.ID] = true
	}
}
