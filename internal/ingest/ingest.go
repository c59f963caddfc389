// Package ingest converts posted chat text into stored task records. It is
// the Input seam the chat transport calls for any non-command message.
package ingest

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/amirbrooks/ttodo/internal/parse"
	"github.com/amirbrooks/ttodo/internal/store"
	"github.com/amirbrooks/ttodo/internal/task"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// Meta carries the author and origin-context metadata the transport knows
// about the message being ingested.
type Meta struct {
	AuthorID    string
	AuthorName  string
	AvatarURL   string
	ChannelID   string
	ChannelName string
	GuildName   string
	// Assignee overrides the default assignee (the author's name) when a
	// task is filed on someone else's behalf.
	Assignee string
}

type Service struct {
	store *store.Store
	now   func() time.Time
}

func New(st *store.Store) *Service {
	return &Service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ParseAndIngest tokenizes raw multi-line text into drafts, builds a task
// record per draft, appends them to the store, and persists. Malformed
// input never fails; it just yields fewer tasks.
func (s *Service) ParseAndIngest(raw string, meta Meta) ([]task.Task, error) {
	drafts := parse.Parse(raw)
	if len(drafts) == 0 {
		return nil, nil
	}
	created := make([]task.Task, 0, len(drafts))
	for _, d := range drafts {
		t := s.build(d, meta)
		s.store.Add(t)
		created = append(created, t)
	}
	if err := s.store.Save(); err != nil {
		return created, fmt.Errorf("persist ingested tasks: %w", err)
	}
	return created, nil
}

// build attaches author, channel, and time metadata to a parsed draft.
func (s *Service) build(d parse.Draft, meta Meta) task.Task {
	assignee := strings.TrimSpace(meta.Assignee)
	if assignee == "" {
		assignee = meta.AuthorName
	}
	return task.Task{
		ID:          "tsk_" + newULID(s.now()),
		AuthorID:    meta.AuthorID,
		ChannelID:   meta.ChannelID,
		GuildName:   meta.GuildName,
		ChannelName: meta.ChannelName,
		UserName:    meta.AuthorName,
		AvatarURL:   meta.AvatarURL,
		Assignee:    assignee,
		Content:     d.Content,
		Priority:    d.Priority,
		Difficulty:  d.Difficulty,
		Tags:        append([]string(nil), d.Tags...),
		Effort:      task.EffortUnknown,
		CreatedAt:   s.now(),
	}
}

func newULID(now time.Time) string {
	t := ulid.Timestamp(now)
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", now.UnixNano())
	}
	return strings.ToUpper(id.String())
}
