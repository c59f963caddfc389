package store

import (
	"fmt"
	"time"

	"github.com/amirbrooks/ttodo/internal/task"
)

// Lifecycle transitions. Each one is a single locked step; unknown ids
// yield ErrNotFound rather than a panic, and transitions that are already
// in effect are no-ops.

// Complete marks a task done: sets completed-at and wakes it from snooze.
// It does not flip the reported flag; only a delivered daily close does.
func (s *Store) Complete(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	t := &s.tasks[i]
	if t.CompletedAt == nil {
		now := s.now()
		t.CompletedAt = &now
	}
	t.Snoozed = false
	return cloneTask(*t), nil
}

// Reopen undoes a completion. Clearing completed-at forces reported back
// to false so an incomplete task can never be report-retired.
func (s *Store) Reopen(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	t := &s.tasks[i]
	t.CompletedAt = nil
	t.Reported = false
	return cloneTask(*t), nil
}

// ToggleSnooze flips a task between Active and Snoozed.
func (s *Store) ToggleSnooze(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	t := &s.tasks[i]
	t.Snoozed = !t.Snoozed
	return cloneTask(*t), nil
}

// Archive moves a task out of the active views. Archiving clears snooze
// and stamps archived-at; archiving an already archived task keeps the
// original timestamp.
func (s *Store) Archive(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	t := &s.tasks[i]
	if !t.Forgotten {
		now := s.now()
		t.Forgotten = true
		t.ArchivedAt = &now
	}
	t.Snoozed = false
	return cloneTask(*t), nil
}

// Recall brings an archived task back to the active views.
func (s *Store) Recall(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	t := &s.tasks[i]
	t.Forgotten = false
	t.ArchivedAt = nil
	return cloneTask(*t), nil
}

// MarkReported flags a completed task as included in a delivered report.
// Only the daily-close scheduler calls this, and only after delivery
// succeeded.
func (s *Store) MarkReported(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	t := &s.tasks[i]
	if t.CompletedAt == nil {
		return fmt.Errorf("%w: task %s is not completed", ErrInvalid, id)
	}
	t.Reported = true
	return nil
}

// PurgeArchivedBefore deletes archived tasks whose archived-at falls
// before the cutoff and returns how many were purged.
func (s *Store) PurgeArchivedBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	purged := 0
	for _, t := range s.tasks {
		if t.Forgotten && t.ArchivedAt != nil && t.ArchivedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return purged
}
