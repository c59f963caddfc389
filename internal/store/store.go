// Package store holds the shared task list. Every operation that reads or
// mutates task state runs under a single coarse mutex: the scorer, the
// lifecycle transitions, and the scheduler's collect-then-retire sequence
// are multi-step and must not interleave. Nothing blocks on I/O while the
// mutex is held; Save snapshots under the lock and writes after release.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/amirbrooks/ttodo/internal/task"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

type Store struct {
	mu      sync.Mutex
	tasks   []task.Task
	configs []task.UserConfig

	dir string
	now func() time.Time
}

// Open creates a store persisting into dir. It does not touch the
// filesystem until Load or Save is called.
func Open(dir string) *Store {
	return &Store{
		dir: dir,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Add(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

func (s *Store) Get(id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	return cloneTask(s.tasks[i]), nil
}

// All returns a copy of every task, including archived ones.
func (s *Store) All() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

// Active returns tasks visible in normal views: everything not archived.
func (s *Store) Active() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, t := range s.tasks {
		if t.Forgotten {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out
}

// Archived returns the archive view.
func (s *Store) Archived() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, t := range s.tasks {
		if !t.Forgotten {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out
}

// ReportEligible returns tasks that are completed but not yet included in
// a delivered report.
func (s *Store) ReportEligible() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []task.Task
	for _, t := range s.tasks {
		if t.CompletedAt == nil || t.Reported {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out
}

// Mutate applies fn to the task with the given id while holding the store
// lock, then re-establishes the lifecycle invariants.
func (s *Store) Mutate(id string, fn func(*task.Task)) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	fn(&s.tasks[i])
	repairInvariants(&s.tasks[i])
	return cloneTask(s.tasks[i]), nil
}

func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// RemoveAll deletes every listed id and reports how many were found.
func (s *Store) RemoveAll(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if drop[t.ID] {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return removed
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t task.Task) task.Task {
	t.Tags = append([]string(nil), t.Tags...)
	t.StartDate = cloneTime(t.StartDate)
	t.DueDate = cloneTime(t.DueDate)
	t.ArchivedAt = cloneTime(t.ArchivedAt)
	t.CompletedAt = cloneTime(t.CompletedAt)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// repairInvariants re-establishes the record-level rules after arbitrary
// mutation: an incomplete task is never reported, and archived-at exists
// only while the task is archived.
func repairInvariants(t *task.Task) {
	if t.CompletedAt == nil {
		t.Reported = false
	}
	if !t.Forgotten {
		t.ArchivedAt = nil
	}
}
