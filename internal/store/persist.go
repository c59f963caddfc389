package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/amirbrooks/ttodo/internal/task"
)

const (
	tasksFile   = "tasks.json"
	configsFile = "configs.json"
)

// Save writes the current snapshot to disk. The snapshot is taken under
// the lock; marshaling and file I/O happen after release so no store
// operation ever blocks on the filesystem.
func (s *Store) Save() error {
	s.mu.Lock()
	tasks := make([]task.Task, len(s.tasks))
	copy(tasks, s.tasks)
	configs := make([]task.UserConfig, len(s.configs))
	copy(configs, s.configs)
	s.mu.Unlock()

	tb, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	cb, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal configs: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(s.dir, tasksFile), tb, 0o644); err != nil {
		return err
	}
	return atomicWriteFile(filepath.Join(s.dir, configsFile), cb, 0o644)
}

// Load replaces the in-memory state with the on-disk snapshot. Missing
// files are fine: the store just starts empty. Invariants are repaired on
// the way in so a hand-edited or stale snapshot cannot smuggle in an
// unreported-but-incomplete contradiction.
func (s *Store) Load() error {
	var tasks []task.Task
	if err := readJSON(filepath.Join(s.dir, tasksFile), &tasks); err != nil {
		return err
	}
	var configs []task.UserConfig
	if err := readJSON(filepath.Join(s.dir, configsFile), &configs); err != nil {
		return err
	}
	for i := range tasks {
		repairInvariants(&tasks[i])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	s.configs = configs
	return nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
