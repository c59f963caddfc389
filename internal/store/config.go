package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirbrooks/ttodo/internal/task"
)

// User configuration records. Created on first write, never auto-deleted.

func (s *Store) Configs() []task.UserConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.UserConfig, len(s.configs))
	copy(out, s.configs)
	return out
}

func (s *Store) ConfigFor(userID string) (task.UserConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.configs {
		if c.UserID == userID {
			return c, true
		}
	}
	return task.UserConfig{}, false
}

// SetReportTime records the local "HH:MM" at which a user's daily close
// fires, creating the config on first write.
func (s *Store) SetReportTime(userID, displayName, reportTime string) error {
	reportTime = strings.TrimSpace(reportTime)
	if _, err := time.Parse("15:04", reportTime); err != nil {
		return fmt.Errorf("%w: report time %q is not HH:MM", ErrInvalid, reportTime)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ensureConfig(userID)
	c.ReportTime = reportTime
	if strings.TrimSpace(displayName) != "" {
		c.DisplayName = displayName
	}
	return nil
}

// SetReportChannel records an alternate delivery target used when a
// report cannot reach its origin channel.
func (s *Store) SetReportChannel(userID, displayName, channelID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ensureConfig(userID)
	c.ReportChannelID = strings.TrimSpace(channelID)
	if strings.TrimSpace(displayName) != "" {
		c.DisplayName = displayName
	}
	return nil
}

// ensureConfig returns a pointer into s.configs, creating the entry if
// missing. Caller must hold s.mu.
func (s *Store) ensureConfig(userID string) *task.UserConfig {
	for i := range s.configs {
		if s.configs[i].UserID == userID {
			return &s.configs[i]
		}
	}
	s.configs = append(s.configs, task.UserConfig{UserID: userID, ReportTime: "00:00"})
	return &s.configs[len(s.configs)-1]
}
