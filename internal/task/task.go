package task

import (
	"strings"
	"time"
)

// Priority is the manually assigned importance of a task. The zero value
// means the user never sorted the task.
type Priority int

const (
	PriorityUnset Priority = iota
	PriorityLow
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "unset"
	}
}

// Difficulty mirrors Priority: a tri-state manual effort rating.
type Difficulty int

const (
	DifficultyUnset Difficulty = iota
	DifficultyLow
	DifficultyHigh
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyLow:
		return "low"
	case DifficultyHigh:
		return "high"
	default:
		return "unset"
	}
}

// Effort is the estimated wall-clock size of a task, used by the urgency
// scorer to break date ties.
type Effort int

const (
	EffortUnknown Effort = iota
	EffortShort
	EffortLong
)

func (e Effort) String() string {
	switch e {
	case EffortShort:
		return "short"
	case EffortLong:
		return "long"
	default:
		return "unknown"
	}
}

// Task is the central record. Tasks are parsed out of chat messages or
// created through the dashboard API, then mutated in place by lifecycle
// transitions until they are deleted, purged, or retired by a daily close.
type Task struct {
	ID string `json:"id"`

	// Origin.
	AuthorID    string `json:"author_id"`
	ChannelID   string `json:"channel_id"`
	GuildName   string `json:"guild_name"`
	ChannelName string `json:"channel_name"`
	UserName    string `json:"user_name"`
	AvatarURL   string `json:"avatar_url"`

	// Assignee is a display name and may differ from the author: tasks
	// can be filed on someone else's behalf.
	Assignee string `json:"assignee"`

	Content    string     `json:"content"`
	Priority   Priority   `json:"priority"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []string   `json:"tags"`
	Effort     Effort     `json:"effort"`

	StartDate *time.Time `json:"start_date"`
	DueDate   *time.Time `json:"due_date"`

	Snoozed     bool       `json:"snoozed"`
	Forgotten   bool       `json:"forgotten"`
	ArchivedAt  *time.Time `json:"archived_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Reported    bool       `json:"reported"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Completed reports whether the task has a completion timestamp.
func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}

// PrimaryTag returns the first tag, the grouping key for lists and
// reports, or empty when the task is untagged.
func (t *Task) PrimaryTag() string {
	if len(t.Tags) == 0 {
		return ""
	}
	return t.Tags[0]
}

// Title returns the first content line, for compact single-line views.
func (t *Task) Title() string {
	content := strings.TrimSpace(t.Content)
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}
	if content == "" {
		return "(untitled)"
	}
	return content
}

// UserConfig holds per-user preferences. Created on first write, never
// auto-deleted.
type UserConfig struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	// ReportTime is a local "HH:MM" at which the daily close fires.
	ReportTime string `json:"report_time"`
	// ReportChannelID, when set, is the fallback delivery target used
	// if a report cannot reach its origin channel.
	ReportChannelID string `json:"report_channel_id"`
}
