package task

import "time"

// Urgency scoring: the sort score is a lexicographic weighting of three
// tiers. Due-date proximity dominates, estimated effort breaks date ties,
// and the manual priority/difficulty ladder orders tasks inside a tier.
// The weights are policy constants, not tunables.
const (
	dateTierWeight   = 1000
	effortTierWeight = 100

	// Completed and snoozed tasks sort beneath every active task no
	// matter what the tiers say.
	completedScore = -200
	snoozedScore   = -100
)

// Date-urgency tiers derived from due-date minus today, in days.
const (
	tierLater = iota // 7+ days out, or no due date at all
	tierThisWeek
	tierDueSoon
	tierDueToday
	tierOverdue
)

func dateTier(t *Task, today time.Time) int {
	if t.DueDate == nil {
		return tierLater
	}
	due := dateOnly(*t.DueDate)
	days := int(due.Sub(dateOnly(today)).Hours() / 24)
	switch {
	case days < 0:
		return tierOverdue
	case days == 0:
		return tierDueToday
	case days <= 2:
		return tierDueSoon
	case days <= 6:
		return tierThisWeek
	default:
		return tierLater
	}
}

func effortTier(e Effort) int {
	switch e {
	case EffortShort:
		return 2
	case EffortLong:
		return 0
	default:
		return 1
	}
}

// manualWeight is the hand-sorted ladder: important-and-heavy first, then
// important, then unsorted, then low tasks with the heavy ones ahead.
func manualWeight(t *Task) int {
	switch {
	case t.Priority == PriorityHigh && t.Difficulty == DifficultyHigh:
		return 9
	case t.Priority == PriorityHigh:
		return 8
	case t.Priority == PriorityUnset:
		return 5
	case t.Priority == PriorityLow && t.Difficulty == DifficultyHigh:
		return 2
	default:
		return 1
	}
}

// SortScore computes the display ordering score for a task; higher sorts
// first. today anchors the date-urgency tiers and is injected so scoring
// stays deterministic under test.
func SortScore(t *Task, today time.Time) int {
	if t.Completed() {
		return completedScore
	}
	if t.Snoozed {
		return snoozedScore
	}
	return dateTier(t, today)*dateTierWeight + effortTier(t.Effort)*effortTierWeight + manualWeight(t)
}

// UrgencyLabel maps a task to the display bucket for its date tier. Tasks
// with equal date tiers always share a label, so grouping by label never
// splits tasks that tie on SortScore's dominant component.
func UrgencyLabel(t *Task, today time.Time) string {
	if t.Completed() {
		return "Done"
	}
	if t.Snoozed {
		return "Snoozed"
	}
	switch dateTier(t, today) {
	case tierOverdue:
		return "Overdue"
	case tierDueToday:
		return "Due today"
	case tierDueSoon:
		return "Due soon"
	case tierThisWeek:
		return "This week"
	default:
		return "Later"
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
