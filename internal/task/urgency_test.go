package task

import (
	"testing"
	"time"
)

var scoreToday = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func dueIn(days int) *time.Time {
	d := scoreToday.AddDate(0, 0, days)
	return &d
}

func TestSortScoreDueDateMonotonicity(t *testing.T) {
	// Holding everything else constant, a sooner due date never scores
	// lower than a later one.
	prev := SortScore(&Task{DueDate: dueIn(-3)}, scoreToday)
	for _, days := range []int{-1, 0, 1, 2, 3, 6, 7, 30} {
		got := SortScore(&Task{DueDate: dueIn(days)}, scoreToday)
		if got > prev {
			t.Fatalf("due in %d days scored %d, higher than sooner task's %d", days, got, prev)
		}
		prev = got
	}
}

func TestSortScoreNoDueDateIsLeastPressured(t *testing.T) {
	none := SortScore(&Task{}, scoreToday)
	week := SortScore(&Task{DueDate: dueIn(7)}, scoreToday)
	soon := SortScore(&Task{DueDate: dueIn(1)}, scoreToday)
	if none != week {
		t.Fatalf("no due date (%d) must tie with 7+ days out (%d)", none, week)
	}
	if none >= soon {
		t.Fatalf("no due date (%d) must rank below due soon (%d)", none, soon)
	}
}

func TestSortScoreEffortBreaksDateTies(t *testing.T) {
	short := SortScore(&Task{DueDate: dueIn(1), Effort: EffortShort}, scoreToday)
	unknown := SortScore(&Task{DueDate: dueIn(1), Effort: EffortUnknown}, scoreToday)
	long := SortScore(&Task{DueDate: dueIn(1), Effort: EffortLong}, scoreToday)
	if !(short > unknown && unknown > long) {
		t.Fatalf("expected short > unknown > long, got %d / %d / %d", short, unknown, long)
	}
}

func TestSortScoreDateDominatesEffort(t *testing.T) {
	// A long overdue task still outranks a short task due tomorrow.
	overdueLong := SortScore(&Task{DueDate: dueIn(-1), Effort: EffortLong}, scoreToday)
	soonShort := SortScore(&Task{DueDate: dueIn(1), Effort: EffortShort}, scoreToday)
	if overdueLong <= soonShort {
		t.Fatalf("date tier must dominate effort: %d vs %d", overdueLong, soonShort)
	}
}

func TestSortScoreManualPriorityBreaksFinerTies(t *testing.T) {
	base := Task{DueDate: dueIn(1), Effort: EffortShort}

	hi := base
	hi.Priority, hi.Difficulty = PriorityHigh, DifficultyHigh
	hiOnly := base
	hiOnly.Priority = PriorityHigh
	unset := base
	low := base
	low.Priority = PriorityLow

	scores := []int{
		SortScore(&hi, scoreToday),
		SortScore(&hiOnly, scoreToday),
		SortScore(&unset, scoreToday),
		SortScore(&low, scoreToday),
	}
	for i := 1; i < len(scores); i++ {
		if scores[i] >= scores[i-1] {
			t.Fatalf("manual ladder out of order: %v", scores)
		}
	}

	// Manual priority never overrides the effort tier.
	hiLong := base
	hiLong.Effort = EffortLong
	hiLong.Priority, hiLong.Difficulty = PriorityHigh, DifficultyHigh
	if SortScore(&hiLong, scoreToday) >= SortScore(&low, scoreToday) {
		t.Fatalf("manual priority must not override effort tier")
	}
}

func TestCompletedAndSnoozedSortBelowActive(t *testing.T) {
	done := Task{DueDate: dueIn(-5), Priority: PriorityHigh, Difficulty: DifficultyHigh}
	completedAt := scoreToday
	done.CompletedAt = &completedAt
	snoozed := Task{DueDate: dueIn(-5), Snoozed: true}
	active := Task{} // least-urgent active task

	if SortScore(&done, scoreToday) >= SortScore(&active, scoreToday) {
		t.Fatalf("completed must sort below every active task")
	}
	if SortScore(&snoozed, scoreToday) >= SortScore(&active, scoreToday) {
		t.Fatalf("snoozed must sort below every active task")
	}
	if SortScore(&done, scoreToday) >= SortScore(&snoozed, scoreToday) {
		t.Fatalf("completed must sort below snoozed")
	}
}

func TestUrgencyLabelMatchesDateTier(t *testing.T) {
	cases := []struct {
		days *time.Time
		want string
	}{
		{dueIn(-1), "Overdue"},
		{dueIn(0), "Due today"},
		{dueIn(1), "Due soon"},
		{dueIn(2), "Due soon"},
		{dueIn(3), "This week"},
		{dueIn(6), "This week"},
		{dueIn(7), "Later"},
		{nil, "Later"},
	}
	for _, tc := range cases {
		got := UrgencyLabel(&Task{DueDate: tc.days}, scoreToday)
		if got != tc.want {
			t.Fatalf("due %v: expected label %q, got %q", tc.days, tc.want, got)
		}
	}
}

func TestUrgencyLabelConsistentWithScoreTies(t *testing.T) {
	// Tasks with equal date tiers share a label even when effort or
	// manual priority differ.
	a := Task{DueDate: dueIn(1), Effort: EffortShort, Priority: PriorityHigh}
	b := Task{DueDate: dueIn(2), Effort: EffortLong, Priority: PriorityLow}
	la := UrgencyLabel(&a, scoreToday)
	lb := UrgencyLabel(&b, scoreToday)
	if la != lb {
		t.Fatalf("equal date tiers must share a label: %q vs %q", la, lb)
	}
}
