package daily

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amirbrooks/ttodo/internal/task"
)

// Chat messages have a hard platform limit; keep headroom for markers.
const reportMaxChars = 1900

const untaggedGroup = "(untagged)"

// RenderUserReport renders the daily-close report for one user and one
// origin channel: a header with the completion count, then the tasks
// grouped by their primary tag with per-task completion times.
func RenderUserReport(userName string, tasks []task.Task, now time.Time) string {
	var b strings.Builder
	name := strings.TrimSpace(userName)
	if name == "" {
		name = "User"
	}
	b.WriteString(fmt.Sprintf("🌅 Daily Report: %s (%s)\n", name, now.Format("2006/01/02")))
	b.WriteString(fmt.Sprintf("%d completed\n", len(tasks)))
	b.WriteString("```\n")

	keys, grouped := groupByPrimaryTag(tasks)
	for _, key := range keys {
		b.WriteString(fmt.Sprintf("[%s]\n", key))
		for _, t := range grouped[key] {
			writeTaskLines(&b, t, now.Location())
		}
		b.WriteString("\n")
	}
	b.WriteString("```")
	return trimReport(b.String())
}

// RenderOrphanReport renders the administrative fallback report for
// completed tasks whose assignee matches no known user.
func RenderOrphanReport(tasks []task.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 Unattributed completions (%d) — %s\n", len(tasks), now.Format("2006/01/02")))
	b.WriteString("```\n")
	for _, t := range tasks {
		assignee := strings.TrimSpace(t.Assignee)
		if assignee == "" {
			assignee = "(nobody)"
		}
		b.WriteString(fmt.Sprintf("%s — #%s\n", assignee, t.ChannelName))
		writeTaskLines(&b, t, now.Location())
	}
	b.WriteString("```")
	return trimReport(b.String())
}

// Completion times render in the report's location, not the stamp's:
// the store records UTC while reports read in the user's local time.
func writeTaskLines(b *strings.Builder, t task.Task, loc *time.Location) {
	stamp := "--:--"
	if t.CompletedAt != nil {
		stamp = t.CompletedAt.In(loc).Format("15:04")
	}
	lines := strings.Split(t.Content, "\n")
	b.WriteString(fmt.Sprintf("・[%s] %s\n", stamp, lines[0]))
	for _, l := range lines[1:] {
		b.WriteString("         " + l + "\n")
	}
}

func groupByPrimaryTag(tasks []task.Task) ([]string, map[string][]task.Task) {
	grouped := map[string][]task.Task{}
	for _, t := range tasks {
		key := t.PrimaryTag()
		if key == "" {
			key = untaggedGroup
		}
		grouped[key] = append(grouped[key], t)
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	// Untagged tasks go last, not alphabetically.
	for i, k := range keys {
		if k == untaggedGroup {
			keys = append(append(keys[:i], keys[i+1:]...), untaggedGroup)
			break
		}
	}
	return keys, grouped
}

// trimReport caps the rendered report, re-appending the closing code
// fence so a truncated message still parses as fenced text.
func trimReport(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= reportMaxChars {
		return s
	}
	suffix := "\n… (truncated)\n```"
	suffixRunes := []rune(suffix)
	limit := reportMaxChars - len(suffixRunes)
	if limit < 1 {
		return string(runes[:reportMaxChars])
	}
	return string(runes[:limit]) + suffix
}
