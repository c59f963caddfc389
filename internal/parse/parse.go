// Package parse turns raw multi-line chat text into ordered task drafts.
//
// The grammar is line-oriented and stateful: at most one draft is pending
// at a time, tag lines establish a tag context that sticks to subsequent
// drafts, and continuation lines fold into the pending draft's content.
package parse

import (
	"strings"

	"github.com/amirbrooks/ttodo/internal/task"
)

// ContinuationPrefixes mark a line as belonging to the previous task.
// Checked against the raw line, before trimming, so plain indentation
// counts. Fullwidth variants cover IME input.
var ContinuationPrefixes = []string{
	" ", "　", "\t", "→", "：", ":", "・", "※", ">", "-", "+", "*", "■", "□", "●", "○",
}

// TagPrefixes introduce a tag line, which replaces the current tag context.
var TagPrefixes = []string{"#", "＃"}

// Draft is an intermediate task: parsed content plus classification, not
// yet attached to author or channel metadata.
type Draft struct {
	Content    string
	Tags       []string
	Priority   task.Priority
	Difficulty task.Difficulty
}

// Lines splits the draft content back into its constituent lines.
func (d *Draft) Lines() []string {
	return strings.Split(d.Content, "\n")
}

// parser is the two-state machine: no pending draft, or one pending draft
// accumulating continuation lines under the current tag context.
type parser struct {
	pending *Draft
	tags    []string
	out     []Draft
}

// Parse tokenizes raw text into an ordered sequence of drafts. It never
// fails: unrecognized lines start new drafts, and priority markers that
// strip down to empty content are dropped.
func Parse(raw string) []Draft {
	p := &parser{}
	for _, line := range splitLines(raw) {
		p.feed(line)
	}
	p.finalize()
	return p.out
}

func (p *parser) feed(line string) {
	trimmed := strings.TrimSpace(line)

	// Blank line: close the pending draft and clear the tag context.
	if trimmed == "" {
		p.finalize()
		p.tags = nil
		return
	}

	// Tag line: closes the pending draft, then replaces the context with
	// the single named tag. An empty name clears the context.
	if prefix, ok := matchPrefix(trimmed, TagPrefixes); ok {
		p.finalize()
		name := strings.TrimSpace(trimmed[len(prefix):])
		if name == "" {
			p.tags = nil
		} else {
			p.tags = []string{name}
		}
		return
	}

	// Continuation line: only attaches while a draft is pending. The raw
	// line is checked so leading indentation qualifies.
	if _, ok := matchPrefix(line, ContinuationPrefixes); ok && p.pending != nil {
		p.pending.Content += "\n" + trimmed
		return
	}

	// Anything else starts a new draft.
	p.finalize()
	prio, diff, content := stripMarker(trimmed)
	if content == "" {
		return
	}
	p.pending = &Draft{
		Content:    content,
		Tags:       append([]string(nil), p.tags...),
		Priority:   prio,
		Difficulty: diff,
	}
}

func (p *parser) finalize() {
	if p.pending == nil {
		return
	}
	p.out = append(p.out, *p.pending)
	p.pending = nil
}

// stripMarker parses a leading priority marker off a trimmed line.
// Doubled markers set both priority and difficulty; single markers set
// only priority. Marker characters are runes, so fullwidth forms strip
// their full byte width.
func stripMarker(line string) (task.Priority, task.Difficulty, string) {
	runes := []rune(line)
	isBang := func(r rune) bool { return r == '!' || r == '！' }
	isQuestion := func(r rune) bool { return r == '?' || r == '？' }

	switch {
	case len(runes) >= 2 && isBang(runes[0]) && isBang(runes[1]):
		return task.PriorityHigh, task.DifficultyHigh, strings.TrimSpace(string(runes[2:]))
	case len(runes) >= 2 && isQuestion(runes[0]) && isQuestion(runes[1]):
		return task.PriorityLow, task.DifficultyLow, strings.TrimSpace(string(runes[2:]))
	case len(runes) >= 1 && isBang(runes[0]):
		return task.PriorityHigh, task.DifficultyUnset, strings.TrimSpace(string(runes[1:]))
	case len(runes) >= 1 && isQuestion(runes[0]):
		return task.PriorityLow, task.DifficultyUnset, strings.TrimSpace(string(runes[1:]))
	default:
		return task.PriorityUnset, task.DifficultyUnset, line
	}
}

func matchPrefix(s string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return p, true
		}
	}
	return "", false
}

func splitLines(raw string) []string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
