// Package daily runs the daily-close scheduler: a timer-driven loop that,
// once per matching minute, collects each user's completed-but-unreported
// tasks, delivers per-channel reports through the Notifier, and retires
// what was delivered. It also owns the archive retention sweep.
package daily

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/amirbrooks/ttodo/internal/store"
	"github.com/amirbrooks/ttodo/internal/task"
)

// Notifier delivers a rendered report to a destination channel. The chat
// transport implements it; tests stub it.
type Notifier interface {
	Deliver(ctx context.Context, channelID string, text string) error
}

// Options tune the scheduler. Zero values fall back to sane defaults.
type Options struct {
	// Interval between ticks. Minute matching dedupes, so anything well
	// under a minute is fine.
	Interval time.Duration
	// Location used to evaluate report times.
	Location *time.Location
	// AdminChannelID receives the administrative orphan report.
	AdminChannelID string
	// AdminReportTime is the local HH:MM at which orphans are reported.
	AdminReportTime string
	Logger          *log.Logger
}

const retentionDays = 90

type Scheduler struct {
	store    *store.Store
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
	interval time.Duration
	logger   *log.Logger

	adminChannelID  string
	adminReportTime string

	lastMinute string
	lastSweep  string
}

func NewScheduler(st *store.Store, n Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.AdminReportTime == "" {
		opts.AdminReportTime = "00:00"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.AdminChannelID == "" {
		opts.Logger.Printf("daily: no admin channel configured, unattributed completions will accumulate unreported")
	}
	return &Scheduler{
		store:           st,
		notifier:        n,
		now:             time.Now,
		loc:             opts.Location,
		interval:        opts.Interval,
		logger:          opts.Logger,
		adminChannelID:  opts.AdminChannelID,
		adminReportTime: opts.AdminReportTime,
	}
}

// Run drives the tick loop until ctx is cancelled. Ticks are strictly
// sequential: a slow close run delays the next tick instead of
// overlapping it, and a panicking tick is logged and the loop continues.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("daily: tick panicked: %v", r)
		}
	}()
	s.Tick(ctx, s.now().In(s.loc))
}

// Tick evaluates one scheduler wake-up. Each "HH:MM" minute is evaluated
// at most once, so a sub-minute interval never double-fires a close.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	minute := now.Format("15:04")
	if minute == s.lastMinute {
		return
	}
	s.lastMinute = minute

	s.sweep(now)

	for _, cfg := range s.store.Configs() {
		if cfg.ReportTime != minute {
			continue
		}
		s.closeUser(ctx, cfg, now)
	}
	if minute == s.adminReportTime {
		s.closeOrphans(ctx, now)
	}
}

// CloseUser runs the daily close for one user immediately, outside the
// normal minute matching (the manual "close now" path).
func (s *Scheduler) CloseUser(ctx context.Context, userID string) int {
	cfg, ok := s.store.ConfigFor(userID)
	if !ok {
		cfg = task.UserConfig{UserID: userID}
	}
	return s.closeUser(ctx, cfg, s.now().In(s.loc))
}

// closeUser collects the user's report-eligible tasks, delivers one
// report per origin channel, and retires what was delivered. Each
// channel's send is attempted independently; a failed group stays
// unreported and is retried on the next matching minute. Returns the
// number of retired tasks.
func (s *Scheduler) closeUser(ctx context.Context, cfg task.UserConfig, now time.Time) int {
	mine := attributedTo(s.store.ReportEligible(), cfg)
	if len(mine) == 0 {
		return 0
	}

	channels, grouped := groupByChannel(mine)
	var delivered []string
	for _, ch := range channels {
		group := grouped[ch]
		text := RenderUserReport(displayName(cfg), group, now)
		if err := s.deliver(ctx, ch, cfg.ReportChannelID, text); err != nil {
			s.logger.Printf("daily: report for user %s to channel %s failed, will retry: %v", cfg.UserID, ch, err)
			continue
		}
		for _, t := range group {
			delivered = append(delivered, t.ID)
		}
	}
	s.retire(delivered)
	return len(delivered)
}

// closeOrphans reports completed tasks whose assignee matches no known
// user to the administrative channel. Orphans are never dropped: until a
// delivery succeeds they stay eligible.
func (s *Scheduler) closeOrphans(ctx context.Context, now time.Time) {
	if s.adminChannelID == "" {
		return
	}
	orphans := orphaned(s.store.ReportEligible(), s.store.Configs())
	if len(orphans) == 0 {
		return
	}
	text := RenderOrphanReport(orphans, now)
	if err := s.notifier.Deliver(ctx, s.adminChannelID, text); err != nil {
		s.logger.Printf("daily: orphan report failed, will retry: %v", err)
		return
	}
	ids := make([]string, 0, len(orphans))
	for _, t := range orphans {
		ids = append(ids, t.ID)
	}
	s.retire(ids)
}

// deliver sends to the origin channel, falling back to the user's
// configured report channel when the origin is unreachable.
func (s *Scheduler) deliver(ctx context.Context, channelID, fallbackID, text string) error {
	err := s.notifier.Deliver(ctx, channelID, text)
	if err == nil {
		return nil
	}
	if fallbackID == "" || fallbackID == channelID {
		return err
	}
	s.logger.Printf("daily: channel %s unreachable, trying fallback %s: %v", channelID, fallbackID, err)
	return s.notifier.Deliver(ctx, fallbackID, text)
}

// retire removes delivered tasks. The report is the permanent record, so
// removal rather than flagging is the retention policy.
func (s *Scheduler) retire(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.store.RemoveAll(ids)
	if err := s.store.Save(); err != nil {
		s.logger.Printf("daily: persist after close failed: %v", err)
	}
}

// sweep purges archived tasks past the retention window, once per
// calendar day.
func (s *Scheduler) sweep(now time.Time) {
	day := now.Format("2006-01-02")
	if day == s.lastSweep {
		return
	}
	s.lastSweep = day
	cutoff := now.AddDate(0, 0, -retentionDays)
	if purged := s.store.PurgeArchivedBefore(cutoff); purged > 0 {
		s.logger.Printf("daily: purged %d archived tasks older than %d days", purged, retentionDays)
		if err := s.store.Save(); err != nil {
			s.logger.Printf("daily: persist after purge failed: %v", err)
		}
	}
}

// attributedTo filters tasks belonging to one user: matched by assignee
// display name, falling back to the author id when no assignee was
// recorded.
func attributedTo(tasks []task.Task, cfg task.UserConfig) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if t.Assignee != "" {
			if cfg.DisplayName != "" && t.Assignee == cfg.DisplayName {
				out = append(out, t)
			}
			continue
		}
		if t.AuthorID == cfg.UserID {
			out = append(out, t)
		}
	}
	return out
}

// orphaned returns tasks attributable to no known user config.
func orphaned(tasks []task.Task, configs []task.UserConfig) []task.Task {
	names := map[string]bool{}
	ids := map[string]bool{}
	for _, c := range configs {
		if c.DisplayName != "" {
			names[c.DisplayName] = true
		}
		ids[c.UserID] = true
	}
	var out []task.Task
	for _, t := range tasks {
		if t.Assignee != "" {
			if !names[t.Assignee] {
				out = append(out, t)
			}
			continue
		}
		if !ids[t.AuthorID] {
			out = append(out, t)
		}
	}
	return out
}

func groupByChannel(tasks []task.Task) ([]string, map[string][]task.Task) {
	grouped := map[string][]task.Task{}
	for _, t := range tasks {
		grouped[t.ChannelID] = append(grouped[t.ChannelID], t)
	}
	channels := make([]string, 0, len(grouped))
	for ch := range grouped {
		channels = append(channels, ch)
	}
	sort.Strings(channels)
	return channels, grouped
}

func displayName(cfg task.UserConfig) string {
	if cfg.DisplayName != "" {
		return cfg.DisplayName
	}
	return cfg.UserID
}
