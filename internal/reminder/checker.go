package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appLog "meditrack/internal/log"
	"meditrack/internal/medicine"
	"meditrack/internal/model"
)

const (
	DefaultLead  = 15 * time.Minute
	DefaultGrace = time.Hour
)

// Checker turns the medicine store's state into notifications. It is
// meant to be run periodically by the scheduler.
type Checker struct {
	Store    *medicine.Store
	Inbox    *Inbox
	Notifier Notifier

	// Lead is how far ahead a pending medicine triggers a reminder.
	Lead time.Duration
	// Grace is how long after its dose time a pending medicine becomes missed.
	Grace time.Duration

	mu       sync.Mutex
	day      string
	reminded map[string]bool
}

// CheckResult reports what a single Check produced.
type CheckResult struct {
	Reminders  []model.Notification
	Missed     []model.Notification
	RolledOver bool
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Check emits an "Upcoming Medicine" reminder once per dose for doses
// within Lead, and a "Missed Dose" warning for doses overdue by more than
// Grace. A new calendar day first closes the previous one: doses still
// pending are reported missed, then all statuses reset.
func (c *Checker) Check(ctx context.Context, now time.Time) CheckResult {
	lead := c.Lead
	if lead <= 0 {
		lead = DefaultLead
	}
	grace := c.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	var res CheckResult
	closed, rolled := c.Rollover(now)
	res.RolledOver = rolled
	for _, m := range closed {
		res.Missed = append(res.Missed, c.missed(ctx, m, now))
	}

	for _, up := range c.Store.Upcoming(now, lead) {
		if !c.markReminded(up) {
			continue
		}
		n := c.emit(ctx, model.Notification{
			Kind:      model.KindWarning,
			Title:     "Upcoming Medicine",
			Message:   fmt.Sprintf("%s in %d minutes", up.Medicine.Name, up.Minutes),
			CreatedAt: now,
		})
		res.Reminders = append(res.Reminders, n)
	}

	for _, m := range c.Store.SweepMissed(now, grace) {
		res.Missed = append(res.Missed, c.missed(ctx, m, now))
	}

	if len(res.Reminders)+len(res.Missed) > 0 {
		appLog.Debug("reminder check", "reminders", len(res.Reminders), "missed", len(res.Missed))
	}
	return res
}

// Rollover closes the previous day when now is on a different day than the
// last call. It returns the doses that were never taken that day and
// reports whether a reset happened; the very first call only records the
// day.
func (c *Checker) Rollover(now time.Time) ([]model.Medicine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := dayKey(now)
	if c.day == today {
		return nil, false
	}
	first := c.day == ""
	c.day = today

	// Reminders sent late yesterday for today's early doses still count.
	kept := make(map[string]bool)
	for k := range c.reminded {
		if strings.HasPrefix(k, today+"/") {
			kept[k] = true
		}
	}
	c.reminded = kept
	if first {
		return nil, false
	}
	closed := c.Store.ResetDay()
	appLog.Info("new day, medicine statuses reset", "day", today, "missed", len(closed))
	return closed, true
}

// markReminded records a reminder for the dose and reports whether it is
// the first one.
func (c *Checker) markReminded(up medicine.Upcoming) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reminded == nil {
		c.reminded = make(map[string]bool)
	}
	key := dayKey(up.Due) + "/" + up.Medicine.ID
	if c.reminded[key] {
		return false
	}
	c.reminded[key] = true
	return true
}

func (c *Checker) missed(ctx context.Context, m model.Medicine, now time.Time) model.Notification {
	return c.emit(ctx, model.Notification{
		Kind:      model.KindWarning,
		Title:     "Missed Dose",
		Message:   fmt.Sprintf("You missed %s at %s", m.Name, m.Time),
		CreatedAt: now,
	})
}

func (c *Checker) emit(ctx context.Context, n model.Notification) model.Notification {
	if c.Inbox != nil {
		n = c.Inbox.Add(n)
	}
	if c.Notifier != nil {
		if err := c.Notifier.Notify(ctx, n); err != nil {
			appLog.Error("notification delivery failed", err, "title", n.Title)
		}
	}
	return n
}
