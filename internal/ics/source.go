package ics

import (
	"context"
	"errors"
	"sync"
	"time"

	"meditrack/internal/calendar"
	appLog "meditrack/internal/log"
	"meditrack/internal/model"
)

const defaultSourceTTL = 30 * time.Second

// MonthSource answers calendar questions from the configured dose feeds.
// It implements calendar.ScheduleSource.
type MonthSource struct {
	Fetcher  *Fetcher
	Sources  []Source
	Location *time.Location
	// TTL bounds how long fetched and parsed feeds are reused. Zero uses 30s.
	TTL time.Duration

	now func() time.Time

	mu        sync.Mutex
	events    []ParsedEvent
	fetchedAt time.Time
}

var _ calendar.ScheduleSource = (*MonthSource)(nil)

// NewMonthSource creates a MonthSource over the given feeds.
func NewMonthSource(f *Fetcher, sources []Source, loc *time.Location) *MonthSource {
	if loc == nil {
		loc = time.Local
	}
	return &MonthSource{Fetcher: f, Sources: sources, Location: loc, now: time.Now}
}

// parsedEvents returns parsed events from every feed, refetching when the
// cached copy is older than TTL. Individual feed failures are logged; an
// error is returned only when every feed failed.
func (m *MonthSource) parsedEvents(ctx context.Context) ([]ParsedEvent, error) {
	ttl := m.TTL
	if ttl <= 0 {
		ttl = defaultSourceTTL
	}
	now := time.Now
	if m.now != nil {
		now = m.now
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.events != nil && now().Sub(m.fetchedAt) < ttl {
		return m.events, nil
	}
	if len(m.Sources) == 0 {
		return nil, nil
	}

	results, errs := m.Fetcher.FetchAll(ctx, m.Sources)
	if len(results) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	events := make([]ParsedEvent, 0)
	for _, res := range results {
		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("schedule parse failed for source", err, "id", res.Source.ID)
			continue
		}
		events = append(events, parsed...)
	}

	m.events = events
	m.fetchedAt = now()
	return events, nil
}

// Doses returns the doses in [start, end).
func (m *MonthSource) Doses(ctx context.Context, start, end time.Time) ([]model.Dose, error) {
	events, err := m.parsedEvents(ctx)
	if err != nil {
		return nil, err
	}
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: m.Location,
		RangeStart:      start,
		RangeEnd:        end,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Dose, 0, len(res.Doses))
	for _, d := range res.Doses {
		if d.Start.Before(end) && (d.End.After(start) || d.Start.Equal(start)) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FetchScheduleForMonth returns the days of the zero-based month that have
// at least one dose.
func (m *MonthSource) FetchScheduleForMonth(ctx context.Context, month, year int) (calendar.DaySet, error) {
	start := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, m.Location)
	end := start.AddDate(0, 1, 0)

	doses, err := m.Doses(ctx, start, end)
	if err != nil {
		return nil, err
	}

	days := calendar.NewDaySet()
	for _, d := range doses {
		markDays(days, d, start, end)
	}
	return days, nil
}

// markDays adds every day of [start, end) touched by the dose.
func markDays(days calendar.DaySet, d model.Dose, start, end time.Time) {
	loc := start.Location()
	s := d.Start.In(loc)
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	for {
		if !day.Before(start) && day.Before(end) {
			days[day.Day()] = struct{}{}
		}
		day = day.AddDate(0, 0, 1)
		if !day.Before(end) || !day.Before(d.End) {
			return
		}
	}
}

// DosesOn returns the doses scheduled on the given local date.
func (m *MonthSource) DosesOn(ctx context.Context, date time.Time) ([]model.Dose, error) {
	y, mo, d := date.In(m.Location).Date()
	start := time.Date(y, mo, d, 0, 0, 0, 0, m.Location)
	return m.Doses(ctx, start, start.AddDate(0, 0, 1))
}
