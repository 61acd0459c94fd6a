package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "meditrack/internal/log"
	"meditrack/internal/model"
)

const defaultMaxDosesPerEvent = 5000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone doses are converted to. Nil means time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for doses.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxDosesPerEvent caps the expansion of a single event. Zero uses
	// defaultMaxDosesPerEvent.
	MaxDosesPerEvent int
}

// ExpandResult wraps the expanded doses and the UIDs that hit the cap.
type ExpandResult struct {
	Doses           []model.Dose
	TruncatedEvents []string
}

// ExpandOccurrences expands parsed events into concrete doses within the
// configured range: single events, RRULE recurrences, EXDATE removals,
// RECURRENCE-ID overrides and all-day doses. Doses are sorted by start.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxDosesPerEvent <= 0 {
		cfg.MaxDosesPerEvent = defaultMaxDosesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	doses := make([]model.Dose, 0)
	for uid, baseEvents := range baseByUID {
		truncated := false
		for _, ev := range baseEvents {
			var out []model.Dose
			var hitCap bool
			if ev.RawRRule == "" {
				out = expandSingle(ev, overridesByUID[uid], cfg)
			} else {
				out, hitCap = expandRecurring(ev, overridesByUID[uid], cfg)
			}
			truncated = truncated || hitCap
			doses = append(doses, out...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Warn("expand: dose cap reached", "uid", uid, "cap", cfg.MaxDosesPerEvent)
		}
	}

	sort.SliceStable(doses, func(i, j int) bool { return doses[i].Start.Before(doses[j].Start) })
	sort.Strings(result.TruncatedEvents)
	result.Doses = doses
	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Dose {
	if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	start, end := ev.Start, ev.End
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	return []model.Dose{makeDose(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Dose, bool) {
	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Error("expand: invalid RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	// Widen the lower bound by the dose duration so doses already running at
	// RangeStart are included.
	dur := ev.End.Sub(ev.Start)
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxDosesPerEvent {
		starts = starts[:cfg.MaxDosesPerEvent]
		hitCap = true
	}

	out := make([]model.Dose, 0, len(starts))
	for _, s := range starts {
		var e time.Time
		if ev.AllDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			e = s.AddDate(0, 0, 1)
		} else {
			e = s.Add(dur)
		}

		base := ev
		if o, ok := findOverride(overrides, s); ok {
			base, s, e = o, o.Start, o.End
		}
		out = append(out, makeDose(base, s, e, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride finds an override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeDose converts an event instance into a Dose in loc. All-day dates are
// floating: they keep their calendar date in every zone.
func makeDose(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Dose {
	var s, e time.Time
	if ev.AllDay {
		s = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		days := int(end.Sub(start).Hours()+12) / 24
		if days < 1 {
			days = 1
		}
		e = s.AddDate(0, 0, days)
	} else {
		s, e = start.In(loc), end.In(loc)
	}
	return model.Dose{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: s.Format(time.RFC3339Nano),
		Medicine:    ev.Medicine,
		Notes:       ev.Notes,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       s,
		End:         e,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
