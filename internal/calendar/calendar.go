// Package calendar computes month grids and moves a month cursor.
//
// Months are zero-based (0 = January) throughout this package so that a
// Cursor can be handed to the web UI without conversion. Weeks always start
// on Sunday.
package calendar

import (
	"context"
	"fmt"
	"time"
)

// weekdayHeaders are the column labels of a rendered month, Sunday first.
var weekdayHeaders = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Cursor identifies the month a calendar view currently displays.
type Cursor struct {
	// Month is 0..11.
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Date is a calendar date with a zero-based month, used as the caller's
// notion of "today".
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Day is a single cell of a month layout.
type Day struct {
	Number   int  `json:"day"`
	Weekday  int  `json:"weekday"`
	IsToday  bool `json:"is_today"`
	HasEvent bool `json:"has_event"`
}

// Layout is the render-ready grid for one month.
type Layout struct {
	Cursor
	Label          string   `json:"label"`
	WeekdayHeaders []string `json:"weekday_headers"`
	LeadingBlanks  int      `json:"leading_blanks"`
	Days           []Day    `json:"days"`
}

// DaySet is the set of day numbers within a month that carry at least one
// scheduled dose.
type DaySet map[int]struct{}

// NewDaySet builds a set from the given day numbers.
func NewDaySet(days ...int) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

// Has reports whether day is in the set. A nil set is empty.
func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

// ScheduleSource supplies the days of a month that have something scheduled.
type ScheduleSource interface {
	FetchScheduleForMonth(ctx context.Context, month, year int) (DaySet, error)
}

// CursorFor returns the cursor of the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Month: int(t.Month()) - 1, Year: t.Year()}
}

// DateOf converts t into a zero-based-month Date in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m) - 1, Day: d}
}

// Label renders the cursor as "January 2025". It is a derived view only and
// is never parsed back into a cursor.
func (c Cursor) Label() string {
	if c.Month < 0 || c.Month > 11 {
		return fmt.Sprintf("Month(%d) %d", c.Month, c.Year)
	}
	return fmt.Sprintf("%s %d", monthNames[c.Month], c.Year)
}

// Valid reports whether the month is already normalized.
func (c Cursor) Valid() bool {
	return c.Month >= 0 && c.Month <= 11
}

// Navigate moves the cursor by direction whole months. For direction -1 or
// +1 the month wraps at 0/11 and the year moves by one; any other integer
// moves by that many months.
func Navigate(c Cursor, direction int) Cursor {
	m := c.Month + direction
	dy := floorDiv(m, 12)
	return Cursor{Month: m - dy*12, Year: c.Year + dy}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the zero-based month of year.
func DaysIn(month, year int) int {
	switch month {
	case 1:
		if IsLeap(year) {
			return 29
		}
		return 28
	case 3, 5, 8, 10:
		return 30
	default:
		return 31
	}
}

// firstWeekday returns the weekday (0 = Sunday) of day 1 of the month.
func firstWeekday(month, year int) int {
	return int(time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// LayoutMonth computes the grid for month/year. month must already be in
// 0..11. today marks at most one cell; hasEvent may be nil.
func LayoutMonth(month, year int, today Date, hasEvent func(day int) bool) Layout {
	cur := Cursor{Month: month, Year: year}
	blanks := firstWeekday(month, year)
	n := DaysIn(month, year)

	sameMonth := today.Year == year && today.Month == month

	days := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		day := Day{
			Number:  d,
			Weekday: (blanks + d - 1) % 7,
			IsToday: sameMonth && today.Day == d,
		}
		if hasEvent != nil {
			day.HasEvent = hasEvent(d)
		}
		days = append(days, day)
	}

	headers := make([]string, len(weekdayHeaders))
	copy(headers, weekdayHeaders)

	return Layout{
		Cursor:         cur,
		Label:          cur.Label(),
		WeekdayHeaders: headers,
		LeadingBlanks:  blanks,
		Days:           days,
	}
}

// LayoutWithSource lays out the cursor's month using src for event days.
// A nil src yields a layout without events. Source errors are returned
// together with an event-less layout so callers can still render.
func LayoutWithSource(ctx context.Context, c Cursor, today Date, src ScheduleSource) (Layout, error) {
	if src == nil {
		return LayoutMonth(c.Month, c.Year, today, nil), nil
	}
	set, err := src.FetchScheduleForMonth(ctx, c.Month, c.Year)
	if err != nil {
		return LayoutMonth(c.Month, c.Year, today, nil), fmt.Errorf("calendar: fetch schedule for %s: %w", c.Label(), err)
	}
	return LayoutMonth(c.Month, c.Year, today, set.Has), nil
}

// Weeks splits the layout into rows of seven day numbers, with 0 for the
// leading and trailing placeholder cells.
func (l Layout) Weeks() [][7]int {
	var weeks [][7]int
	var row [7]int
	col := l.LeadingBlanks
	for _, d := range l.Days {
		row[col] = d.Number
		col++
		if col == 7 {
			weeks = append(weeks, row)
			row = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, row)
	}
	return weeks
}
