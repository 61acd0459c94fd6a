// Package printers renders calendar and medicine views for the terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"meditrack/internal/calendar"
	"meditrack/internal/daypart"
	"meditrack/internal/medicine"
	"meditrack/internal/model"
)

// width is one rendered week, e.g. "10 11 12 13 14 15 16".
const width = len("10 11 12 13 14 15 16")

type PrettyPrint struct {
	Out io.Writer
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

// Month prints the layout as a Sunday-first grid. Today is bold and
// underlined, days with a scheduled dose are green.
func (pp *PrettyPrint) Month(l calendar.Layout) {
	w := pp.out()
	title := color.New(color.Bold)
	head := color.New(color.Faint)
	plain := color.New()
	event := color.New(color.FgGreen, color.Bold)
	today := color.New(color.Bold, color.Underline)
	todayEvent := color.New(color.FgGreen, color.Bold, color.Underline)

	mid := (width - len(l.Label)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = title.Fprintf(w, "%s%s\n", strings.Repeat(" ", mid), l.Label)

	heads := make([]string, 0, len(l.WeekdayHeaders))
	for _, h := range l.WeekdayHeaders {
		heads = append(heads, h[:2])
	}
	_, _ = head.Fprintln(w, strings.Join(heads, " "))

	for _, week := range l.Weeks() {
		last := len(week) - 1
		for last > 0 && week[last] == 0 {
			last--
		}
		for i, n := range week[:last+1] {
			if i > 0 {
				_, _ = fmt.Fprint(w, " ")
			}
			if n == 0 {
				_, _ = fmt.Fprint(w, "  ")
				continue
			}
			d := l.Days[n-1]
			p := plain
			switch {
			case d.IsToday && d.HasEvent:
				p = todayEvent
			case d.IsToday:
				p = today
			case d.HasEvent:
				p = event
			}
			_, _ = p.Fprintf(w, "%2d", n)
		}
		_, _ = fmt.Fprint(w, "\n")
	}
}

// Medicines prints a table of medicines with their part of the day.
func (pp *PrettyPrint) Medicines(meds []model.Medicine) {
	w := pp.out()
	if len(meds) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, " none")
		return
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("NAME"), bold.Sprint("TYPE"), bold.Sprint("TIME"),
		bold.Sprint("WHEN"), bold.Sprint("DOSAGE"), bold.Sprint("STATUS"))
	for _, m := range meds {
		when := "-"
		if c, err := daypart.ParseClock(m.Time); err == nil {
			when = string(daypart.Of(c))
		}
		tbl.AddRow(m.ID, m.Name, m.Type, m.Time, when, m.Dosage, statusColor(m.Status).Sprint(m.Status))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusTaken:
		return color.New(color.FgGreen)
	case model.StatusMissed:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

// Notifications prints notifications newest first.
func (pp *PrettyPrint) Notifications(list []model.Notification) {
	w := pp.out()
	if len(list) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(w, " no notifications")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	for _, n := range list {
		kind := color.New(color.FgYellow)
		if n.Kind == model.KindSuccess {
			kind = color.New(color.FgGreen)
		}
		tbl.AddRow(kind.Sprint(n.Title), n.Message, n.CreatedAt.Format("15:04"))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// Stats prints the day's adherence summary.
func (pp *PrettyPrint) Stats(s medicine.Stats) {
	_, _ = fmt.Fprintf(pp.out(), "%d taken, %d pending, %d missed (%.1f%% adherence)\n",
		s.Taken, s.Pending, s.Missed, s.Adherence)
}
