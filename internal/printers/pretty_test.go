package printers

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"meditrack/internal/calendar"
	"meditrack/internal/medicine"
	"meditrack/internal/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestMonth(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	// February 2026 starts on a Sunday and fills exactly four weeks.
	l := calendar.LayoutMonth(1, 2026, calendar.Date{Year: 2026, Month: 1, Day: 14}, calendar.NewDaySet(3).Has)
	pp.Month(l)

	want := strings.Join([]string{
		"   February 2026",
		"Su Mo Tu We Th Fr Sa",
		" 1  2  3  4  5  6  7",
		" 8  9 10 11 12 13 14",
		"15 16 17 18 19 20 21",
		"22 23 24 25 26 27 28",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestMonthLeadingBlanks(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	// March 2024 starts on a Friday.
	pp.Month(calendar.LayoutMonth(2, 2024, calendar.Date{}, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected title, header and 6 weeks, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[2] != strings.Repeat("   ", 5)+" 1  2" {
		t.Errorf("first week = %q", lines[2])
	}
	if lines[7] != "31" {
		t.Errorf("last week = %q", lines[7])
	}
}

func TestMedicines(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	pp.Medicines(nil)
	if !strings.Contains(buf.String(), "none") {
		t.Errorf("empty list output = %q", buf.String())
	}

	buf.Reset()
	pp.Medicines([]model.Medicine{
		{ID: "1", Name: "Vitamin D3", Type: "Supplement", Time: "08:00 AM", Dosage: "1000 IU", Status: model.StatusTaken},
		{ID: "2", Name: "Mystery", Time: "whenever", Status: model.StatusPending},
	})
	out := buf.String()
	for _, s := range []string{"NAME", "Vitamin D3", "morning", "taken", "Mystery", "pending"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}

func TestNotificationsAndStats(t *testing.T) {
	var buf bytes.Buffer
	pp := &PrettyPrint{Out: &buf}

	pp.Notifications([]model.Notification{{
		Kind:      model.KindWarning,
		Title:     "Upcoming Medicine",
		Message:   "Metformin in 10 minutes",
		CreatedAt: time.Date(2024, 3, 15, 13, 50, 0, 0, time.UTC),
	}})
	pp.Stats(medicine.Stats{Total: 3, Taken: 1, Pending: 1, Missed: 1, Adherence: 50})

	out := buf.String()
	for _, s := range []string{"Upcoming Medicine", "Metformin in 10 minutes", "13:50", "1 taken, 1 pending, 1 missed (50.0% adherence)"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
}
