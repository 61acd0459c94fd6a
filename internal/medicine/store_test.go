package medicine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"meditrack/internal/daypart"
	"meditrack/internal/model"
)

func sample() []model.Medicine {
	return []model.Medicine{
		{ID: "d3", Name: "Vitamin D3", Type: "Supplement", Time: "08:00 AM", Dosage: "1 Tablet", Frequency: "Daily"},
		{ID: "met", Name: "Metformin", Type: "Prescription", Time: "02:00 PM", Dosage: "500mg", Frequency: "Twice Daily"},
		{ID: "c", Name: "Vitamin C", Type: "Supplement", Time: "06:00 PM", Dosage: "1000mg", Frequency: "Daily"},
		{ID: "mel", Name: "Melatonin", Type: "Supplement", Time: "11:00 PM", Dosage: "3mg", Frequency: "Daily"},
		{ID: "odd", Name: "Mystery", Type: "Other", Time: "whenever"},
	}
}

func ids(ms []model.Medicine) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestNewAssignsDefaults(t *testing.T) {
	s := New([]model.Medicine{{Name: "Aspirin", Time: "09:00 AM"}})
	all := s.List()
	if len(all) != 1 {
		t.Fatalf("expected 1 medicine, got %d", len(all))
	}
	if all[0].ID == "" {
		t.Errorf("expected generated ID")
	}
	if all[0].Status != model.StatusPending {
		t.Errorf("expected pending, got %s", all[0].Status)
	}
}

func TestFilter(t *testing.T) {
	s := New(sample())

	tests := []struct {
		name   string
		query  string
		bucket daypart.Bucket
		want   []string
	}{
		{name: "all", bucket: daypart.All, want: []string{"d3", "met", "c", "mel", "odd"}},
		{name: "morning", bucket: daypart.Morning, want: []string{"d3"}},
		{name: "afternoon", bucket: daypart.Afternoon, want: []string{"met"}},
		{name: "evening", bucket: daypart.Evening, want: []string{"c"}},
		{name: "night", bucket: daypart.Night, want: []string{"mel"}},
		{name: "search name", query: "vitamin", bucket: daypart.All, want: []string{"d3", "c"}},
		{name: "search type", query: "PRESCRIPTION", bucket: daypart.All, want: []string{"met"}},
		{name: "search and bucket", query: "vitamin", bucket: daypart.Evening, want: []string{"c"}},
		{name: "no match", query: "insulin", bucket: daypart.All, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(s.Filter(tt.query, tt.bucket))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q, %s) = %v, want %v", tt.query, tt.bucket, got, tt.want)
			}
		})
	}
}

func TestMarkTaken(t *testing.T) {
	s := New(sample())
	at := time.Date(2025, 3, 1, 8, 5, 0, 0, time.UTC)

	m, err := s.MarkTaken("d3", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Status != model.StatusTaken || m.TakenAt == nil || !m.TakenAt.Equal(at) {
		t.Errorf("unexpected medicine %+v", m)
	}

	later := at.Add(time.Hour)
	m, _ = s.MarkTaken("d3", later)
	if !m.TakenAt.Equal(at) {
		t.Errorf("second mark changed TakenAt to %v", m.TakenAt)
	}

	if _, err := s.MarkTaken("nope", at); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpcoming(t *testing.T) {
	s := New(sample())
	now := time.Date(2025, 3, 1, 13, 47, 30, 0, time.UTC)

	got := s.Upcoming(now, 15*time.Minute)
	if len(got) != 1 {
		t.Fatalf("expected 1 upcoming, got %d", len(got))
	}
	if got[0].Medicine.ID != "met" || got[0].Minutes != 13 {
		t.Errorf("unexpected upcoming %+v", got[0])
	}

	if _, err := s.MarkTaken("met", now); err != nil {
		t.Fatal(err)
	}
	if got := s.Upcoming(now, 15*time.Minute); len(got) != 0 {
		t.Errorf("taken medicine still upcoming: %+v", got)
	}

	exactly := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	if got := s.Upcoming(exactly, 15*time.Minute); len(got) != 0 {
		t.Errorf("medicine due now should not be upcoming: %+v", got)
	}
}

func TestUpcomingAcrossMidnight(t *testing.T) {
	s := New([]model.Medicine{
		{ID: "early", Name: "Levothyroxine", Time: "12:05 AM"},
		{ID: "late", Name: "Melatonin", Time: "11:58 PM"},
	})
	now := time.Date(2025, 3, 1, 23, 55, 0, 0, time.UTC)

	got := s.Upcoming(now, 15*time.Minute)
	if len(got) != 2 {
		t.Fatalf("expected 2 upcoming, got %+v", got)
	}
	if got[0].Medicine.ID != "late" || got[0].Minutes != 3 {
		t.Errorf("first upcoming = %+v", got[0])
	}
	want := time.Date(2025, 3, 2, 0, 5, 0, 0, time.UTC)
	if got[1].Medicine.ID != "early" || got[1].Minutes != 10 || !got[1].Due.Equal(want) {
		t.Errorf("second upcoming = %+v", got[1])
	}

	// Tomorrow's dose is pending even when today's was taken.
	if _, err := s.MarkTaken("early", now); err != nil {
		t.Fatal(err)
	}
	if got := s.Upcoming(now, 15*time.Minute); len(got) != 2 {
		t.Errorf("taken today hides tomorrow's dose: %+v", got)
	}
	if got := s.Upcoming(now, 5*time.Minute); len(got) != 1 || got[0].Medicine.ID != "late" {
		t.Errorf("short window = %+v", got)
	}
}

func TestSweepMissedAndStats(t *testing.T) {
	s := New(sample())
	now := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)

	if _, err := s.MarkTaken("d3", now); err != nil {
		t.Fatal(err)
	}

	missed := s.SweepMissed(now, time.Hour)
	if got := ids(missed); !reflect.DeepEqual(got, []string{"met"}) {
		t.Fatalf("missed = %v", got)
	}
	if again := s.SweepMissed(now, time.Hour); len(again) != 0 {
		t.Errorf("second sweep returned %v", ids(again))
	}

	want := Stats{Total: 5, Taken: 1, Pending: 3, Missed: 1, Adherence: 50}
	if got := s.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	closed := s.ResetDay()
	if got := ids(closed); !reflect.DeepEqual(got, []string{"c", "mel"}) {
		t.Errorf("ResetDay closed %v", got)
	}
	for _, m := range closed {
		if m.Status != model.StatusMissed {
			t.Errorf("closed %s has status %s", m.ID, m.Status)
		}
	}
	if got := s.Stats(); got != (Stats{Total: 5, Pending: 5}) {
		t.Errorf("after reset Stats() = %+v", got)
	}
	if m, _ := s.Get("d3"); m.TakenAt != nil {
		t.Errorf("reset kept TakenAt")
	}
}

func TestAddReplaces(t *testing.T) {
	s := New(sample())
	s.Add(model.Medicine{ID: "c", Name: "Vitamin C Extra", Time: "07:00 PM"})
	all := s.List()
	if len(all) != 5 {
		t.Fatalf("expected 5 medicines, got %d", len(all))
	}
	if all[2].Name != "Vitamin C Extra" {
		t.Errorf("replacement not in place: %+v", all[2])
	}
}
