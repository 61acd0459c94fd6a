// Package medicine keeps the day's medicine list in memory.
package medicine

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"meditrack/internal/daypart"
	appLog "meditrack/internal/log"
	"meditrack/internal/model"
)

// ErrNotFound is returned for an unknown medicine ID.
var ErrNotFound = errors.New("medicine not found")

// Store manages medicines and their status for the current day.
type Store struct {
	mu sync.RWMutex

	// Map of medicine ID to medicine
	byID map[string]*model.Medicine

	// IDs in insertion order for stable listings
	order []string
}

// Upcoming is a pending medicine that is due soon.
type Upcoming struct {
	Medicine model.Medicine
	Due      time.Time
	// Minutes until Due, rounded to the nearest minute.
	Minutes int
}

// Stats summarizes the day's adherence.
type Stats struct {
	Total     int     `json:"total"`
	Taken     int     `json:"taken"`
	Pending   int     `json:"pending"`
	Missed    int     `json:"missed"`
	Adherence float64 `json:"adherence"`
}

// New creates a Store seeded with the given medicines.
func New(seed []model.Medicine) *Store {
	s := &Store{byID: make(map[string]*model.Medicine)}
	for _, m := range seed {
		s.Add(m)
	}
	return s
}

// Add inserts m, assigning an ID when it has none, and returns the stored copy.
// An existing medicine with the same ID is replaced in place.
func (s *Store) Add(m model.Medicine) model.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = model.StatusPending
	}
	if _, err := daypart.ParseClock(m.Time); err != nil {
		appLog.Warn("medicine has unparsable dose time", "id", m.ID, "name", m.Name, "time", m.Time)
	}

	if _, exists := s.byID[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	stored := m
	s.byID[m.ID] = &stored
	return stored
}

// Get returns the medicine with the given ID.
func (s *Store) Get(id string) (model.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return model.Medicine{}, ErrNotFound
	}
	return *m, nil
}

// List returns all medicines in insertion order.
func (s *Store) List() []model.Medicine {
	return s.Filter("", daypart.All)
}

// Filter returns medicines whose name or type contains query, ignoring case,
// and whose dose time falls in bucket. A blank query matches everything.
func (s *Store) Filter(query string, bucket daypart.Bucket) []model.Medicine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Medicine, 0, len(s.order))
	for _, id := range s.order {
		m := s.byID[id]
		if q != "" &&
			!strings.Contains(strings.ToLower(m.Name), q) &&
			!strings.Contains(strings.ToLower(m.Type), q) {
			continue
		}
		if !daypart.MatchText(m.Time, bucket) {
			continue
		}
		out = append(out, *m)
	}
	return out
}

// MarkTaken records that the medicine was taken at the given time. Marking
// an already taken medicine keeps the original time.
func (s *Store) MarkTaken(id string, at time.Time) (model.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return model.Medicine{}, ErrNotFound
	}
	if m.Status != model.StatusTaken {
		t := at
		m.Status = model.StatusTaken
		m.TakenAt = &t
		appLog.Info("medicine marked taken", "id", id, "name", m.Name)
	}
	return *m, nil
}

// dueOn returns the dose time of m on the day of now, in now's location.
func dueOn(m *model.Medicine, now time.Time) (time.Time, bool) {
	c, err := daypart.ParseClock(m.Time)
	if err != nil {
		return time.Time{}, false
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, c.Hour24, c.Minute, 0, 0, now.Location()), true
}

// Upcoming returns medicines due in (now, now+within], soonest first. Today's
// dose counts only while pending; once it has passed, tomorrow's dose is
// considered instead, so a window crossing midnight still sees it.
func (s *Store) Upcoming(now time.Time, within time.Duration) []Upcoming {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Upcoming
	for _, id := range s.order {
		m := s.byID[id]
		due, ok := dueOn(m, now)
		if !ok {
			continue
		}
		if !due.After(now) {
			due = due.AddDate(0, 0, 1)
		} else if m.Status != model.StatusPending {
			continue
		}
		diff := due.Sub(now)
		if diff > within {
			continue
		}
		out = append(out, Upcoming{
			Medicine: *m,
			Due:      due,
			Minutes:  int(math.Round(diff.Minutes())),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}

// SweepMissed marks pending medicines whose dose time passed more than grace
// ago as missed and returns them.
func (s *Store) SweepMissed(now time.Time, grace time.Duration) []model.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missed []model.Medicine
	for _, id := range s.order {
		m := s.byID[id]
		if m.Status != model.StatusPending {
			continue
		}
		due, ok := dueOn(m, now)
		if !ok {
			continue
		}
		if now.Sub(due) > grace {
			m.Status = model.StatusMissed
			missed = append(missed, *m)
		}
	}
	return missed
}

// ResetDay closes the current day and puts every medicine back to pending.
// Medicines with a dose time that were still pending never got taken that
// day; they are returned marked missed, in insertion order.
func (s *Store) ResetDay() []model.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missed []model.Medicine
	for _, id := range s.order {
		m := s.byID[id]
		if m.Status == model.StatusPending {
			if _, err := daypart.ParseClock(m.Time); err == nil {
				closed := *m
				closed.Status = model.StatusMissed
				missed = append(missed, closed)
			}
		}
		m.Status = model.StatusPending
		m.TakenAt = nil
	}
	return missed
}

// Stats counts medicines per status. Adherence is the percentage of taken
// doses among those already decided (taken or missed).
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, m := range s.byID {
		st.Total++
		switch m.Status {
		case model.StatusTaken:
			st.Taken++
		case model.StatusMissed:
			st.Missed++
		default:
			st.Pending++
		}
	}
	if decided := st.Taken + st.Missed; decided > 0 {
		st.Adherence = math.Round(float64(st.Taken)/float64(decided)*1000) / 10
	}
	return st
}
