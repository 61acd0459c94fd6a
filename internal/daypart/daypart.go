// Package daypart parses 12-hour clock strings such as "08:00 AM" and sorts
// them into named parts of the day.
package daypart

import (
	"fmt"
	"strconv"
	"strings"
)

// Bucket is a named window of the day.
type Bucket string

const (
	Morning   Bucket = "morning"
	Afternoon Bucket = "afternoon"
	Evening   Bucket = "evening"
	Night     Bucket = "night"
	All       Bucket = "all"
)

// Buckets returns every bucket in display order.
func Buckets() []Bucket {
	return []Bucket{All, Morning, Afternoon, Evening, Night}
}

// ParseBucket maps a filter name to a Bucket. The empty string means All.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return All, nil
	}
	for _, known := range Buckets() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("daypart: unknown bucket %q", s)
}

// Clock is a time of day on a 24-hour clock.
type Clock struct {
	Hour24 int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseError reports a clock string that is not of the form "H:MM AM|PM".
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("daypart: cannot parse %q: %s", e.Input, e.Reason)
}

// ParseClock parses "H:MM AM", "HH:MM PM" and the like. The hour must be
// 1..12, the minute two digits in 0..59 and the marker AM or PM in any case.
func ParseClock(text string) (Clock, error) {
	fail := func(reason string) (Clock, error) {
		return Clock{}, &ParseError{Input: text, Reason: reason}
	}

	parts := strings.Split(strings.TrimSpace(text), " ")
	if len(parts) != 2 {
		return fail("expected time and AM/PM separated by one space")
	}
	hm, marker := parts[0], strings.ToUpper(parts[1])

	hs, ms, ok := strings.Cut(hm, ":")
	if !ok {
		return fail("missing ':' separator")
	}
	if len(hs) < 1 || len(hs) > 2 || len(ms) != 2 || !digits(hs) || !digits(ms) {
		return fail("hour and minute must be numeric")
	}
	hour, _ := strconv.Atoi(hs)
	minute, _ := strconv.Atoi(ms)

	var errs []string
	if hour < 1 || hour > 12 {
		errs = append(errs, fmt.Sprintf("hour %d out of range 1..12", hour))
	}
	if minute > 59 {
		errs = append(errs, fmt.Sprintf("minute %d out of range 0..59", minute))
	}
	if marker != "AM" && marker != "PM" {
		errs = append(errs, fmt.Sprintf("marker %q is not AM or PM", parts[1]))
	}
	if len(errs) > 0 {
		return fail(strings.Join(errs, "; "))
	}

	switch {
	case marker == "PM" && hour != 12:
		hour += 12
	case marker == "AM" && hour == 12:
		hour = 0
	}
	return Clock{Hour24: hour, Minute: minute}, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String renders the clock as "hh:mm AM".
func (c Clock) String() string {
	marker := "AM"
	h := c.Hour24
	if h >= 12 {
		marker = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute, marker)
}

// Minutes returns the number of minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour24*60 + c.Minute
}

// Classify reports whether c falls inside bucket b. Windows include their
// lower bound and exclude the upper one; night wraps past midnight.
func Classify(c Clock, b Bucket) bool {
	m := c.Minutes()
	switch b {
	case Morning:
		return m >= 6*60 && m < 12*60
	case Afternoon:
		return m >= 12*60 && m < 17*60
	case Evening:
		return m >= 17*60 && m < 22*60
	case Night:
		return m >= 22*60 || m < 6*60
	case All:
		return true
	default:
		return false
	}
}

// Of returns the part of the day containing c.
func Of(c Clock) Bucket {
	for _, b := range []Bucket{Morning, Afternoon, Evening} {
		if Classify(c, b) {
			return b
		}
	}
	return Night
}

// MatchText parses text and classifies it. Text that does not parse is
// treated as an unknown time and only matches All.
func MatchText(text string, b Bucket) bool {
	if b == All {
		return true
	}
	c, err := ParseClock(text)
	if err != nil {
		return false
	}
	return Classify(c, b)
}
