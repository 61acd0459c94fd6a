package daypart

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{in: "12:00 AM", want: Clock{Hour24: 0, Minute: 0}},
		{in: "12:00 PM", want: Clock{Hour24: 12, Minute: 0}},
		{in: "08:00 AM", want: Clock{Hour24: 8, Minute: 0}},
		{in: "02:00 PM", want: Clock{Hour24: 14, Minute: 0}},
		{in: "2:05 pm", want: Clock{Hour24: 14, Minute: 5}},
		{in: "11:59 PM", want: Clock{Hour24: 23, Minute: 59}},
		{in: "12:30 AM", want: Clock{Hour24: 0, Minute: 30}},
		{in: "  06:15 AM ", want: Clock{Hour24: 6, Minute: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseClockInvalid(t *testing.T) {
	for _, in := range []string{
		"13:61 XM",
		"",
		"08:00",
		"0800 AM",
		"08:00  AM",
		"ab:cd AM",
		"0:30 AM",
		"13:00 PM",
		"08:60 AM",
		"8:5 AM",
		"-1:00 AM",
		"08:00 NOON",
		"123:00 AM",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseClock(in)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if perr.Input != in {
				t.Errorf("ParseError.Input = %q, want %q", perr.Input, in)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		clock Clock
		b     Bucket
		want  bool
	}{
		{name: "morning start", clock: Clock{6, 0}, b: Morning, want: true},
		{name: "morning end", clock: Clock{11, 59}, b: Morning, want: true},
		{name: "noon not morning", clock: Clock{12, 0}, b: Morning, want: false},
		{name: "before morning", clock: Clock{5, 59}, b: Morning, want: false},
		{name: "afternoon start", clock: Clock{12, 0}, b: Afternoon, want: true},
		{name: "afternoon end", clock: Clock{16, 59}, b: Afternoon, want: true},
		{name: "five pm not afternoon", clock: Clock{17, 0}, b: Afternoon, want: false},
		{name: "evening start", clock: Clock{17, 0}, b: Evening, want: true},
		{name: "evening end", clock: Clock{21, 59}, b: Evening, want: true},
		{name: "ten pm not evening", clock: Clock{22, 0}, b: Evening, want: false},
		{name: "night late", clock: Clock{23, 0}, b: Night, want: true},
		{name: "night start", clock: Clock{22, 0}, b: Night, want: true},
		{name: "night midnight", clock: Clock{0, 0}, b: Night, want: true},
		{name: "night early", clock: Clock{5, 59}, b: Night, want: true},
		{name: "six not night", clock: Clock{6, 0}, b: Night, want: false},
		{name: "all", clock: Clock{13, 13}, b: All, want: true},
		{name: "unknown bucket", clock: Clock{13, 13}, b: Bucket("brunch"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.clock, tt.b); got != tt.want {
				t.Errorf("Classify(%+v, %s) = %v, want %v", tt.clock, tt.b, got, tt.want)
			}
		})
	}
}

func TestOfCoversEveryHourOnce(t *testing.T) {
	for h := 0; h < 24; h++ {
		c := Clock{Hour24: h}
		matches := 0
		for _, b := range []Bucket{Morning, Afternoon, Evening, Night} {
			if Classify(c, b) {
				matches++
				if Of(c) != b {
					t.Errorf("Of(%d:00) = %s, want %s", h, Of(c), b)
				}
			}
		}
		if matches != 1 {
			t.Errorf("hour %d is in %d buckets", h, matches)
		}
	}
}

func TestClockString(t *testing.T) {
	for _, in := range []string{"12:00 AM", "12:00 PM", "08:05 AM", "11:59 PM", "01:00 PM"} {
		c, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		if got := c.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestParseBucket(t *testing.T) {
	if b, err := ParseBucket(""); err != nil || b != All {
		t.Errorf("empty bucket = %q, %v", b, err)
	}
	if b, err := ParseBucket(" Evening "); err != nil || b != Evening {
		t.Errorf("evening bucket = %q, %v", b, err)
	}
	if _, err := ParseBucket("brunch"); err == nil {
		t.Errorf("expected error for unknown bucket")
	}
	for _, want := range Buckets() {
		if b, err := ParseBucket(string(want)); err != nil || b != want {
			t.Errorf("ParseBucket(%q) = %q, %v", want, b, err)
		}
	}
}

func TestClockMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12:00 AM", 0},
		{"12:30 AM", 30},
		{"06:00 AM", 360},
		{"12:00 PM", 720},
		{"11:59 PM", 1439},
	}
	for _, tt := range tests {
		c, err := ParseClock(tt.in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", tt.in, err)
		}
		if got := c.Minutes(); got != tt.want {
			t.Errorf("%q.Minutes() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMatchText(t *testing.T) {
	if !MatchText("garbage", All) {
		t.Errorf("unparsable time should match all")
	}
	for _, b := range []Bucket{Morning, Afternoon, Evening, Night} {
		if MatchText("garbage", b) {
			t.Errorf("unparsable time matched %s", b)
		}
	}
	if !MatchText("06:00 PM", Evening) {
		t.Errorf("06:00 PM should be evening")
	}
}
