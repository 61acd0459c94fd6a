package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	for _, spec := range []string{"*/15 * * * *", "*/30 * * * * *", "@every 30s", "@daily"} {
		if err := Validate(spec); err != nil {
			t.Errorf("Validate(%q): %v", spec, err)
		}
	}
	for _, spec := range []string{"", "every minute", "61 * * * *"} {
		if err := Validate(spec); err == nil {
			t.Errorf("Validate(%q) expected error", spec)
		}
	}
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := New()
	if err := s.Add("bad", "nope", func(context.Context) {}); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Jobs()) != 0 {
		t.Errorf("bad job registered")
	}
}

func TestRunAndStop(t *testing.T) {
	s := New()
	var runs atomic.Int32

	err := s.Add("tick", "@every 1s", func(ctx context.Context) {
		runs.Add(1)
		select {
		case <-ctx.Done():
		case <-time.After(50 * time.Millisecond):
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Jobs(); len(got) != 1 || got[0] != "tick" {
		t.Errorf("Jobs() = %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Fatal("job never ran")
	}

	cancel()
	s.Stop()
	after := runs.Load()
	time.Sleep(1200 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("job ran after Stop")
	}
}
