package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReminderCron != "@every 30s" || cfg.ReminderLeadMinutes != 15 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Medicines, DefaultMedicines()) {
		t.Errorf("medicines = %+v", cfg.Medicines)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Schedules = []ScheduleConfig{{URL: "https://example.com/meds.ics"}}
	cfg.SNS = &SNSConfig{TopicARN: "arn:aws:sns:us-east-1:123456789012:meds"}
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Timezone != "UTC" || got.SNS == nil || got.SNS.TopicARN != cfg.SNS.TopicARN {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Schedules[0].ID != "schedule-1" {
		t.Errorf("schedule id not defaulted: %q", got.Schedules[0].ID)
	}
}

func TestNormalizePartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen: \":9090\"\nlog_format: xml\nsns:\n  topic_arn: \"\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.LogFormat != "text" || cfg.MissedGraceMinutes != 60 || cfg.SNS != nil {
		t.Errorf("normalize failed: %+v", cfg)
	}
	if len(cfg.Medicines) != 0 {
		t.Errorf("explicit file should not receive starter medicines, got %d", len(cfg.Medicines))
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEDITRACK_LISTEN", "0.0.0.0:8181")
	t.Setenv("MEDITRACK_SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:1:t")
	t.Setenv("MEDITRACK_AUTH_USERNAME", "nurse")
	t.Setenv("MEDITRACK_AUTH_PASSWORD", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "0.0.0.0:8181" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.SNS == nil || cfg.SNS.TopicARN != "arn:aws:sns:eu-west-1:1:t" {
		t.Errorf("sns = %+v", cfg.SNS)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "nurse" {
		t.Errorf("basic auth = %+v", cfg.BasicAuth)
	}
}

func TestEnvOverridesNormalized(t *testing.T) {
	t.Setenv("MEDITRACK_LOG_FORMAT", "xml")

	dir := t.TempDir()
	first, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	again, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	for name, cfg := range map[string]*Config{"first run": first, "existing file": again} {
		if cfg.LogFormat != "text" {
			t.Errorf("%s: log format = %q, want text", name, cfg.LogFormat)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Timezone = "Mars/Olympus"
	cfg.Medicines = append(cfg.Medicines, cfg.Medicines[0])
	cfg.Medicines[3].Time = "25:00 PM"
	cfg.Schedules = []ScheduleConfig{{ID: "empty"}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation errors")
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ReminderLead() != 15*time.Minute || cfg.MissedGrace() != time.Hour {
		t.Errorf("lead=%v grace=%v", cfg.ReminderLead(), cfg.MissedGrace())
	}
	loc, err := (&Config{Timezone: "UTC"}).Location()
	if err != nil || loc != time.UTC {
		t.Errorf("location = %v, %v", loc, err)
	}
}
