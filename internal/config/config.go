package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"meditrack/internal/daypart"
	"meditrack/internal/model"
)

// DefaultPath is where the config lives unless overridden by flag or
// MEDITRACK_CONFIG.
const DefaultPath = "~/.config/meditrack/config.yaml"

// ScheduleConfig describes a single dose schedule feed (ICS).
type ScheduleConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// SNSConfig enables reminder delivery to an AWS SNS topic.
type SNSConfig struct {
	TopicARN string `yaml:"topic_arn" json:"topic_arn"`
	Region   string `yaml:"region,omitempty" json:"region,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for "today" and day rollover.
	Timezone string `yaml:"timezone" json:"timezone"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// ReminderCron drives the reminder check (e.g. "@every 30s").
	ReminderCron string `yaml:"reminder_cron" json:"reminder_cron"`
	// RefreshCron drives schedule feed refresh and the preview snapshot.
	RefreshCron string `yaml:"refresh_cron" json:"refresh_cron"`

	// ReminderLeadMinutes is how far ahead an upcoming dose is announced.
	ReminderLeadMinutes int `yaml:"reminder_lead_minutes" json:"reminder_lead_minutes"`
	// MissedGraceMinutes is how long after its time a pending dose becomes missed.
	MissedGraceMinutes int `yaml:"missed_grace_minutes" json:"missed_grace_minutes"`

	// CacheDir holds the schedule feed cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// SnapshotPath is where the rendered calendar PNG is written.
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path"`

	Schedules []ScheduleConfig `yaml:"schedules" json:"schedules"`
	Medicines []model.Medicine `yaml:"medicines" json:"medicines"`

	SNS *SNSConfig `yaml:"sns,omitempty" json:"sns,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultMedicines is the starter list written on first run.
func DefaultMedicines() []model.Medicine {
	return []model.Medicine{
		{ID: "1", Name: "Vitamin D3", Type: "Supplement", Time: "08:00 AM", Dosage: "1000 IU", Frequency: "Daily"},
		{ID: "2", Name: "Metformin", Type: "Prescription", Time: "02:00 PM", Dosage: "500mg", Frequency: "Twice daily"},
		{ID: "3", Name: "Vitamin C", Type: "Supplement", Time: "06:00 PM", Dosage: "500mg", Frequency: "Daily"},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              "127.0.0.1:8080",
		Timezone:            "Local",
		LogLevel:            "info",
		LogFormat:           "text",
		ReminderCron:        "@every 30s",
		RefreshCron:         "*/15 * * * *",
		ReminderLeadMinutes: 15,
		MissedGraceMinutes:  60,
		CacheDir:            "~/.cache/meditrack",
		SnapshotPath:        "~/.cache/meditrack/calendar.png",
		Schedules:           []ScheduleConfig{},
		Medicines:           DefaultMedicines(),
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		c.LogFormat = d.LogFormat
	}
	if c.ReminderCron == "" {
		c.ReminderCron = d.ReminderCron
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.ReminderLeadMinutes <= 0 {
		c.ReminderLeadMinutes = d.ReminderLeadMinutes
	}
	if c.MissedGraceMinutes <= 0 {
		c.MissedGraceMinutes = d.MissedGraceMinutes
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = d.SnapshotPath
	}
	if c.Schedules == nil {
		c.Schedules = []ScheduleConfig{}
	}
	for i := range c.Schedules {
		if c.Schedules[i].ID == "" {
			c.Schedules[i].ID = fmt.Sprintf("schedule-%d", i+1)
		}
	}
	if c.Medicines == nil {
		c.Medicines = []model.Medicine{}
	}
	if c.SNS != nil && c.SNS.TopicARN == "" {
		c.SNS = nil
	}
}

// Validate reports settings that cannot be used as configured.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	for _, m := range c.Medicines {
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("medicine %q: name is empty", m.ID))
		}
		if _, err := daypart.ParseClock(m.Time); err != nil {
			errs = append(errs, fmt.Errorf("medicine %q: %w", m.Name, err))
		}
	}
	for _, s := range c.Schedules {
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("schedule %q: url is empty", s.ID))
		}
	}
	return errors.Join(errs...)
}

// Location resolves Timezone; "Local" and "" map to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ReminderLead returns ReminderLeadMinutes as a duration.
func (c *Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadMinutes) * time.Minute
}

// MissedGrace returns MissedGraceMinutes as a duration.
func (c *Config) MissedGrace() time.Duration {
	return time.Duration(c.MissedGraceMinutes) * time.Minute
}

// envOverrides are read from MEDITRACK_* variables. Empty values leave the
// file setting untouched.
type envOverrides struct {
	Listen       string `env:"MEDITRACK_LISTEN"`
	Timezone     string `env:"MEDITRACK_TIMEZONE"`
	LogLevel     string `env:"MEDITRACK_LOG_LEVEL"`
	LogFormat    string `env:"MEDITRACK_LOG_FORMAT"`
	ReminderCron string `env:"MEDITRACK_REMINDER_CRON"`
	CacheDir     string `env:"MEDITRACK_CACHE_DIR"`
	SNSTopicARN  string `env:"MEDITRACK_SNS_TOPIC_ARN"`
	AuthUser     string `env:"MEDITRACK_AUTH_USERNAME"`
	AuthPassword string `env:"MEDITRACK_AUTH_PASSWORD"`
}

// ApplyEnv overlays MEDITRACK_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("error parsing environment variables: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Listen, o.Listen)
	set(&c.Timezone, o.Timezone)
	set(&c.LogLevel, o.LogLevel)
	set(&c.LogFormat, o.LogFormat)
	set(&c.ReminderCron, o.ReminderCron)
	set(&c.CacheDir, o.CacheDir)
	if o.SNSTopicARN != "" {
		if c.SNS == nil {
			c.SNS = &SNSConfig{}
		}
		c.SNS.TopicARN = o.SNSTopicARN
	}
	if o.AuthUser != "" && o.AuthPassword != "" {
		c.BasicAuth = &BasicAuthConfig{Username: o.AuthUser, Password: o.AuthPassword}
	}
	return nil
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

// Load loads configuration from the given YAML path ("~" is expanded).
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Environment overrides are applied on top in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			if err := cfg.ApplyEnv(); err != nil {
				return cfg, err
			}
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".meditrack-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
