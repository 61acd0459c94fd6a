package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"meditrack/internal/config"
	"meditrack/internal/ics"
	appLog "meditrack/internal/log"
	"meditrack/internal/medicine"
	"meditrack/internal/reminder"
	"meditrack/internal/web"
)

// app is the state shared by the subcommands.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	store    *medicine.Store
	inbox    *reminder.Inbox
	checker  *reminder.Checker
	schedule *ics.MonthSource
}

// configPath resolves the config path: flag, then MEDITRACK_CONFIG, then
// the default.
func (o *rootOptions) configPath() string {
	if o.ConfigPath != "" && o.ConfigPath != config.DefaultPath {
		return o.ConfigPath
	}
	if p := os.Getenv("MEDITRACK_CONFIG"); p != "" {
		return p
	}
	return config.DefaultPath
}

// loadApp loads the config, configures logging and builds the in-memory
// state. Notification delivery goes to the log and, when configured, SNS.
func loadApp(ctx context.Context, o *rootOptions) (*app, error) {
	path := o.configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	appLog.SetFormat(cfg.LogFormat)
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		// Invalid entries are still loaded; the store logs them.
		appLog.Warn("config has invalid entries", "path", path, "error", err.Error())
	}

	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
		loc = time.Local
	}

	a := &app{
		cfg:   cfg,
		loc:   loc,
		store: medicine.New(cfg.Medicines),
		inbox: reminder.NewInbox(0),
	}

	if len(cfg.Schedules) > 0 {
		cacheDir, err := config.ExpandPath(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		sources := make([]ics.Source, 0, len(cfg.Schedules))
		for _, s := range cfg.Schedules {
			if s.URL == "" {
				continue
			}
			sources = append(sources, ics.Source{ID: s.ID, URL: s.URL})
		}
		fetcher := ics.NewFetcher(cacheDir, &http.Client{Timeout: 15 * time.Second})
		a.schedule = ics.NewMonthSource(fetcher, sources, loc)
	}

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.checker = &reminder.Checker{
		Store:    a.store,
		Inbox:    a.inbox,
		Notifier: notifier,
		Lead:     cfg.ReminderLead(),
		Grace:    cfg.MissedGrace(),
	}

	appLog.Info("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"medicine_count", len(cfg.Medicines),
		"schedule_count", len(cfg.Schedules),
		"sns", cfg.SNS != nil,
	)
	return a, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config) (reminder.Notifier, error) {
	notifiers := reminder.MultiNotifier{reminder.LogNotifier{}}
	if cfg.SNS == nil {
		return notifiers, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.SNS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.SNS.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config %w", err)
	}
	notifiers = append(notifiers, &reminder.SNSNotifier{
		Client:   sns.NewFromConfig(awsCfg),
		TopicARN: cfg.SNS.TopicARN,
	})
	return notifiers, nil
}

// now is the current time in the configured zone.
func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

// scheduleSource returns the feed view for the web server, or nil when no
// feeds are configured.
func (a *app) scheduleSource() web.Schedule {
	if a.schedule == nil {
		return nil
	}
	return a.schedule
}

// server builds the web server. Snapshot servers drop basic auth since they
// only listen on a private loopback port.
func (a *app) server(snapshot bool) *web.Server {
	cfg := a.cfg
	if snapshot {
		c := *a.cfg
		c.BasicAuth = nil
		cfg = &c
	}
	preview, err := config.ExpandPath(a.cfg.SnapshotPath)
	if err != nil {
		preview = a.cfg.SnapshotPath
	}
	return web.NewServer(web.Options{
		Config:      cfg,
		Store:       a.store,
		Inbox:       a.inbox,
		Schedule:    a.scheduleSource(),
		PreviewPath: preview,
		Now:         a.now,
	})
}
