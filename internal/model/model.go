package model

import "time"

// Status is the adherence state of a medicine for the current day.
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
)

// Medicine is a tracked medicine with its daily dose time.
type Medicine struct {
	ID   string `yaml:"id,omitempty" json:"id"`
	Name string `yaml:"name" json:"name"`
	// Type is a free-form category such as "Supplement" or "Prescription".
	Type string `yaml:"type" json:"type"`
	// Time is the display dose time, "hh:mm AM|PM".
	Time      string `yaml:"time" json:"time"`
	Dosage    string `yaml:"dosage" json:"dosage"`
	Frequency string `yaml:"frequency" json:"frequency"`

	Status  Status     `yaml:"-" json:"status"`
	TakenAt *time.Time `yaml:"-" json:"taken_at,omitempty"`
}

// Dose represents a single concrete scheduled dose from a schedule feed
// (after recurrence expansion and timezone normalization).
type Dose struct {
	SourceID string // schedule source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// dose, derived from the local start time.
	InstanceKey string

	// Medicine is the event summary.
	Medicine string
	Notes    string
	Location string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

// NotificationKind selects how a notification is presented.
type NotificationKind string

const (
	KindWarning NotificationKind = "warning"
	KindSuccess NotificationKind = "success"
)

// Notification is an entry of the in-app notification panel.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
	Unread    bool             `json:"unread"`
}
