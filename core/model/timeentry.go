package model

import "time"

// Entry origin values.
const (
	OriginOnline  = "online"
	OriginOffline = "offline"
)

// Entry status values. Flagged entries stay queryable but are surfaced
// for admin review instead of payroll.
const (
	StatusActive  = "active"
	StatusFlagged = "flagged"
)

// Exception tags applied by the flagging pass.
const (
	TagOverlap          = "overlap"
	TagOfflineOrigin    = "offline_origin"
	TagGeofenceClockIn  = "geofence_violation_clock_in"
	TagGeofenceClockOut = "geofence_violation_clock_out"
	TagGpsMissing       = "gps_missing"
	TagExceeds24Hours   = "exceeds_24_hours"
	TagDuplicateEntry   = "duplicate_entry"
)

type TimeEntry struct {
	EntryID   string `gorm:"primaryKey;column:entry_id;type:varchar(36)"`
	CompanyID int32  `gorm:"column:company_id;not null;uniqueIndex:uq_company_event,priority:1;index:idx_company_user"`
	UserID    int32  `gorm:"column:user_id;not null;index:idx_company_user,priority:2"`
	JobID     int32  `gorm:"column:job_id;not null"`

	ClockInAt       time.Time  `gorm:"column:clock_in_at;not null"`
	ClockOutAt      *time.Time `gorm:"column:clock_out_at"`
	DurationMinutes *int32     `gorm:"column:duration_minutes"`

	ClockInGeofenceValid  bool   `gorm:"column:clock_in_geofence_valid;not null"`
	ClockOutGeofenceValid bool   `gorm:"column:clock_out_geofence_valid;not null"`
	GpsMissing            bool   `gorm:"column:gps_missing;not null"`
	Origin                string `gorm:"column:origin;type:varchar(10);not null"`
	ClientEventID         string `gorm:"column:client_event_id;type:varchar(64);not null;uniqueIndex:uq_company_event,priority:2"`
	// CloseEventID is the idempotency token of the clock-out operation,
	// set when the shift closes. A retried close matches on it.
	CloseEventID *string `gorm:"column:close_event_id;type:varchar(64);index"`
	DeviceID     string  `gorm:"column:device_id;type:varchar(64)"`

	Approved     bool       `gorm:"column:approved;not null"`
	ApprovedBy   *int32     `gorm:"column:approved_by"`
	ApprovedAt   *time.Time `gorm:"column:approved_at"`
	InvoiceID    *string    `gorm:"column:invoice_id;type:varchar(36)"`
	NeedsReview  bool       `gorm:"column:needs_review;not null"`
	Status       string     `gorm:"column:status;type:varchar(10);not null;default:active"`
	AutoClockOut bool       `gorm:"column:auto_clock_out;not null"`
	// LongShiftWarned stops the scheduler re-notifying every cycle once
	// the early warning has fired for this shift.
	LongShiftWarned bool `gorm:"column:long_shift_warned;not null"`

	Notes         string     `gorm:"column:notes;type:text"`
	ExceptionTags StringSet  `gorm:"column:exception_tags;type:json"`
	AuditLog      AuditTrail `gorm:"column:audit_log;type:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// Open reports whether the shift is still running.
func (e *TimeEntry) Open() bool {
	return e.ClockOutAt == nil
}

// Frozen entries reject ordinary edits; only an admin force edit applies.
func (e *TimeEntry) Frozen() bool {
	return e.Approved || e.InvoiceID != nil
}
