package timeclock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
)

// Editor id recorded for scheduler-originated mutations.
const SystemEditorID int32 = 0

// Engine owns the time entry lifecycle: create (clock-in), close
// (clock-out) and edit. It is stateless between calls; the store handle is
// passed per call so lambdas and handlers share one code path.
type Engine struct {
	Sink *Sink
	// Now is injectable so sweep races are reproducible in tests.
	Now func() time.Time
}

func NewEngine(sink *Sink) *Engine {
	return &Engine{Sink: sink, Now: time.Now}
}

type CreateRequest struct {
	JobID         int32
	ClockInAt     time.Time
	Geo           *Coordinate
	ClientEventID string
	DeviceID      string
	Origin        string
}

type CreateResult struct {
	EntryID string
	// Duplicate is set when the clientEventId had been seen before and
	// the prior entry id was returned instead of writing a second row.
	Duplicate bool
}

// CreateEntry opens a shift. Idempotent per (company, clientEventId): a
// retry returns the prior entry id and never creates a second row.
func (e *Engine) CreateEntry(ctx context.Context, db *gorm.DB, claims *Claims, req CreateRequest) (*CreateResult, error) {
	if claims == nil {
		return nil, Errf(KindUnauthenticated, "no session")
	}
	if req.JobID == 0 || req.ClientEventID == "" || req.ClockInAt.IsZero() {
		return nil, Errf(KindInvalidArgument, "jobId, clientEventId and clockInAt are required")
	}
	if req.Origin == "" {
		req.Origin = model.OriginOnline
	}
	if req.Origin != model.OriginOnline && req.Origin != model.OriginOffline {
		return nil, Errf(KindInvalidArgument, "invalid origin %q", req.Origin)
	}

	if prior, err := FindEntryByClientEvent(db, claims.CompanyID, req.ClientEventID); err != nil {
		return nil, Wrap(err, "failed to look up client event")
	} else if prior != nil {
		return e.collapseDuplicate(ctx, db, prior)
	}

	job, err := FindJob(db, req.JobID)
	if err != nil {
		return nil, Wrap(err, "failed to load job")
	}
	if job == nil {
		return nil, Errf(KindNotFound, "job %d not found", req.JobID)
	}
	if job.CompanyID != claims.CompanyID {
		return nil, Errf(KindPermissionDenied, "job belongs to another company")
	}
	if !job.Active {
		return nil, Errf(KindFailedPrecondition, "job %s is closed", job.JobNo)
	}

	assignment, err := FindAssignment(db, claims.CompanyID, claims.EmployeeID, req.JobID)
	if err != nil {
		return nil, Wrap(err, "failed to load assignment")
	}
	if assignment == nil || !assignment.ActiveAt(req.ClockInAt) {
		return nil, Errf(KindFailedPrecondition, "no active assignment for job %s", job.JobNo)
	}

	now := e.Now()
	check := CheckGeofence(job, req.Geo)

	entry := model.TimeEntry{
		EntryID:              uuid.NewString(),
		CompanyID:            claims.CompanyID,
		UserID:               claims.EmployeeID,
		JobID:                req.JobID,
		ClockInAt:            req.ClockInAt,
		ClockInGeofenceValid: check.Valid,
		GpsMissing:           check.GpsMissing,
		Origin:               req.Origin,
		ClientEventID:        req.ClientEventID,
		DeviceID:             req.DeviceID,
		Status:               model.StatusActive,
		ExceptionTags:        model.StringSet{},
		AuditLog:             model.AuditTrail{},
	}

	tags := CreationTags(&entry, check, now)
	if overlap, err := HasOverlap(db, claims.CompanyID, claims.EmployeeID, req.ClockInAt, nil, ""); err != nil {
		return nil, Wrap(err, "failed to check overlap")
	} else if overlap {
		tags = tags.Add(model.TagOverlap)
	}
	ApplyTags(&entry, tags)

	if err := db.Create(&entry).Error; err != nil {
		// A racing retry may have won the unique (company, event) index.
		prior, lookupErr := FindEntryByClientEvent(db, claims.CompanyID, req.ClientEventID)
		if lookupErr == nil && prior != nil {
			return e.collapseDuplicate(ctx, db, prior)
		}
		return nil, Wrap(err, "failed to create entry")
	}

	if err := e.Sink.Record(db, "time_entry", entry.EntryID, entry.CompanyID, claims.EmployeeID, now, "CLOCK_IN", nil, false); err != nil {
		return nil, err
	}
	if entry.NeedsReview {
		e.Sink.Notify(ctx, db, entry.CompanyID, model.NotificationEntryReview, entry)
	}

	return &CreateResult{EntryID: entry.EntryID}, nil
}

// collapseDuplicate handles a replayed clientEventId: the stored entry is
// tagged and flagged for review, and the prior id is returned as a soft
// success so the client stops retrying.
func (e *Engine) collapseDuplicate(ctx context.Context, db *gorm.DB, prior *model.TimeEntry) (*CreateResult, error) {
	alreadyTagged := prior.ExceptionTags.Contains(model.TagDuplicateEntry)
	ApplyTags(prior, model.StringSet{model.TagDuplicateEntry})
	prior.Status = model.StatusFlagged

	if err := db.Model(&model.TimeEntry{}).
		Where("entry_id = ?", prior.EntryID).
		Updates(map[string]any{
			"exception_tags": prior.ExceptionTags,
			"needs_review":   prior.NeedsReview,
			"status":         prior.Status,
		}).Error; err != nil {
		return nil, Wrap(err, "failed to flag duplicate entry")
	}

	if !alreadyTagged {
		e.Sink.Notify(ctx, db, prior.CompanyID, model.NotificationEntryReview, prior)
	}
	return &CreateResult{EntryID: prior.EntryID, Duplicate: true}, nil
}

type CloseRequest struct {
	JobID         int32
	ClockOutAt    time.Time
	Geo           *Coordinate
	ClientEventID string
	DeviceID      string
}

type CloseResult struct {
	EntryID   string
	Duplicate bool
}

// CloseEntry ends the caller's open shift on a job. The write is
// conditional on the shift still being open, so a concurrent auto
// clock-out or a retried close cannot close it twice.
func (e *Engine) CloseEntry(ctx context.Context, db *gorm.DB, claims *Claims, req CloseRequest) (*CloseResult, error) {
	if claims == nil {
		return nil, Errf(KindUnauthenticated, "no session")
	}
	if req.JobID == 0 || req.ClientEventID == "" || req.ClockOutAt.IsZero() {
		return nil, Errf(KindInvalidArgument, "jobId, clientEventId and clockOutAt are required")
	}

	if prior, err := FindEntryByCloseEvent(db, claims.CompanyID, req.ClientEventID); err != nil {
		return nil, Wrap(err, "failed to look up close event")
	} else if prior != nil {
		return &CloseResult{EntryID: prior.EntryID, Duplicate: true}, nil
	}

	entry, err := FindOpenEntry(db, claims.CompanyID, claims.EmployeeID, req.JobID)
	if err != nil {
		return nil, Wrap(err, "failed to load open entry")
	}
	if entry == nil {
		return nil, Errf(KindFailedPrecondition, "no open shift on this job")
	}

	if !req.ClockOutAt.After(entry.ClockInAt) {
		return nil, Errf(KindFailedPrecondition, "clock-out must be after clock-in")
	}
	duration := req.ClockOutAt.Sub(entry.ClockInAt)
	if duration > MaxShiftDuration {
		return nil, Errf(KindFailedPrecondition, "shift exceeds 24 hours")
	}

	job, err := FindJob(db, entry.JobID)
	if err != nil {
		return nil, Wrap(err, "failed to load job")
	}
	check := GeofenceCheck{Valid: true}
	if job != nil {
		check = CheckGeofence(job, req.Geo)
	}

	tags := model.StringSet{}
	if !check.Valid && !check.GpsMissing {
		tags = tags.Add(model.TagGeofenceClockOut)
	}
	if check.GpsMissing {
		tags = tags.Add(model.TagGpsMissing)
	}
	if overlap, err := HasOverlap(db, claims.CompanyID, claims.EmployeeID, entry.ClockInAt, &req.ClockOutAt, entry.EntryID); err != nil {
		return nil, Wrap(err, "failed to check overlap")
	} else if overlap {
		tags = tags.Add(model.TagOverlap)
	}
	ApplyTags(entry, tags)

	now := e.Now()
	minutes := int32(duration / time.Minute)
	result := db.Model(&model.TimeEntry{}).
		Where("entry_id = ? AND clock_out_at IS NULL", entry.EntryID).
		Updates(map[string]any{
			"clock_out_at":             req.ClockOutAt,
			"close_event_id":           req.ClientEventID,
			"duration_minutes":         minutes,
			"clock_out_geofence_valid": check.Valid,
			"exception_tags":           entry.ExceptionTags,
			"needs_review":             entry.NeedsReview,
		})
	if result.Error != nil {
		return nil, Wrap(result.Error, "failed to close entry")
	}
	if result.RowsAffected == 0 {
		// Lost the race: the sweep or a parallel retry closed it first.
		current, err := FindEntryByID(db, claims.CompanyID, entry.EntryID)
		if err != nil {
			return nil, Wrap(err, "failed to re-load entry")
		}
		if current != nil && current.CloseEventID != nil && *current.CloseEventID == req.ClientEventID {
			return &CloseResult{EntryID: current.EntryID, Duplicate: true}, nil
		}
		return nil, Errf(KindFailedPrecondition, "shift already clocked out")
	}

	if err := e.Sink.Record(db, "time_entry", entry.EntryID, entry.CompanyID, claims.EmployeeID, now, "CLOCK_OUT", nil, false); err != nil {
		return nil, err
	}
	if entry.NeedsReview {
		e.Sink.Notify(ctx, db, entry.CompanyID, model.NotificationEntryReview, entry)
	}

	return &CloseResult{EntryID: entry.EntryID}, nil
}
