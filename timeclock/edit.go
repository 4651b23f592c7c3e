package timeclock

import (
	"context"
	"time"

	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
)

const (
	minEditReasonLen = 3
	maxEditReasonLen = 500
)

type EditRequest struct {
	TimeEntryID string
	EditReason  string
	ClockInAt   *time.Time
	ClockOutAt  *time.Time
	Notes       *string
	Force       bool
}

type EditResult struct {
	Ok                 bool
	HasOverlap         bool
	RequiresReapproval bool
}

// EditEntry applies an authorized correction. Frozen entries (approved or
// invoiced) require an admin force edit; a force edit that touches either
// timestamp clears the approval so the entry goes back through review.
func (e *Engine) EditEntry(ctx context.Context, db *gorm.DB, claims *Claims, req EditRequest) (*EditResult, error) {
	if claims == nil {
		return nil, Errf(KindUnauthenticated, "no session")
	}
	if !claims.CanEdit() {
		return nil, Errf(KindPermissionDenied, "role %q cannot edit time entries", claims.Role)
	}
	if req.Force && !claims.IsAdmin() {
		return nil, Errf(KindPermissionDenied, "only admins can force edit")
	}
	if len(req.EditReason) < minEditReasonLen || len(req.EditReason) > maxEditReasonLen {
		return nil, Errf(KindInvalidArgument, "editReason must be %d-%d characters", minEditReasonLen, maxEditReasonLen)
	}

	entry, err := FindEntryByID(db, claims.CompanyID, req.TimeEntryID)
	if err != nil {
		return nil, Wrap(err, "failed to load entry")
	}
	if entry == nil {
		return nil, Errf(KindNotFound, "time entry %s not found", req.TimeEntryID)
	}
	if entry.Frozen() && !req.Force {
		return nil, Errf(KindFailedPrecondition, "entry is approved or invoiced; use force to override")
	}

	newIn := entry.ClockInAt
	if req.ClockInAt != nil {
		newIn = *req.ClockInAt
	}
	newOut := entry.ClockOutAt
	if req.ClockOutAt != nil {
		newOut = req.ClockOutAt
	}

	if newOut != nil {
		if !newOut.After(newIn) {
			return nil, Errf(KindFailedPrecondition, "clock-out must be after clock-in")
		}
		if newOut.Sub(newIn) > MaxShiftDuration {
			return nil, Errf(KindFailedPrecondition, "shift exceeds 24 hours")
		}
	}

	changes := model.ChangeSet{}
	if !newIn.Equal(entry.ClockInAt) {
		changes["clockInAt"] = model.FieldChange{Before: entry.ClockInAt, After: newIn}
	}
	if req.ClockOutAt != nil && (entry.ClockOutAt == nil || !entry.ClockOutAt.Equal(*req.ClockOutAt)) {
		changes["clockOutAt"] = model.FieldChange{Before: entry.ClockOutAt, After: *req.ClockOutAt}
	}
	if req.Notes != nil && *req.Notes != entry.Notes {
		changes["notes"] = model.FieldChange{Before: entry.Notes, After: *req.Notes}
	}
	if len(changes) == 0 {
		return nil, Errf(KindInvalidArgument, "nothing to change")
	}

	_, inChanged := changes["clockInAt"]
	_, outChanged := changes["clockOutAt"]
	timestampChanged := inChanged || outChanged

	result := &EditResult{Ok: true}
	if timestampChanged && entry.Approved {
		result.RequiresReapproval = true
	}

	// Overlap only re-evaluates when a timestamp moved and the window is
	// complete; open entries edited on the clock-in side alone skip it.
	if timestampChanged && newOut != nil {
		overlap, err := HasOverlap(db, claims.CompanyID, entry.UserID, newIn, newOut, entry.EntryID)
		if err != nil {
			return nil, Wrap(err, "failed to check overlap")
		}
		if overlap {
			result.HasOverlap = true
			ApplyTags(entry, model.StringSet{model.TagOverlap})
		}
	}

	now := e.Now()
	entry.AuditLog = append(entry.AuditLog, model.EntryAudit{
		EditedBy:   claims.EmployeeID,
		EditedAt:   now,
		EditReason: req.EditReason,
		Changes:    changes,
		ForceEdit:  req.Force,
	})

	updates := map[string]any{
		"clock_in_at":    newIn,
		"notes":          entry.Notes,
		"exception_tags": entry.ExceptionTags,
		"needs_review":   entry.NeedsReview,
		"audit_log":      entry.AuditLog,
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if newOut != nil {
		updates["clock_out_at"] = *newOut
		updates["duration_minutes"] = int32(newOut.Sub(newIn) / time.Minute)
	}
	if result.RequiresReapproval {
		updates["approved"] = false
		updates["approved_by"] = nil
		updates["approved_at"] = nil
	}

	if err := db.Model(&model.TimeEntry{}).Where("entry_id = ?", entry.EntryID).Updates(updates).Error; err != nil {
		return nil, Wrap(err, "failed to update entry")
	}

	if err := e.Sink.Record(db, "time_entry", entry.EntryID, entry.CompanyID, claims.EmployeeID, now, req.EditReason, changes, req.Force); err != nil {
		return nil, err
	}
	if result.HasOverlap {
		e.Sink.Notify(ctx, db, entry.CompanyID, model.NotificationEntryReview, entry)
	}

	return result, nil
}
