package timeclock

import (
	"context"
	"time"

	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
)

const (
	// DefaultAutoCloseThreshold is how long a shift may stay open before
	// the sweep closes it.
	DefaultAutoCloseThreshold = 12 * time.Hour
	// DefaultWarnThreshold fires an admin warning before the close.
	DefaultWarnThreshold = 10 * time.Hour

	sweepBatchLimit = 500
)

// AuditAutoClockOut is the edit reason recorded on sweep-closed entries.
const AuditAutoClockOut = "AUTO_CLOCK_OUT"

type ClosedEntry struct {
	EntryID    string    `json:"entryId"`
	UserID     int32     `json:"userId"`
	CompanyID  int32     `json:"companyId"`
	ClockInAt  time.Time `json:"clockInAt"`
	ClockOutAt time.Time `json:"clockOutAt"`
}

// RunAutoCloseSweep closes entries left open beyond threshold. Each write
// is conditional on the shift still being open, so a manual clock-out
// landing between the query and the write simply wins and the sweep's
// write becomes a no-op.
func (e *Engine) RunAutoCloseSweep(ctx context.Context, db *gorm.DB, now time.Time, threshold time.Duration) ([]ClosedEntry, error) {
	cutoff := now.Add(-threshold)

	var stale []model.TimeEntry
	if err := db.Where("clock_out_at IS NULL AND clock_in_at < ?", cutoff).
		Order("clock_in_at").
		Limit(sweepBatchLimit).
		Find(&stale).Error; err != nil {
		return nil, Wrap(err, "failed to query stale entries")
	}

	var closed []ClosedEntry
	for i := range stale {
		entry := &stale[i]

		tags := model.StringSet{}
		if now.Sub(entry.ClockInAt) >= MaxShiftDuration {
			tags = tags.Add(model.TagExceeds24Hours)
		}
		ApplyTags(entry, tags)
		entry.NeedsReview = true

		entry.AuditLog = append(entry.AuditLog, model.EntryAudit{
			EditedBy:   SystemEditorID,
			EditedAt:   now,
			EditReason: AuditAutoClockOut,
			Changes: model.ChangeSet{
				"clockOutAt": {Before: nil, After: now},
			},
		})

		result := db.Model(&model.TimeEntry{}).
			Where("entry_id = ? AND clock_out_at IS NULL", entry.EntryID).
			Updates(map[string]any{
				"clock_out_at":     now,
				"auto_clock_out":   true,
				"duration_minutes": int32(now.Sub(entry.ClockInAt) / time.Minute),
				"exception_tags":   entry.ExceptionTags,
				"needs_review":     entry.NeedsReview,
				"audit_log":        entry.AuditLog,
			})
		if result.Error != nil {
			return closed, Wrap(result.Error, "failed to auto-close entry")
		}
		if result.RowsAffected == 0 {
			// Closed manually since the query ran.
			continue
		}

		if err := e.Sink.Record(db, "time_entry", entry.EntryID, entry.CompanyID, SystemEditorID, now, AuditAutoClockOut, nil, false); err != nil {
			return closed, err
		}
		item := ClosedEntry{
			EntryID:    entry.EntryID,
			UserID:     entry.UserID,
			CompanyID:  entry.CompanyID,
			ClockInAt:  entry.ClockInAt,
			ClockOutAt: now,
		}
		closed = append(closed, item)
		e.Sink.Notify(ctx, db, entry.CompanyID, model.NotificationAutoClockOut, item)
	}

	return closed, nil
}

// WarnLongShifts notifies admins about shifts open past warnThreshold but
// not yet old enough for the sweep. No entry state changes beyond the
// once-only guard flag.
func (e *Engine) WarnLongShifts(ctx context.Context, db *gorm.DB, now time.Time, warnThreshold, closeThreshold time.Duration) (int, error) {
	warnCutoff := now.Add(-warnThreshold)
	closeCutoff := now.Add(-closeThreshold)

	var open []model.TimeEntry
	if err := db.Where("clock_out_at IS NULL AND long_shift_warned = ? AND clock_in_at < ? AND clock_in_at >= ?",
		false, warnCutoff, closeCutoff).
		Limit(sweepBatchLimit).
		Find(&open).Error; err != nil {
		return 0, Wrap(err, "failed to query long shifts")
	}

	warned := 0
	for i := range open {
		entry := &open[i]
		result := db.Model(&model.TimeEntry{}).
			Where("entry_id = ? AND clock_out_at IS NULL AND long_shift_warned = ?", entry.EntryID, false).
			Update("long_shift_warned", true)
		if result.Error != nil {
			return warned, Wrap(result.Error, "failed to mark warned")
		}
		if result.RowsAffected == 0 {
			continue
		}
		warned++
		e.Sink.Notify(ctx, db, entry.CompanyID, model.NotificationLongShift, map[string]any{
			"entryId":   entry.EntryID,
			"userId":    entry.UserID,
			"clockInAt": entry.ClockInAt,
			"openFor":   now.Sub(entry.ClockInAt).String(),
		})
	}

	return warned, nil
}
