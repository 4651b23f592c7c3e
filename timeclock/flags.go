package timeclock

import (
	"time"

	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
)

// MaxShiftDuration is the hard ceiling on a single shift.
const MaxShiftDuration = 24 * time.Hour

// CreationTags evaluates the trust signals of a fresh entry. Tags never
// block ingestion; they feed needsReview and the admin queue.
func CreationTags(entry *model.TimeEntry, check GeofenceCheck, now time.Time) model.StringSet {
	tags := model.StringSet{}

	if entry.Origin == model.OriginOffline {
		tags = tags.Add(model.TagOfflineOrigin)
	}
	if !check.Valid && !check.GpsMissing {
		tags = tags.Add(model.TagGeofenceClockIn)
	}
	if check.GpsMissing {
		tags = tags.Add(model.TagGpsMissing)
	}
	if now.Sub(entry.ClockInAt) >= MaxShiftDuration {
		tags = tags.Add(model.TagExceeds24Hours)
	}

	return tags
}

// HasOverlap reports whether any sibling shift for the same worker
// intersects the candidate window.
func HasOverlap(db *gorm.DB, companyID, userID int32, in time.Time, out *time.Time, excludeEntryID string) (bool, error) {
	siblings, err := FindOverlapping(db, companyID, userID, in, out, excludeEntryID)
	if err != nil {
		return false, err
	}
	return len(siblings) > 0, nil
}

// ApplyTags merges tags into the entry and recomputes needsReview. Returns
// true if anything changed.
func ApplyTags(entry *model.TimeEntry, tags model.StringSet) bool {
	changed := false
	for _, tag := range tags {
		if !entry.ExceptionTags.Contains(tag) {
			entry.ExceptionTags = entry.ExceptionTags.Add(tag)
			changed = true
		}
	}
	if len(entry.ExceptionTags) > 0 && !entry.NeedsReview {
		entry.NeedsReview = true
		changed = true
	}
	return changed
}
