package timeclock

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
)

// Store lookups. All take an injected *gorm.DB so tests can run against an
// embedded database.

func FindEntryByID(db *gorm.DB, companyID int32, entryID string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := db.Where("company_id = ? AND entry_id = ?", companyID, entryID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func FindEntryByClientEvent(db *gorm.DB, companyID int32, clientEventID string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := db.Where("company_id = ? AND client_event_id = ?", companyID, clientEventID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func FindEntryByCloseEvent(db *gorm.DB, companyID int32, closeEventID string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := db.Where("company_id = ? AND close_event_id = ?", companyID, closeEventID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindOpenEntry returns the newest open entry for a worker on a job.
func FindOpenEntry(db *gorm.DB, companyID, userID, jobID int32) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := db.Where("company_id = ? AND user_id = ? AND job_id = ? AND clock_out_at IS NULL", companyID, userID, jobID).
		Order("clock_in_at DESC").
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func FindJob(db *gorm.DB, jobID int32) (*model.Job, error) {
	var job model.Job
	err := db.Where("job_id = ?", jobID).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindAssignment returns the worker's assignment for a job, active or not.
func FindAssignment(db *gorm.DB, companyID, employeeID, jobID int32) (*model.JobAssignment, error) {
	var assignment model.JobAssignment
	err := db.Where("company_id = ? AND employee_id = ? AND job_id = ?", companyID, employeeID, jobID).
		Order("starts_at DESC").
		Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindOverlapping returns sibling entries for the same worker whose window
// intersects [in, out). A nil out treats the candidate as the instant of
// clock-in, so an open shift still collides with any window containing it.
func FindOverlapping(db *gorm.DB, companyID, userID int32, in time.Time, out *time.Time, excludeEntryID string) ([]model.TimeEntry, error) {
	q := db.Where("company_id = ? AND user_id = ?", companyID, userID)
	if excludeEntryID != "" {
		q = q.Where("entry_id <> ?", excludeEntryID)
	}

	if out != nil {
		q = q.Where("clock_in_at < ?", *out)
	}
	q = q.Where("(clock_out_at IS NULL OR clock_out_at > ?)", in)
	if out == nil {
		q = q.Where("clock_in_at <= ?", in)
	}

	var siblings []model.TimeEntry
	if err := q.Find(&siblings).Error; err != nil {
		return nil, err
	}
	return siblings, nil
}
