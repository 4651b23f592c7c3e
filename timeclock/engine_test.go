package timeclock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitecrew.com.au/sitecrew/core/model"
	"sitecrew.com.au/sitecrew/utils"
)

var clockIn9 = time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)

func TestCreateEntry(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(time.Minute))

	res, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
		DeviceID:      "device-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.EntryID)
	assert.False(t, res.Duplicate)

	entry, err := FindEntryByID(db, testCompanyID, res.EntryID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.ClockInGeofenceValid)
	assert.False(t, entry.GpsMissing)
	assert.Equal(t, model.OriginOnline, entry.Origin)
	assert.Equal(t, model.StatusActive, entry.Status)
	assert.False(t, entry.NeedsReview)
	assert.Empty(t, entry.ExceptionTags)
	assert.Nil(t, entry.ClockOutAt)
}

func TestCreateEntryIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(time.Minute))

	req := CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	}

	first, err := engine.CreateEntry(context.Background(), db, workerClaims(), req)
	require.NoError(t, err)

	// Same payload five seconds later, simulating a dropped ack.
	retry, err := engine.CreateEntry(context.Background(), db, workerClaims(), req)
	require.NoError(t, err)
	assert.Equal(t, first.EntryID, retry.EntryID)
	assert.True(t, retry.Duplicate)
	assert.EqualValues(t, 1, countEntries(t, db))

	entry, err := FindEntryByID(db, testCompanyID, first.EntryID)
	require.NoError(t, err)
	assert.True(t, entry.ExceptionTags.Contains(model.TagDuplicateEntry))
	assert.Equal(t, model.StatusFlagged, entry.Status)
	assert.True(t, entry.NeedsReview)
	assert.EqualValues(t, 1, countNotifications(t, db, model.NotificationEntryReview))

	// A third replay keeps the flag but does not re-notify.
	_, err = engine.CreateEntry(context.Background(), db, workerClaims(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countNotifications(t, db, model.NotificationEntryReview))
}

func TestCreateEntryErrors(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9)

	valid := CreateRequest{JobID: testJobID, ClockInAt: clockIn9, ClientEventID: "evt"}

	tests := []struct {
		name   string
		claims *Claims
		mutate func(*CreateRequest)
		kind   ErrorKind
	}{
		{
			name: "no session",
			kind: KindUnauthenticated,
		},
		{
			name:   "missing client event id",
			claims: workerClaims(),
			mutate: func(r *CreateRequest) { r.ClientEventID = "" },
			kind:   KindInvalidArgument,
		},
		{
			name:   "bad origin",
			claims: workerClaims(),
			mutate: func(r *CreateRequest) { r.Origin = "carrier-pigeon" },
			kind:   KindInvalidArgument,
		},
		{
			name:   "unknown job",
			claims: workerClaims(),
			mutate: func(r *CreateRequest) { r.JobID = 12345 },
			kind:   KindNotFound,
		},
		{
			name:   "job in another company",
			claims: workerClaims(),
			mutate: func(r *CreateRequest) { r.JobID = otherJobID },
			kind:   KindPermissionDenied,
		},
		{
			name:   "no assignment",
			claims: managerClaims(),
			kind:   KindFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := engine.CreateEntry(context.Background(), db, tt.claims, req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	assert.EqualValues(t, 0, countEntries(t, db))
}

func TestCreateEntryTrustSignals(t *testing.T) {
	tests := []struct {
		name   string
		geo    *Coordinate
		origin string
		tags   []string
	}{
		{
			name:   "offline origin",
			geo:    &nearSite,
			origin: model.OriginOffline,
			tags:   []string{model.TagOfflineOrigin},
		},
		{
			name: "outside geofence",
			geo:  &farFromSite,
			tags: []string{model.TagGeofenceClockIn},
		},
		{
			name: "no gps fix",
			geo:  nil,
			tags: []string{model.TagGpsMissing},
		},
		{
			name:   "offline and out of fence",
			geo:    &farFromSite,
			origin: model.OriginOffline,
			tags:   []string{model.TagOfflineOrigin, model.TagGeofenceClockIn},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			seedCompany(t, db)
			engine := newTestEngine(clockIn9.Add(time.Minute))

			res, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
				JobID:         testJobID,
				ClockInAt:     clockIn9,
				Geo:           tt.geo,
				ClientEventID: "evt-" + tt.name,
				Origin:        tt.origin,
			})
			require.NoError(t, err)

			entry, err := FindEntryByID(db, testCompanyID, res.EntryID)
			require.NoError(t, err)
			for _, tag := range tt.tags {
				assert.True(t, entry.ExceptionTags.Contains(tag), "expected tag %s", tag)
			}
			assert.True(t, entry.NeedsReview)
			assert.EqualValues(t, 1, countNotifications(t, db, model.NotificationEntryReview))
		})
	}
}

func TestCloseEntry(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(8 * time.Hour))

	created, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	})
	require.NoError(t, err)

	out := clockIn9.Add(8*time.Hour + 30*time.Minute) // 17:30
	closed, err := engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
		JobID:         testJobID,
		ClockOutAt:    out,
		Geo:           &nearSite,
		ClientEventID: "abc-close",
	})
	require.NoError(t, err)
	assert.Equal(t, created.EntryID, closed.EntryID)
	assert.False(t, closed.Duplicate)

	entry, err := FindEntryByID(db, testCompanyID, created.EntryID)
	require.NoError(t, err)
	require.NotNil(t, entry.ClockOutAt)
	assert.True(t, out.Equal(*entry.ClockOutAt))
	require.NotNil(t, entry.DurationMinutes)
	assert.EqualValues(t, 510, *entry.DurationMinutes)
	assert.True(t, entry.ClockOutGeofenceValid)
	assert.False(t, entry.NeedsReview)

	// Retrying the same close event is a soft success.
	retry, err := engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
		JobID:         testJobID,
		ClockOutAt:    out,
		Geo:           &nearSite,
		ClientEventID: "abc-close",
	})
	require.NoError(t, err)
	assert.Equal(t, created.EntryID, retry.EntryID)
	assert.True(t, retry.Duplicate)

	// A fresh close against the now-closed shift is a precondition error.
	_, err = engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
		JobID:         testJobID,
		ClockOutAt:    out.Add(time.Hour),
		ClientEventID: "another-close",
	})
	require.Error(t, err)
	assert.Equal(t, KindFailedPrecondition, KindOf(err))
}

func TestCloseEntryValidation(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(time.Hour))

	_, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		out  time.Time
		kind ErrorKind
	}{
		{
			name: "clock-out before clock-in",
			out:  clockIn9.Add(-time.Minute),
			kind: KindFailedPrecondition,
		},
		{
			name: "clock-out equal to clock-in",
			out:  clockIn9,
			kind: KindFailedPrecondition,
		},
		{
			name: "over 24 hours",
			out:  clockIn9.Add(25 * time.Hour),
			kind: KindFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
				JobID:         testJobID,
				ClockOutAt:    tt.out,
				ClientEventID: "close-" + tt.name,
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestCloseEntryGeofenceTags(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(9 * time.Hour))

	res, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	})
	require.NoError(t, err)

	_, err = engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
		JobID:         testJobID,
		ClockOutAt:    clockIn9.Add(8 * time.Hour),
		Geo:           &farFromSite,
		ClientEventID: "abc-close",
	})
	require.NoError(t, err)

	entry, err := FindEntryByID(db, testCompanyID, res.EntryID)
	require.NoError(t, err)
	assert.False(t, entry.ClockOutGeofenceValid)
	assert.True(t, entry.ExceptionTags.Contains(model.TagGeofenceClockOut))
	assert.True(t, entry.NeedsReview)
}

func TestOverlapTaggingIsNonBlocking(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(time.Hour))

	// First shift 09:00-17:00, closed.
	first, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "first",
	})
	require.NoError(t, err)
	_, err = engine.CloseEntry(context.Background(), db, workerClaims(), CloseRequest{
		JobID:         testJobID,
		ClockOutAt:    clockIn9.Add(8 * time.Hour),
		Geo:           &nearSite,
		ClientEventID: "first-close",
	})
	require.NoError(t, err)

	// Second shift clocks in at 16:00, inside the first window. Both
	// entries exist; the second is tagged, not rejected.
	second, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9.Add(7 * time.Hour),
		Geo:           &nearSite,
		ClientEventID: "second",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, countEntries(t, db))

	entry, err := FindEntryByID(db, testCompanyID, second.EntryID)
	require.NoError(t, err)
	assert.True(t, entry.ExceptionTags.Contains(model.TagOverlap))
	assert.True(t, entry.NeedsReview)

	firstEntry, err := FindEntryByID(db, testCompanyID, first.EntryID)
	require.NoError(t, err)
	assert.False(t, firstEntry.ExceptionTags.Contains(model.TagOverlap))
}

func TestCreateEntryAuditRecorded(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9)

	res, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	})
	require.NoError(t, err)

	var records []model.AuditRecord
	require.NoError(t, db.Where("entity_id = ?", res.EntryID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "CLOCK_IN", records[0].EditReason)
	assert.Equal(t, "time_entry", records[0].EntityType)
	assert.EqualValues(t, workerID, records[0].EditedBy)
	assert.False(t, records[0].ForceEdit)
}

func TestOpenShiftCollidesWithOpenSibling(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(time.Hour))

	_, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "first",
	})
	require.NoError(t, err)

	second, err := engine.CreateEntry(context.Background(), db, workerClaims(), CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9.Add(30 * time.Minute),
		Geo:           &nearSite,
		ClientEventID: "second",
	})
	require.NoError(t, err)

	entry, err := FindEntryByID(db, testCompanyID, second.EntryID)
	require.NoError(t, err)
	assert.True(t, entry.ExceptionTags.Contains(model.TagOverlap))
}

func TestWorkedScenario(t *testing.T) {
	// Worker clocks in at 09:00 with valid geofence, retries the call,
	// then an admin sets clock-out to 17:30.
	db := newTestDB(t)
	seedCompany(t, db)
	engine := newTestEngine(clockIn9.Add(5 * time.Second))

	req := CreateRequest{
		JobID:         testJobID,
		ClockInAt:     clockIn9,
		Geo:           &nearSite,
		ClientEventID: "abc",
	}
	first, err := engine.CreateEntry(context.Background(), db, workerClaims(), req)
	require.NoError(t, err)
	retry, err := engine.CreateEntry(context.Background(), db, workerClaims(), req)
	require.NoError(t, err)
	assert.Equal(t, first.EntryID, retry.EntryID)
	assert.EqualValues(t, 1, countEntries(t, db))

	res, err := engine.EditEntry(context.Background(), db, adminClaims(), EditRequest{
		TimeEntryID: first.EntryID,
		EditReason:  "correction",
		ClockOutAt:  utils.Ptr(clockIn9.Add(8*time.Hour + 30*time.Minute)),
	})
	require.NoError(t, err)
	assert.True(t, res.Ok)
	assert.False(t, res.HasOverlap)
	assert.False(t, res.RequiresReapproval)

	entry, err := FindEntryByID(db, testCompanyID, first.EntryID)
	require.NoError(t, err)
	require.NotNil(t, entry.DurationMinutes)
	assert.EqualValues(t, 510, *entry.DurationMinutes)
}
