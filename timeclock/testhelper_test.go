package timeclock

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"sitecrew.com.au/sitecrew/core/model"
	"sitecrew.com.au/sitecrew/utils"
)

const (
	testCompanyID = int32(1)
	otherCompany  = int32(2)
	workerID      = int32(100)
	managerID     = int32(200)
	adminID       = int32(300)
	testJobID     = int32(10)
	otherJobID    = int32(99)
)

// Site fence for the test job: Brisbane CBD, 150m radius.
var (
	siteCoord   = Coordinate{Lat: -27.4698, Lng: 153.0251}
	nearSite    = Coordinate{Lat: -27.4699, Lng: 153.0252}
	farFromSite = Coordinate{Lat: -27.5200, Lng: 153.1000}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.TimeEntry{},
		&model.AuditRecord{},
		&model.AdminNotification{},
		&model.Employee{},
		&model.Job{},
		&model.JobAssignment{},
		&model.Estimate{},
		&model.SyncProbe{},
	))
	return db
}

func seedCompany(t *testing.T, db *gorm.DB) {
	t.Helper()
	employees := []model.Employee{
		{EmployeeID: workerID, CompanyID: testCompanyID, Code: "W100", Role: model.RoleWorker, Active: true},
		{EmployeeID: managerID, CompanyID: testCompanyID, Code: "M200", Role: model.RoleManager, Active: true},
		{EmployeeID: adminID, CompanyID: testCompanyID, Code: "A300", Role: model.RoleAdmin, Email: "admin@example.com", Active: true},
	}
	require.NoError(t, db.Create(&employees).Error)

	jobs := []model.Job{
		{JobID: testJobID, CompanyID: testCompanyID, JobNo: "J-10", SiteLat: utils.Ptr(siteCoord.Lat), SiteLng: utils.Ptr(siteCoord.Lng), SiteRadiusM: 150, Active: true},
		{JobID: otherJobID, CompanyID: otherCompany, JobNo: "X-99", SiteRadiusM: 150, Active: true},
	}
	require.NoError(t, db.Create(&jobs).Error)

	assignment := model.JobAssignment{
		CompanyID:  testCompanyID,
		EmployeeID: workerID,
		JobID:      testJobID,
		StartsAt:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
	require.NoError(t, db.Create(&assignment).Error)
}

func workerClaims() *Claims {
	return &Claims{EmployeeID: workerID, CompanyID: testCompanyID, Role: model.RoleWorker, DeviceID: "device-1"}
}

func managerClaims() *Claims {
	return &Claims{EmployeeID: managerID, CompanyID: testCompanyID, Role: model.RoleManager}
}

func adminClaims() *Claims {
	return &Claims{EmployeeID: adminID, CompanyID: testCompanyID, Role: model.RoleAdmin}
}

// newTestEngine pins the engine clock so sweep behaviour is reproducible.
func newTestEngine(now time.Time) *Engine {
	e := NewEngine(&Sink{})
	e.Now = func() time.Time { return now }
	return e
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.TimeEntry{}).Count(&n).Error)
	return n
}

func countNotifications(t *testing.T, db *gorm.DB, typ string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.AdminNotification{}).Where("type = ?", typ).Count(&n).Error)
	return n
}
