package model

import "time"

// Employee roles. Managers can edit entries; only admins may force-edit
// frozen entries or trigger destructive cleanup.
const (
	RoleWorker  = "worker"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type Employee struct {
	EmployeeID int32     `gorm:"primaryKey;column:employee_id"`
	CompanyID  int32     `gorm:"column:company_id;not null;index"`
	Code       string    `gorm:"column:code;type:varchar(20)"`
	FirstName  string    `gorm:"column:first_name;type:varchar(60)"`
	Surname    string    `gorm:"column:surname;type:varchar(60)"`
	Email      string    `gorm:"column:email;type:varchar(120)"`
	Role       string    `gorm:"column:role;type:varchar(10);not null;default:worker"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Employee) TableName() string {
	return "employees"
}

// Job is a work site. Site coordinates and radius define the geofence for
// clock actions against this job.
type Job struct {
	JobID       int32    `gorm:"primaryKey;column:job_id"`
	CompanyID   int32    `gorm:"column:company_id;not null;index"`
	JobNo       string   `gorm:"column:job_no;type:varchar(20)"`
	Description string   `gorm:"column:description;type:varchar(200)"`
	SiteLat     *float64 `gorm:"column:site_lat"`
	SiteLng     *float64 `gorm:"column:site_lng"`
	SiteRadiusM float64  `gorm:"column:site_radius_m;not null;default:150"`
	Active      bool     `gorm:"column:active;not null;default:true"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobAssignment links a worker to a job for a date window. Clock-ins are
// only accepted inside an active assignment window.
type JobAssignment struct {
	AssignmentID int32      `gorm:"primaryKey;autoIncrement;column:assignment_id"`
	CompanyID    int32      `gorm:"column:company_id;not null"`
	EmployeeID   int32      `gorm:"column:employee_id;not null;index:idx_assignment_emp_job,priority:1"`
	JobID        int32      `gorm:"column:job_id;not null;index:idx_assignment_emp_job,priority:2"`
	StartsAt     time.Time  `gorm:"column:starts_at;not null"`
	EndsAt       *time.Time `gorm:"column:ends_at"`
	Active       bool       `gorm:"column:active;not null;default:true"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (JobAssignment) TableName() string {
	return "job_assignments"
}

// ActiveAt reports whether the assignment window covers ts.
func (a *JobAssignment) ActiveAt(ts time.Time) bool {
	if !a.Active || ts.Before(a.StartsAt) {
		return false
	}
	return a.EndsAt == nil || ts.Before(*a.EndsAt)
}
