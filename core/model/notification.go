package model

import "time"

// Notification types emitted by the review pipeline.
const (
	NotificationEntryReview     = "time_entry_review"
	NotificationLongShift       = "long_shift_warning"
	NotificationAutoClockOut    = "auto_clock_out"
	NotificationRetentionReport = "retention_report"
)

// AdminNotification is an ephemeral admin-facing document. Rows older than
// 30 days are removed by the retention sweeper.
type AdminNotification struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	CompanyID int32     `gorm:"column:company_id;not null;index"`
	Type      string    `gorm:"column:type;type:varchar(40);not null"`
	Payload   string    `gorm:"column:payload;type:json"`
	Read      bool      `gorm:"column:read;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (AdminNotification) TableName() string {
	return "admin_notifications"
}
