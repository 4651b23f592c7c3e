package model

import "time"

// Estimate is governed by the retention sweep: unconverted estimates are
// deleted three years after creation. Accepted estimates are kept.
type Estimate struct {
	EstimateID int32     `gorm:"primaryKey;autoIncrement;column:estimate_id"`
	CompanyID  int32     `gorm:"column:company_id;not null;index"`
	JobID      *int32    `gorm:"column:job_id"`
	Total      float64   `gorm:"column:total;type:decimal(12,2)"`
	Accepted   bool      `gorm:"column:accepted;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (Estimate) TableName() string {
	return "estimates"
}

// SyncProbe records one client sync attempt (device heartbeat and backup
// metadata). Ephemeral; swept after 30 days.
type SyncProbe struct {
	ProbeID       int64     `gorm:"primaryKey;autoIncrement;column:probe_id"`
	CompanyID     int32     `gorm:"column:company_id;not null"`
	DeviceID      string    `gorm:"column:device_id;type:varchar(64)"`
	CorrelationID string    `gorm:"column:correlation_id;type:varchar(36)"`
	QueueDepth    int32     `gorm:"column:queue_depth"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (SyncProbe) TableName() string {
	return "sync_probes"
}
