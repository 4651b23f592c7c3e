package model

import "time"

// AuditRecord is the long-retention copy of every mutation. The same data
// is embedded in the owning entity's audit_log column; this table survives
// even if the entity itself is later deleted by policy.
type AuditRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id"`
	EntityType string    `gorm:"column:entity_type;type:varchar(40);not null;index:idx_entity,priority:1"`
	EntityID   string    `gorm:"column:entity_id;type:varchar(36);not null;index:idx_entity,priority:2"`
	CompanyID  int32     `gorm:"column:company_id;not null"`
	EditedBy   int32     `gorm:"column:edited_by;not null"`
	EditedAt   time.Time `gorm:"column:edited_at;not null;index"`
	EditReason string    `gorm:"column:edit_reason;type:varchar(500)"`
	Changes    ChangeSet `gorm:"column:changes;type:json"`
	ForceEdit  bool      `gorm:"column:force_edit;not null"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
