package timeclock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
	"sitecrew.com.au/sitecrew/utils"
)

// Mailer sends the admin review email. Optional; a nil Mailer disables
// email without touching the notification rows.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Sink appends audit records and produces admin-facing notifications.
// Audit writes are mandatory and propagate errors; notifications are
// best-effort and never fail the mutation they accompany.
type Sink struct {
	Mailer Mailer
}

// Record writes one mutation to the long-retention audit table. Callers
// that own an entity audit array append the same EntryAudit there
// themselves, inside the same save.
func (s *Sink) Record(db *gorm.DB, entityType, entityID string, companyID, editedBy int32, editedAt time.Time, reason string, changes model.ChangeSet, forceEdit bool) error {
	record := model.AuditRecord{
		EntityType: entityType,
		EntityID:   entityID,
		CompanyID:  companyID,
		EditedBy:   editedBy,
		EditedAt:   editedAt,
		EditReason: reason,
		Changes:    changes,
		ForceEdit:  forceEdit,
	}
	if err := db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Notify creates a 30-day notification row for the company's admins and,
// when a mailer is configured, emails them. Failures are logged and
// swallowed: the state transition this accompanies has already committed.
func (s *Sink) Notify(ctx context.Context, db *gorm.DB, companyID int32, notificationType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WARN] notify %s: failed to marshal payload: %v", notificationType, err)
		return
	}

	notification := model.AdminNotification{
		CompanyID: companyID,
		Type:      notificationType,
		Payload:   string(body),
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("[WARN] notify %s: failed to create notification: %v", notificationType, err)
		return
	}

	if s.Mailer == nil {
		return
	}

	var admins []model.Employee
	if err := db.Where("company_id = ? AND role = ? AND active = ? AND email <> ''", companyID, model.RoleAdmin, true).
		Find(&admins).Error; err != nil {
		log.Printf("[WARN] notify %s: failed to load admins: %v", notificationType, err)
		return
	}
	if len(admins) == 0 {
		return
	}

	to := utils.Map(admins, func(e model.Employee) string { return e.Email })
	subject := fmt.Sprintf("SiteCrew review required: %s", notificationType)
	if err := s.Mailer.Send(ctx, to, subject, string(body)); err != nil {
		log.Printf("[WARN] notify %s: failed to send email: %v", notificationType, err)
	}
}
