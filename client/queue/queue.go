package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	OpClockIn  = "clock-in"
	OpClockOut = "clock-out"
	OpEdit     = "edit"

	// MaxAttempts bounds how often a transient failure is replayed
	// across drains before the item is parked for inspection.
	MaxAttempts = 10
)

// Item is one queued operation. Payload is the exact JSON the device
// will submit; the clientEventId inside it is what makes server-side
// replay safe.
type Item struct {
	ID            int64      `gorm:"primaryKey;autoIncrement;column:id"`
	OperationType string     `gorm:"column:operation_type;type:varchar(32);not null"`
	TargetID      string     `gorm:"column:target_id;type:varchar(64)"`
	Payload       string     `gorm:"column:payload;type:text;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
	RetryCount    int        `gorm:"column:retry_count;not null"`
	LastError     string     `gorm:"column:last_error;type:text"`
	Dead          bool       `gorm:"column:dead;not null"`
}

func (Item) TableName() string {
	return "queue_items"
}

// Sender submits one drained operation to the server. A nil error marks
// the item processed; *client.ApiError with Retryable()==false (or any
// error implementing Terminal) marks it dead.
type Sender interface {
	Send(ctx context.Context, item *Item) error
}

type SenderFunc func(ctx context.Context, item *Item) error

func (f SenderFunc) Send(ctx context.Context, item *Item) error {
	return f(ctx, item)
}

type retryable interface {
	Retryable() bool
}

// Queue is the durable outbound operation log, stored in a local sqlite
// file so clock events survive restarts and connectivity loss.
type Queue struct {
	db *gorm.DB

	// inflight prevents the same item being drained twice concurrently
	// when a manual sync overlaps the scheduled one.
	mu       sync.Mutex
	inflight map[int64]bool
}

func Open(path string) (*Queue, error) {
	// WAL keeps the enqueue fast-path from blocking on a concurrent drain.
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open queue db: %w", err)
	}
	if err := db.AutoMigrate(&Item{}); err != nil {
		return nil, fmt.Errorf("failed to migrate queue db: %w", err)
	}
	return &Queue{db: db, inflight: make(map[int64]bool)}, nil
}

// Enqueue persists one operation. Payload must carry its own
// clientEventId; the queue never invents identity.
func (q *Queue) Enqueue(operationType, targetID string, payload any) (*Item, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	item := Item{
		OperationType: operationType,
		TargetID:      targetID,
		Payload:       string(body),
	}
	if err := q.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue: %w", err)
	}
	return &item, nil
}

// Pending counts items still waiting to be submitted.
func (q *Queue) Pending() (int64, error) {
	var count int64
	err := q.db.Model(&Item{}).
		Where("processed_at IS NULL AND dead = ?", false).
		Count(&count).Error
	return count, err
}

// Dead returns parked items that exhausted their attempts or hit a
// permanent rejection.
func (q *Queue) Dead() ([]Item, error) {
	var items []Item
	err := q.db.Where("dead = ?", true).Order("id").Find(&items).Error
	return items, err
}

type DrainStats struct {
	Sent   int
	Failed int
	Parked int
}

// Drain submits pending items oldest first. A transient failure stops
// the drain so ordering is preserved for the next attempt; a permanent
// rejection parks the item and moves on.
func (q *Queue) Drain(ctx context.Context, sender Sender) (*DrainStats, error) {
	var items []Item
	if err := q.db.Where("processed_at IS NULL AND dead = ?", false).
		Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load pending items: %w", err)
	}

	stats := &DrainStats{}
	for i := range items {
		item := &items[i]
		if !q.claim(item.ID) {
			continue
		}

		err := sender.Send(ctx, item)
		q.release(item.ID)

		if err == nil {
			now := time.Now()
			if updErr := q.db.Model(&Item{}).Where("id = ?", item.ID).
				Updates(map[string]any{"processed_at": now, "last_error": ""}).Error; updErr != nil {
				return stats, fmt.Errorf("failed to mark item %d processed: %w", item.ID, updErr)
			}
			stats.Sent++
			continue
		}

		item.RetryCount++
		permanent := false
		if r, ok := err.(retryable); ok && !r.Retryable() {
			permanent = true
		}
		if item.RetryCount >= MaxAttempts {
			permanent = true
		}

		updates := map[string]any{
			"retry_count": item.RetryCount,
			"last_error":  err.Error(),
			"dead":        permanent,
		}
		if updErr := q.db.Model(&Item{}).Where("id = ?", item.ID).
			Updates(updates).Error; updErr != nil {
			return stats, fmt.Errorf("failed to record item %d failure: %w", item.ID, updErr)
		}

		if permanent {
			log.Printf("[WARN] queue: parked item %d (%s) after %d attempts: %v",
				item.ID, item.OperationType, item.RetryCount, err)
			stats.Parked++
			continue
		}

		// Transient: keep FIFO order, stop here and let the next drain
		// resume from this item.
		stats.Failed++
		return stats, nil
	}

	return stats, nil
}

func (q *Queue) claim(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight[id] {
		return false
	}
	q.inflight[id] = true
	return true
}

func (q *Queue) release(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, id)
}
