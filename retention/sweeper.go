package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// BatchLimit caps each run per table to bound load on the shared store.
const BatchLimit = 500

// Policy describes the retention rule for one table. Time entries and
// invoices are deliberately absent: they follow a longer policy owned by
// the payroll side and are never swept here.
type Policy struct {
	Table        string
	PKColumn     string
	CutoffColumn string
	MaxAge       time.Duration
	// Exclude narrows the deletion predicate, e.g. accepted estimates
	// are kept forever.
	Exclude func(q *gorm.DB) *gorm.DB
}

const day = 24 * time.Hour

// DefaultPolicies is the production retention schedule.
var DefaultPolicies = []Policy{
	{
		Table:        "estimates",
		PKColumn:     "estimate_id",
		CutoffColumn: "created_at",
		MaxAge:       3 * 365 * day,
		Exclude: func(q *gorm.DB) *gorm.DB {
			return q.Where("accepted = ?", false)
		},
	},
	{
		Table:        "job_assignments",
		PKColumn:     "assignment_id",
		CutoffColumn: "updated_at",
		MaxAge:       2 * 365 * day,
		Exclude: func(q *gorm.DB) *gorm.DB {
			return q.Where("active = ?", false)
		},
	},
	{
		Table:        "audit_records",
		PKColumn:     "id",
		CutoffColumn: "edited_at",
		MaxAge:       365 * day,
	},
	{
		Table:        "sync_probes",
		PKColumn:     "probe_id",
		CutoffColumn: "created_at",
		MaxAge:       30 * day,
	},
	{
		Table:        "admin_notifications",
		PKColumn:     "id",
		CutoffColumn: "created_at",
		MaxAge:       30 * day,
	},
}

// Archiver stores rows about to be destroyed. Optional.
type Archiver interface {
	Archive(ctx context.Context, table string, batch []byte) error
}

type Sweeper struct {
	Policies []Policy
	Archiver Archiver
	Now      func() time.Time
}

func NewSweeper() *Sweeper {
	return &Sweeper{Policies: DefaultPolicies, Now: time.Now}
}

type RunOptions struct {
	// DryRun reports what would be deleted without deleting. Callers
	// must explicitly disable it for a destructive run.
	DryRun bool
	// Collections limits the run to a subset of governed tables; empty
	// means all.
	Collections []string
}

type Result struct {
	Collection   string    `json:"collection"`
	DeletedCount int       `json:"deletedCount"`
	CutoffDate   time.Time `json:"cutoffDate"`
	Duration     string    `json:"duration"`
}

type Report struct {
	Ok           bool     `json:"ok"`
	DryRun       bool     `json:"dryRun"`
	TotalDeleted int      `json:"totalDeleted"`
	Results      []Result `json:"results"`
}

// Run executes one sweep. Each table is processed independently; a
// failure aborts the run with the partial report so the hosting platform
// can alert and retry.
func (s *Sweeper) Run(ctx context.Context, db *gorm.DB, opts RunOptions) (*Report, error) {
	now := s.Now()
	report := &Report{Ok: true, DryRun: opts.DryRun}

	for _, policy := range s.Policies {
		if len(opts.Collections) > 0 && !contains(opts.Collections, policy.Table) {
			continue
		}

		started := time.Now()
		cutoff := now.Add(-policy.MaxAge)
		deleted, err := s.sweepTable(ctx, db, policy, cutoff, opts.DryRun)
		if err != nil {
			report.Ok = false
			return report, fmt.Errorf("sweep %s: %w", policy.Table, err)
		}

		report.TotalDeleted += deleted
		report.Results = append(report.Results, Result{
			Collection:   policy.Table,
			DeletedCount: deleted,
			CutoffDate:   cutoff,
			Duration:     time.Since(started).String(),
		})
		log.Printf("[INFO] retention: %s cutoff=%s deleted=%d dryRun=%v",
			policy.Table, cutoff.Format(time.RFC3339), deleted, opts.DryRun)
	}

	return report, nil
}

func (s *Sweeper) sweepTable(ctx context.Context, db *gorm.DB, policy Policy, cutoff time.Time, dryRun bool) (int, error) {
	q := db.WithContext(ctx).Table(policy.Table).
		Where(fmt.Sprintf("%s < ?", policy.CutoffColumn), cutoff)
	if policy.Exclude != nil {
		q = policy.Exclude(q)
	}

	var ids []int64
	if err := q.Limit(BatchLimit).Order(policy.PKColumn).Pluck(policy.PKColumn, &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to query expired rows: %w", err)
	}
	if len(ids) == 0 || dryRun {
		return len(ids), nil
	}

	if s.Archiver != nil {
		if err := s.archiveRows(ctx, db, policy, ids); err != nil {
			return 0, err
		}
	}

	result := db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE %s IN ?", policy.Table, policy.PKColumn), ids)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete batch: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *Sweeper) archiveRows(ctx context.Context, db *gorm.DB, policy Policy, ids []int64) error {
	var rows []map[string]any
	if err := db.WithContext(ctx).Table(policy.Table).
		Where(fmt.Sprintf("%s IN ?", policy.PKColumn), ids).
		Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load rows for archive: %w", err)
	}
	batch, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal archive batch: %w", err)
	}
	if err := s.Archiver.Archive(ctx, policy.Table, batch); err != nil {
		return fmt.Errorf("failed to archive batch: %w", err)
	}
	return nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
