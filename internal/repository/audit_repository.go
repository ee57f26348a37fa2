package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

// AuditRepository appends auto clock-out decision rows. Write-once.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository builds the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert appends one audit entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AutoClockoutAudit) error {
	query := `INSERT INTO auto_clockout_audit
(id, worker_id, shift_date, reason, performed, decided_by, notes, decided_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.WorkerID,
		entry.ShiftDate,
		entry.Reason,
		entry.Performed,
		entry.DecidedBy,
		entry.Notes,
		entry.DecidedAt,
	); err != nil {
		return fmt.Errorf("insert auto clock-out audit: %w", err)
	}
	return nil
}
