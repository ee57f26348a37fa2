package models

import "time"

// AutoClockoutAudit is one write-once row per automatic clock-out decision.
type AutoClockoutAudit struct {
	ID        string    `db:"id" json:"id"`
	WorkerID  string    `db:"worker_id" json:"worker_id"`
	ShiftDate time.Time `db:"shift_date" json:"shift_date"`
	Reason    string    `db:"reason" json:"reason"`
	Performed bool      `db:"performed" json:"performed"`
	DecidedBy string    `db:"decided_by" json:"decided_by"`
	Notes     string    `db:"notes" json:"notes"`
	DecidedAt time.Time `db:"decided_at" json:"decided_at"`
}

// The engine is the only writer of audit rows.
const AuditDecidedBySystem = "system"
