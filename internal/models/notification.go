package models

import (
	"fmt"
	"time"
)

// Notification is the engine's contract with the delivery sink: insert
// exactly one logical notification per finalize event. Delivery mechanics
// are external; deduplication is enforced by the sink on DedupeKey.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	WorkerID  string    `db:"worker_id" json:"worker_id"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Type      string    `db:"type" json:"type"`
	DedupeKey string    `db:"dedupe_key" json:"dedupe_key"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationDedupeKey builds the {worker_id}:{shift_date}:{reason_tag} key
// that makes retried sweeps idempotent at the sink.
func NotificationDedupeKey(workerID string, shiftDate time.Time, reasonTag string) string {
	return fmt.Sprintf("%s:%s:%s", workerID, shiftDate.Format("2006-01-02"), reasonTag)
}
