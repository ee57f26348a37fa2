package models

import "time"

// GeofenceEventType enumerates the observation kinds recorded per shift.
type GeofenceEventType string

const (
	GeofenceEventLocationFix   GeofenceEventType = "location_fix"
	GeofenceEventExitDetected  GeofenceEventType = "exit_detected"
	GeofenceEventReEntry       GeofenceEventType = "re_entry"
	GeofenceEventExitConfirmed GeofenceEventType = "exit_confirmed"
)

// Valid returns true when the event type is supported.
func (t GeofenceEventType) Valid() bool {
	switch t {
	case GeofenceEventLocationFix, GeofenceEventExitDetected, GeofenceEventReEntry, GeofenceEventExitConfirmed:
		return true
	default:
		return false
	}
}

// GeofenceEvent is an immutable observation tied to one shift session.
// Rows are append-only; the engine never updates or deletes them, and all
// state reconstruction orders them by recorded_at within a session.
type GeofenceEvent struct {
	ID             string            `db:"id" json:"id"`
	WorkerID       string            `db:"worker_id" json:"worker_id"`
	ShiftSessionID string            `db:"shift_session_id" json:"shift_session_id"`
	ShiftDate      time.Time         `db:"shift_date" json:"shift_date"`
	EventType      GeofenceEventType `db:"event_type" json:"event_type"`
	Latitude       float64           `db:"latitude" json:"latitude"`
	Longitude      float64           `db:"longitude" json:"longitude"`
	AccuracyM      float64           `db:"accuracy_m" json:"accuracy_m"`
	DistanceM      float64           `db:"distance_m" json:"distance_m"`
	JobRadiusM     float64           `db:"job_radius_m" json:"job_radius_m"`
	ThresholdM     float64           `db:"threshold_m" json:"threshold_m"`
	RecordedAt     time.Time         `db:"recorded_at" json:"recorded_at"`
}
