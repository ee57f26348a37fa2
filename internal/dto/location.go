package dto

import "time"

// LocationStatus is the UX feedback token returned to the sampling client.
// It is never authoritative state; clients re-read the shift session when a
// terminal token arrives.
type LocationStatus string

const (
	StatusNotClockedIn   LocationStatus = "not_clocked_in"
	StatusOutsideWindow  LocationStatus = "outside_window"
	StatusInsideFence    LocationStatus = "inside_fence"
	StatusReEntered      LocationStatus = "re_entered"
	StatusExitPending    LocationStatus = "exit_pending"
	StatusManualClockout LocationStatus = "manual_clockout"
	StatusAutoClockedOut LocationStatus = "auto_clocked_out"
)

// ReportLocationRequest is one raw GPS fix pushed by the sampling client.
type ReportLocationRequest struct {
	WorkerID       string    `json:"worker_id" validate:"required"`
	ShiftSessionID string    `json:"shift_session_id" validate:"required"`
	Latitude       float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64   `json:"longitude" validate:"gte=-180,lte=180"`
	AccuracyM      float64   `json:"accuracy_m" validate:"gte=0"`
	Timestamp      time.Time `json:"timestamp"`
}

// ReportLocationResult reports what the engine did with the fix.
type ReportLocationResult struct {
	Status     LocationStatus `json:"status"`
	DistanceM  float64        `json:"distance_m"`
	ThresholdM float64        `json:"threshold_m,omitempty"`
	ClockOut   *time.Time     `json:"clock_out,omitempty"`
	TotalHours *float64       `json:"total_hours,omitempty"`
}
