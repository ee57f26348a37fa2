package models

import "time"

// AutoClockoutType categorises how a shift session was closed automatically.
type AutoClockoutType string

const (
	AutoClockoutNone      AutoClockoutType = "none"
	AutoClockoutGeofence  AutoClockoutType = "geofence"
	AutoClockoutTimeLimit AutoClockoutType = "time_limit"
)

// Valid returns true when the value is a supported clock-out category.
func (t AutoClockoutType) Valid() bool {
	switch t {
	case AutoClockoutNone, AutoClockoutGeofence, AutoClockoutTimeLimit:
		return true
	default:
		return false
	}
}

// ShiftSession is one open-or-closed work period for a worker at a job site.
// Closing is terminal: once clock_out is set the row is never reopened, and
// every automatic close goes through the conditional update in the shift
// repository so concurrent writers cannot clobber each other.
type ShiftSession struct {
	ID               string           `db:"id" json:"id"`
	WorkerID         string           `db:"worker_id" json:"worker_id"`
	JobID            string           `db:"job_id" json:"job_id"`
	ClockIn          time.Time        `db:"clock_in" json:"clock_in"`
	ClockOut         *time.Time       `db:"clock_out" json:"clock_out,omitempty"`
	ClockInLat       *float64         `db:"clock_in_lat" json:"clock_in_lat,omitempty"`
	ClockInLon       *float64         `db:"clock_in_lon" json:"clock_in_lon,omitempty"`
	ClockOutLat      *float64         `db:"clock_out_lat" json:"clock_out_lat,omitempty"`
	ClockOutLon      *float64         `db:"clock_out_lon" json:"clock_out_lon,omitempty"`
	IsOvertime       bool             `db:"is_overtime" json:"is_overtime"`
	AutoClockedOut   bool             `db:"auto_clocked_out" json:"auto_clocked_out"`
	AutoClockoutType AutoClockoutType `db:"auto_clockout_type" json:"auto_clockout_type"`
	TotalHours       *float64         `db:"total_hours" json:"total_hours,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Open reports whether the session has not been clocked out yet.
func (s *ShiftSession) Open() bool {
	return s != nil && s.ClockOut == nil
}

// ShiftDate returns the calendar date the session belongs to, keyed on the
// clock-in time.
func (s *ShiftSession) ShiftDate() time.Time {
	y, m, d := s.ClockIn.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.ClockIn.Location())
}
