package models

import (
	"fmt"
	"time"
)

// Geofence radii supported by site administrators.
const (
	MinJobRadiusM = 50.0
	MaxJobRadiusM = 500.0
)

// JobSite is administrator-owned reference data; the engine only reads it.
type JobSite struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
	RadiusM   float64 `db:"radius_m" json:"radius_m"`
}

// ValidRadius reports whether the configured geofence radius is inside the
// supported range.
func (j *JobSite) ValidRadius() bool {
	return j != nil && j.RadiusM >= MinJobRadiusM && j.RadiusM <= MaxJobRadiusM
}

// Worker carries the scheduled shift end used by the clock-out window gate.
type Worker struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	// ShiftEnd is the scheduled end of a normal shift, "HH:MM" local time.
	ShiftEnd string `db:"shift_end" json:"shift_end"`
}

// ShiftEndAt resolves the worker's scheduled shift end against the date of
// now, in now's location. A shift that started before midnight is therefore
// still evaluated against today's scheduled end.
func (w *Worker) ShiftEndAt(now time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", w.ShiftEnd)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid shift_end %q: %w", w.ShiftEnd, err)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), nil
}
