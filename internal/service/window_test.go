package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

func windowAt(t *testing.T, shiftEnd string, now time.Time) bool {
	t.Helper()
	worker := &models.Worker{ID: "worker-1", ShiftEnd: shiftEnd}
	ok, err := InClockOutWindow(worker, now, time.Hour)
	require.NoError(t, err)
	return ok
}

func TestInClockOutWindow(t *testing.T) {
	day := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	assert.True(t, windowAt(t, "16:00", day.Add(15*time.Hour+11*time.Minute)), "49 minutes before end")
	assert.False(t, windowAt(t, "16:00", day.Add(14*time.Hour+11*time.Minute)), "1h49m before end")
	assert.True(t, windowAt(t, "16:00", day.Add(16*time.Hour)), "exactly at end is inclusive")
	assert.True(t, windowAt(t, "16:00", day.Add(15*time.Hour)), "exactly at window start is inclusive")
	assert.False(t, windowAt(t, "16:00", day.Add(16*time.Hour+time.Second)), "past end")
}

func TestInClockOutWindowUsesTodaysDate(t *testing.T) {
	// Worker clocked in before midnight; the window is still evaluated
	// against today's scheduled end.
	now := time.Date(2024, 5, 21, 15, 30, 0, 0, time.UTC)
	assert.True(t, windowAt(t, "16:00", now))
}

func TestInClockOutWindowMalformedShiftEnd(t *testing.T) {
	worker := &models.Worker{ID: "worker-1", ShiftEnd: "4pm"}
	_, err := InClockOutWindow(worker, time.Now(), time.Hour)
	assert.Error(t, err)
}
