package service

import (
	"net/http"
	"time"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
	appErrors "github.com/Hillway-UK/union-clock-sub000/pkg/errors"
)

// InClockOutWindow decides whether geofence auto clock-out is active for a
// normal shift: only inside [shiftEnd-window, shiftEnd], both ends
// inclusive, with the scheduled end anchored to now's date. Overtime
// sessions never consult this gate.
func InClockOutWindow(worker *models.Worker, now time.Time, window time.Duration) (bool, error) {
	end, err := worker.ShiftEndAt(now)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "worker shift_end is malformed")
	}
	start := end.Add(-window)
	return !now.Before(start) && !now.After(end), nil
}
