package service

// Exit classification constants. The safe-out table is authoritative: the
// low-end ratios are deliberately wider than the 1.25x fallback so GPS
// jitter around small fences does not read as an exit.
const (
	// accuracyTrustLimitM is the worst fix accuracy the accuracy-aware
	// rule will accept.
	accuracyTrustLimitM = 50.0
	// minExitMarginM is the smallest margin past the fence the accuracy
	// rule requires, even for very precise fixes.
	minExitMarginM = 25.0
	// fallbackThresholdRatio covers radii outside the table.
	fallbackThresholdRatio = 1.25
)

var safeOutThresholds = map[float64]float64{
	50:  90,
	100: 150,
	200: 260,
	300: 380,
	400: 500,
	500: 625,
}

// SafeOutThreshold maps a job's geofence radius to the distance beyond which
// a reading is trusted as a real exit regardless of accuracy.
func SafeOutThreshold(radiusM float64) float64 {
	if threshold, ok := safeOutThresholds[radiusM]; ok {
		return threshold
	}
	return radiusM * fallbackThresholdRatio
}

// IsReliableExit decides whether one reading constitutes a reliable exit.
// Either rule alone is sufficient:
//
//   - overshoot: the fix is past the safe-out threshold, trusted regardless
//     of accuracy;
//   - accuracy-aware: a precise fix (<=50m accuracy) a small margin past the
//     fence, where the margin grows with the fix's uncertainty and never
//     drops below 25m.
func IsReliableExit(distanceM, accuracyM, radiusM, thresholdM float64) bool {
	if distanceM >= thresholdM {
		return true
	}
	if accuracyM <= accuracyTrustLimitM {
		margin := accuracyM / 2
		if margin < minExitMarginM {
			margin = minExitMarginM
		}
		return distanceM >= radiusM+margin
	}
	return false
}
