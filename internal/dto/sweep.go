package dto

// SweepResult summarises one pass of the auto clock-out sweep.
type SweepResult struct {
	OvertimeCapped    int `json:"overtime_capped"`
	ExitsFinalized    int `json:"exits_finalized"`
	ReEntriesDetected int `json:"re_entries_detected"`
	ManualYields      int `json:"manual_yields"`
	RacesLost         int `json:"races_lost"`
	Errors            int `json:"errors"`
}
