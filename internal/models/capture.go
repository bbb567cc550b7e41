package models

import "time"

// CaptureState represents the capture loop lifecycle state
type CaptureState string

const (
	CaptureStateStopped  CaptureState = "stopped"
	CaptureStateRunning  CaptureState = "running"
	CaptureStateStopping CaptureState = "stopping"
)

// String returns the string representation of CaptureState
func (s CaptureState) String() string {
	return string(s)
}

// CaptureStatus is a point-in-time view of the capture loop
type CaptureStatus struct {
	State           CaptureState `json:"state"`
	SessionID       string       `json:"session_id,omitempty"`
	Iterations      int64        `json:"iterations"`
	StartedAt       time.Time    `json:"started_at,omitempty"`
	LastIterationAt time.Time    `json:"last_iteration_at,omitempty"`
	LastError       string       `json:"last_error,omitempty"`
	SimulatedCamera bool         `json:"simulated_camera"`
}
