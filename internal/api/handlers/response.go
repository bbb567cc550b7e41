package handlers

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" example:"Model not found"`
}

// StatusResponse acknowledges a state-changing request
type StatusResponse struct {
	Status string `json:"status" example:"Capture started"`
}

// MessageResponse is the placeholder entry returned when nothing has been captured
type MessageResponse struct {
	Message string `json:"message"`
}

// NoCaptureMessage is shown wherever a captured frame is expected but none exists yet
const NoCaptureMessage = "Capture not started. Use POST /start_capture to begin."
