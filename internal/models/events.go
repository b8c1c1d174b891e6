// Package models defines the request and event data structures.
package models

// PlanGenerated is published once per generation request with its outcome.
type PlanGenerated struct {
	EventType   string `json:"eventType"`
	RequestID   string `json:"requestId"`
	Destination string `json:"destination"`
	DayCount    int    `json:"dayCount"`
	Outcome     string `json:"outcome"`
	Event       string `json:"event"`
	Error       string `json:"error,omitempty"`
	Chars       int    `json:"chars"`
	DurationMs  int64  `json:"durationMs"`
	Timestamp   int64  `json:"timestamp"`
}

// TranscriptCompleted is published once per audio job with its outcome.
type TranscriptCompleted struct {
	EventType  string `json:"eventType"`
	JobID      string `json:"jobId"`
	Provider   string `json:"provider"`
	Language   string `json:"language"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	Text       string `json:"text,omitempty"`
	Empty      bool   `json:"empty"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  int64  `json:"timestamp"`
}

const (
	EventTypePlanGenerated       = "planner.plan.generated"
	EventTypeTranscriptCompleted = "planner.transcript.completed"
)
