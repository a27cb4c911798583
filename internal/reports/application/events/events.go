package events

import "time"

// ReportFinished is raised when a report job reaches a terminal status.
type ReportFinished struct {
	ReportID   string    `json:"report_id"`
	Owner      string    `json:"owner"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
