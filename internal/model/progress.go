package model

import "time"

// ProgressReport is a point in time snapshot of an invocation progress.
type ProgressReport struct {
	InvocationID string  `json:"invocation_id"`
	Operation    string  `json:"operation"`
	Current      float64 `json:"current"`
	// Total is 0 when unknown.
	Total      float64   `json:"total"`
	Percentage float64   `json:"percentage"`
	IsComplete bool      `json:"is_complete"`
	Message    string    `json:"message,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
