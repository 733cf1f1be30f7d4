package entities

import (
	"time"
)

// ListEvent records one committed reset fetch of an explore list, for analytics.
type ListEvent struct {
	ID          string               `json:"id"`
	Query       string               `json:"query"`
	Filters     AppliedFilterPayload `json:"filters,omitempty"`
	Identity    string               `json:"identity"`
	ResultCount int                  `json:"result_count"`
	HasNext     bool                 `json:"has_next"`
	LatencyMs   int64                `json:"latency_ms"`
	SessionID   string               `json:"session_id,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// ZeroResult reports whether the search produced an empty terminal page
func (e *ListEvent) ZeroResult() bool {
	return e.ResultCount == 0 && !e.HasNext
}
