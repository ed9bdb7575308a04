package models

// EventAction is the kind of remote record change pushed by a subscription.
type EventAction string

const (
	EventCreate EventAction = "create"
	EventUpdate EventAction = "update"
	EventDelete EventAction = "delete"
)

// RecordEvent is one push-subscription event for a record.
type RecordEvent struct {
	Action EventAction `json:"action"`
	Record Record      `json:"record"`
}

// RetryProgress reports replay progress as (Current, Total).
type RetryProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Done reports whether every pending item has been processed.
func (p RetryProgress) Done() bool {
	return p.Current >= p.Total
}
