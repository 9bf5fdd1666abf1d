package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the submissions topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Status is the fate of one submission.
type Status string

const (
	StatusCreated  Status = "created"
	StatusUpdated  Status = "updated"
	StatusRejected Status = "rejected"
)

// Result is the serialized report published for every consumed submission.
type Result struct {
	ID          string      `json:"id,omitempty"`
	Collection  Collection  `json:"collection"`
	Status      Status      `json:"status"`
	Violations  []Violation `json:"violations,omitempty"`
	Error       string      `json:"error,omitempty"`
	ProcessedAt time.Time   `json:"processed_at"`
}

// NewResult summarizes an outcome. id is the submitted id, used when the
// pit was rejected before one was assigned.
func NewResult(o Outcome, id string) Result {
	r := Result{
		ID:          id,
		Collection:  o.Collection,
		Violations:  o.Violations,
		ProcessedAt: clock.Now().UTC(),
	}
	switch {
	case o.Rejection != nil:
		r.Status = StatusRejected
		r.Error = o.Rejection.Error()
	case len(o.Violations) > 0:
		r.Status = StatusRejected
		r.Error = o.Violations.Err().Error()
	default:
		r.ID = o.Pit.ID
		r.Status = StatusUpdated
		if o.Action == ActionCreated {
			r.Status = StatusCreated
		}
	}
	return r
}
