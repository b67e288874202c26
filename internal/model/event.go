package model

import "time"

// CallEnded is the end-of-call notification exported to event sinks.
type CallEnded struct {
	ID         string    `json:"id"` // ULID
	Provider   string    `json:"provider"`
	CallID     string    `json:"call_id"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Duration   int       `json:"duration"` // seconds
	EndTime    string    `json:"end_time,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
