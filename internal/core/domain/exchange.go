package domain

import "time"

type ExchangeStatus string

const (
	ExchangeAnswered ExchangeStatus = "answered"
	ExchangeFailed   ExchangeStatus = "failed"
)

// Exchange is the audit record of one question/answer round trip.
type Exchange struct {
	ID        string         `json:"id"`
	Question  string         `json:"question"`
	Topics    []string       `json:"topics"`
	Status    ExchangeStatus `json:"status"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	CreatedAt time.Time      `json:"created_at"`
}
