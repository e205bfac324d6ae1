package events

import (
	"context"
	"time"
)

// Inquiry lifecycle event types.
const (
	TypeInquiryCreated = "inquiry.created"
	TypeInquiryUpdated = "inquiry.updated"
	TypeInquiryDeleted = "inquiry.deleted"
)

// Event describes a change to one inquiry.
type Event struct {
	Type       string    `json:"type"`
	InquiryID  uint      `json:"inquiry_id"`
	Status     string    `json:"status,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events on a best-effort basis. Publish never blocks the
// caller on the broker and never fails a request.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// NopPublisher discards every event. It is used when no brokers are configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) {}

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
