package model

import (
	"time"
)

// Status is the lifecycle state of a notification. Transitions only move
// forward in rank order; ERROR and CANCELLED are terminal side exits.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusSending   Status = "SENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
	StatusError     Status = "ERROR"
	StatusCancelled Status = "CANCELLED"
)

// Rank returns the position of a status in the canonical forward order.
// PENDING and SCHEDULED share the lowest rank; ERROR and CANCELLED rank
// above READ so that a provider "failed" event beats any live state but a
// late "delivered" never resurrects a dead notification.
func (s Status) Rank() int {
	switch s {
	case StatusPending, StatusScheduled:
		return 0
	case StatusSending:
		return 1
	case StatusSent:
		return 2
	case StatusDelivered:
		return 3
	case StatusRead:
		return 4
	case StatusError, StatusCancelled:
		return 5
	default:
		return -1
	}
}

// Terminal reports whether no further automatic transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusRead || s == StatusError || s == StatusCancelled
}

// EventKind is a valuation state change that triggers notifications.
type EventKind string

const (
	EventReceived EventKind = "RECEIVED"
	EventInReview EventKind = "IN_REVIEW"
	EventObserved EventKind = "OBSERVED"
	EventApproved EventKind = "APPROVED"
	EventRejected EventKind = "REJECTED"
)

// EventKinds lists all trigger events in declaration order.
var EventKinds = []EventKind{EventReceived, EventInReview, EventObserved, EventApproved, EventRejected}

type SendKind string

const (
	SendImmediate SendKind = "IMMEDIATE"
	SendScheduled SendKind = "SCHEDULED"
)

type Notification struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	ValuationID     int64      `json:"valuation_id"`
	TemplateID      int64      `json:"template_id"`
	RecipientID     int64      `json:"recipient_id"`
	EventKind       EventKind  `json:"event_kind"`
	PriorState      string     `json:"prior_state,omitempty"`
	CurrentState    string     `json:"current_state"`
	Subject         string     `json:"subject,omitempty"`
	Body            string     `json:"body"`
	VariablesUsed   string     `json:"variables_used,omitempty"`
	SendKind        SendKind   `json:"send_kind"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Priority        int        `json:"priority"`
	Status          Status     `json:"status"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
	AttemptCount    int        `json:"attempt_count"`
	MaxAttempts     int        `json:"max_attempts"`
	LastError       string     `json:"last_error,omitempty"`
	LastErrorAt     *time.Time `json:"last_error_at,omitempty"`
	WAMessageID     string     `json:"wa_message_id,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DueNotification is a notification joined with the recipient data the
// dispatch loop needs to gate and send it.
type DueNotification struct {
	Notification
	RecipientName string
	Phone         string
	Schedule      *ScheduleConfig
}

// HistoryEntry is one append-only row of the notification audit trail.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	NotificationID int64     `json:"notification_id"`
	OldStatus      Status    `json:"old_status,omitempty"`
	NewStatus      Status    `json:"new_status"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
