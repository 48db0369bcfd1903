package model

import "time"

// RecipientType selects which contacts a template addresses.
type RecipientType string

const (
	RecipientContractor  RecipientType = "CONTRACTOR"
	RecipientCoordinator RecipientType = "INTERNAL_COORDINATOR"
	RecipientBoth        RecipientType = "BOTH"
)

// Template is a reusable message definition keyed by (event, valuation
// state, recipient type). Edited outside this service; read-only here.
type Template struct {
	ID             int64         `json:"id"`
	Code           string        `json:"code"`
	Name           string        `json:"name"`
	EventKind      EventKind     `json:"event_kind"`
	ValuationState string        `json:"valuation_state"`
	RecipientType  RecipientType `json:"recipient_type"`
	Subject        string        `json:"subject,omitempty"`
	Body           string        `json:"body"`
	Immediate      bool          `json:"immediate"`
	Priority       int           `json:"priority"`
	Active         bool          `json:"active"`
}

// Recipient is a WhatsApp contact eligible to receive notifications.
type Recipient struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Role             string        `json:"role,omitempty"`
	Phone            string        `json:"phone"`
	Type             RecipientType `json:"type"`
	Active           bool          `json:"active"`
	OptedIn          bool          `json:"opted_in"`
	SubscribedEvents []EventKind   `json:"subscribed_events"`
	ScheduleConfigID int64         `json:"schedule_config_id,omitempty"`
}

// ScheduleConfig is a per-recipient business-hours policy. Window bounds
// are local times in HH:MM form within the configured timezone.
type ScheduleConfig struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Timezone    string   `json:"timezone"`
	WorkingDays []string `json:"working_days"`
	WindowStart string   `json:"window_start"`
	WindowEnd   string   `json:"window_end"`
	MaxAttempts int      `json:"max_attempts"`
	Active      bool     `json:"active"`
}

// DailyMetrics is the idempotently recomputed per-day aggregate row.
type DailyMetrics struct {
	ID              int64     `json:"id"`
	MetricDate      time.Time `json:"metric_date"`
	TotalPending    int       `json:"total_pending"`
	TotalSent       int       `json:"total_sent"`
	TotalDelivered  int       `json:"total_delivered"`
	TotalRead       int       `json:"total_read"`
	TotalError      int       `json:"total_error"`
	TotalCancelled  int       `json:"total_cancelled"`
	TotalReceived   int       `json:"total_received"`
	TotalInReview   int       `json:"total_in_review"`
	TotalObserved   int       `json:"total_observed"`
	TotalApproved   int       `json:"total_approved"`
	TotalRejected   int       `json:"total_rejected"`
	AvgSendSeconds  *int      `json:"avg_send_seconds,omitempty"`
	AvgDeliverySecs *int      `json:"avg_delivery_seconds,omitempty"`
	SuccessRate     float64   `json:"success_rate"`
	ErrorRate       float64   `json:"error_rate"`
	UpdatedAt       time.Time `json:"updated_at"`
}
