package whatsapp

import (
	"strconv"
	"time"
)

// StatusEvent is a normalized delivery-receipt event from a webhook payload.
type StatusEvent struct {
	MessageID   string    `json:"message_id"`
	Status      string    `json:"status"`
	RecipientID string    `json:"recipient_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// WebhookPayload mirrors the Graph API webhook envelope. Only the message
// status portion is consumed; inbound messages are ignored.
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					Timestamp   string `json:"timestamp"`
					RecipientID string `json:"recipient_id"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseStatuses extracts delivery-status events from a webhook payload.
// Entries that are not message statuses are skipped.
func ParseStatuses(payload WebhookPayload) []StatusEvent {
	var events []StatusEvent

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			for _, st := range change.Value.Statuses {
				if st.ID == "" || st.Status == "" {
					continue
				}

				ts := time.Now()
				if unix, err := strconv.ParseInt(st.Timestamp, 10, 64); err == nil {
					ts = time.Unix(unix, 0)
				}

				events = append(events, StatusEvent{
					MessageID:   st.ID,
					Status:      st.Status,
					RecipientID: st.RecipientID,
					Timestamp:   ts,
				})
			}
		}
	}

	return events
}

// VerifyWebhook implements the Graph API subscription handshake. It returns
// the challenge string to echo back, or false if the token does not match.
func VerifyWebhook(mode, token, challenge, verifyToken string) (string, bool) {
	if mode == "subscribe" && token == verifyToken && verifyToken != "" {
		return challenge, true
	}
	return "", false
}
