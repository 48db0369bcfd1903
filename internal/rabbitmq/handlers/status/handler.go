package status

import (
	"context"
	"errors"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/model"
	"github.com/obranet/valuation-notifier/internal/rabbitmq/queue"
	"github.com/obranet/valuation-notifier/internal/repository/notification"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/rabbitmq/handlers/status/mock.go -package=mocks
type statusRepository interface {
	GetByMessageID(ctx context.Context, waMessageID string) (model.Notification, error)
	AdvanceStatus(ctx context.Context, id int64, newStatus model.Status, reason string, deliveredAt, readAt *time.Time) error
}

// Handler reconciles provider delivery receipts with stored notifications.
type Handler struct {
	repo statusRepository
}

func NewHandler(repo statusRepository) *Handler {
	return &Handler{repo: repo}
}

// statusFromProvider maps a WhatsApp webhook status string to a lifecycle
// status. Unknown strings map to the empty status.
func statusFromProvider(s string) model.Status {
	switch s {
	case "sent":
		return model.StatusSent
	case "delivered":
		return model.StatusDelivered
	case "read":
		return model.StatusRead
	case "failed":
		return model.StatusError
	default:
		return ""
	}
}

// HandleMessage applies one status event. Events for unknown message ids
// are dropped, and an event never moves a notification backwards, so
// duplicates and out-of-order deliveries are harmless.
func (h *Handler) HandleMessage(ctx context.Context, msg queue.StatusMessage) {
	newStatus := statusFromProvider(msg.Status)
	if newStatus == "" {
		zlog.Logger.Warn().
			Str("status", msg.Status).
			Str("message_id", msg.MessageID).
			Msg("ignoring unknown provider status")
		return
	}

	n, err := h.repo.GetByMessageID(ctx, msg.MessageID)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			zlog.Logger.Warn().
				Str("message_id", msg.MessageID).
				Msg("status event for unknown message, dropping")
			return
		}
		zlog.Logger.Error().Err(err).
			Str("message_id", msg.MessageID).
			Msg("failed to load notification for status event")
		return
	}

	// fast path only; the store re-checks the rank inside the update
	if newStatus.Rank() <= n.Status.Rank() {
		zlog.Logger.Debug().
			Str("code", n.Code).
			Str("current", string(n.Status)).
			Str("incoming", string(newStatus)).
			Msg("status event does not advance notification, skipping")
		return
	}

	var deliveredAt, readAt *time.Time
	ts := msg.Timestamp
	switch newStatus {
	case model.StatusDelivered:
		if n.DeliveredAt == nil {
			deliveredAt = &ts
		}
	case model.StatusRead:
		readAt = &ts
		// a read receipt implies delivery even if that event was lost
		if n.DeliveredAt == nil {
			deliveredAt = &ts
		}
	}

	err = h.repo.AdvanceStatus(ctx, n.ID, newStatus, "provider status "+msg.Status, deliveredAt, readAt)
	if err != nil {
		if errors.Is(err, notification.ErrStatusSuperseded) {
			zlog.Logger.Debug().
				Str("code", n.Code).
				Str("incoming", string(newStatus)).
				Msg("concurrent event already advanced notification, skipping")
			return
		}
		zlog.Logger.Error().Err(err).
			Str("code", n.Code).
			Str("status", string(newStatus)).
			Msg("failed to advance notification status")
		return
	}

	zlog.Logger.Info().
		Str("code", n.Code).
		Str("from", string(n.Status)).
		Str("to", string(newStatus)).
		Msg("notification status advanced")
}
