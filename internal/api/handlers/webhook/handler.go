package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/api/respond"
	"github.com/obranet/valuation-notifier/internal/config"
	"github.com/obranet/valuation-notifier/internal/rabbitmq/queue"
	"github.com/obranet/valuation-notifier/pkg/whatsapp"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/webhook/mock.go -package=mocks
type statusPublisher interface {
	Publish(msg queue.StatusMessage, strategy retry.Strategy) error
}

// Handler terminates WhatsApp webhook callbacks: the GET subscription
// handshake and POSTed delivery receipts.
type Handler struct {
	publisher   statusPublisher
	verifyToken string
	cfg         *config.Config
}

func NewHandler(p statusPublisher, cfg *config.Config) *Handler {
	return &Handler{
		publisher:   p,
		verifyToken: cfg.WhatsApp.VerifyToken,
		cfg:         cfg,
	}
}

// Verify answers the Graph API subscription handshake by echoing the
// challenge when the token matches.
func (h *Handler) Verify(c *ginext.Context) {
	challenge, ok := whatsapp.VerifyWebhook(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		zlog.Logger.Warn().Str("mode", c.Query("hub.mode")).Msg("webhook verification rejected")
		respond.Fail(c.Writer, http.StatusForbidden, fmt.Errorf("verification failed"))
		return
	}

	c.Writer.WriteHeader(http.StatusOK)
	if _, err := c.Writer.Write([]byte(challenge)); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to write challenge")
	}
}

// Receive accepts a webhook payload and enqueues every status event it
// carries. The provider retries on non-200 responses, so parse failures
// still answer 200 to avoid replay storms of a payload that will never
// parse.
func (h *Handler) Receive(c *ginext.Context) {
	var payload whatsapp.WebhookPayload

	if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to decode webhook payload")
		respond.OK(c.Writer, "ignored")
		return
	}

	events := whatsapp.ParseStatuses(payload)
	for _, ev := range events {
		msg := queue.StatusMessage{
			MessageID:   ev.MessageID,
			Status:      ev.Status,
			RecipientID: ev.RecipientID,
			Timestamp:   ev.Timestamp,
		}

		if err := h.publisher.Publish(msg, h.cfg.Retry); err != nil {
			zlog.Logger.Error().Err(err).
				Str("message_id", ev.MessageID).
				Str("status", ev.Status).
				Msg("failed to enqueue status event")
		}
	}

	if len(events) > 0 {
		zlog.Logger.Info().Int("events", len(events)).Msg("webhook status events enqueued")
	}

	respond.OK(c.Writer, "received")
}
