package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/api/dto"
	"github.com/obranet/valuation-notifier/internal/api/respond"
	"github.com/obranet/valuation-notifier/internal/config"
	"github.com/obranet/valuation-notifier/internal/model"
	notifrepo "github.com/obranet/valuation-notifier/internal/repository/notification"
	notifservice "github.com/obranet/valuation-notifier/internal/service/notification"
)

// notificationService defines the business operations the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	CreateNotifications(ctx context.Context, strategy retry.Strategy, in notifservice.CreateInput) (notifservice.CreateResult, error)
	GetStatusByID(ctx context.Context, strategy retry.Strategy, id int64) (model.Status, error)
	Cancel(ctx context.Context, strategy retry.Strategy, id int64) error
	Requeue(ctx context.Context, window time.Duration) (int64, error)
}

// Handler handles HTTP requests for notification lifecycle operations.
type Handler struct {
	service   notificationService
	validator *validator.Validate
	cfg       *config.Config
}

// NewHandler creates a new Handler instance.
func NewHandler(
	s notificationService,
	v *validator.Validate,
	cfg *config.Config,
) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// CreateEvent handles POST requests reporting a valuation state change.
//
// It validates the request body and fans the event out into notifications
// for every matching template and eligible recipient.
func (h *Handler) CreateEvent(c *ginext.Context) {
	var req dto.CreateEventRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	in := notifservice.CreateInput{
		ValuationID:     req.ValuationID,
		Event:           model.EventKind(req.Event),
		PriorState:      req.PriorState,
		NewState:        req.NewState,
		WorkName:        req.WorkName,
		ValuationNumber: req.ValuationNumber,
		ExtraVars:       req.ExtraVars,
		Immediate:       req.Immediate,
	}

	result, err := h.service.CreateNotifications(c.Request.Context(), h.cfg.Retry, in)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Int64("valuation_id", req.ValuationID).
			Str("event", req.Event).
			Msg("failed to create notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, result)
}

// GetStatus handles GET requests for the status of one notification.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("id", c.Param("id")).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	status, err := h.service.GetStatusByID(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			zlog.Logger.Warn().Int64("id", id).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, status)
}

// Cancel handles POST requests cancelling a not-yet-sent notification.
func (h *Handler) Cancel(c *ginext.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("id", c.Param("id")).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	err = h.service.Cancel(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			zlog.Logger.Warn().Int64("id", id).Msg("notification not found or already terminal")
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("notification cannot be cancelled"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to cancel notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, "notification cancelled")
}

// Requeue handles POST requests returning recently failed notifications to
// the dispatch queue.
func (h *Handler) Requeue(c *ginext.Context) {
	window := h.cfg.Retention.RequeueWindow

	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid window"))
			return
		}
		window = parsed
	}

	count, err := h.service.Requeue(c.Request.Context(), window)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to requeue notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]int64{"requeued": count})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return id, nil
}
