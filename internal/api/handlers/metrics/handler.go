package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/api/respond"
	"github.com/obranet/valuation-notifier/internal/model"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/metrics/mock.go -package=mocks
type aggregator interface {
	RecomputeFor(ctx context.Context, day time.Time) (model.DailyMetrics, error)
	RecomputeRecent(ctx context.Context)
}

// Handler exposes on-demand recomputation of daily metrics.
type Handler struct {
	aggregator aggregator
}

func NewHandler(a aggregator) *Handler {
	return &Handler{aggregator: a}
}

// Recompute handles POST requests rebuilding metric rows. With a date query
// parameter it rebuilds that day; without one it rebuilds yesterday and
// today.
func (h *Handler) Recompute(c *ginext.Context) {
	raw := c.Query("date")
	if raw == "" {
		h.aggregator.RecomputeRecent(c.Request.Context())
		respond.OK(c.Writer, "recent metrics recomputed")
		return
	}

	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid date, want YYYY-MM-DD"))
		return
	}

	m, err := h.aggregator.RecomputeFor(c.Request.Context(), day)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("date", raw).Msg("failed to recompute metrics")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, m)
}
