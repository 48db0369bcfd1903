package metrics

import (
	"context"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/model"
)

type metricsRepository interface {
	RecomputeFor(ctx context.Context, day time.Time) (model.DailyMetrics, error)
}

// Aggregator recomputes daily metric rows from the notifications table.
type Aggregator struct {
	repo metricsRepository
	now  func() time.Time
}

func NewAggregator(repo metricsRepository) *Aggregator {
	return &Aggregator{repo: repo, now: time.Now}
}

// RecomputeFor rebuilds the metrics row for one calendar date.
func (a *Aggregator) RecomputeFor(ctx context.Context, day time.Time) (model.DailyMetrics, error) {
	return a.repo.RecomputeFor(ctx, day)
}

// RecomputeRecent rebuilds yesterday and today. Yesterday is included so
// late status receipts keep settling into the closed day.
func (a *Aggregator) RecomputeRecent(ctx context.Context) {
	now := a.now()

	for _, day := range []time.Time{now.AddDate(0, 0, -1), now} {
		m, err := a.repo.RecomputeFor(ctx, day)
		if err != nil {
			zlog.Logger.Error().Err(err).
				Str("date", day.Format("2006-01-02")).
				Msg("failed to recompute daily metrics")
			continue
		}

		zlog.Logger.Info().
			Str("date", m.MetricDate.Format("2006-01-02")).
			Int("sent", m.TotalSent).
			Int("error", m.TotalError).
			Float64("success_rate", m.SuccessRate).
			Msg("daily metrics recomputed")
	}
}
