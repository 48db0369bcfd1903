package cleanup

import (
	"context"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/config"
)

type notificationRepository interface {
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type metricsRepository interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner purges notifications and metrics past their retention horizons.
// History rows go with their notification through the cascade.
type Cleaner struct {
	notifications notificationRepository
	metrics       metricsRepository

	notificationDays int
	metricsDays      int

	now func() time.Time
}

func NewCleaner(n notificationRepository, m metricsRepository, cfg config.Retention) *Cleaner {
	return &Cleaner{
		notifications:    n,
		metrics:          m,
		notificationDays: cfg.NotificationDays,
		metricsDays:      cfg.MetricsDays,
		now:              time.Now,
	}
}

// Run performs one retention sweep. Only terminal notifications are
// removed; anything still in flight stays regardless of age.
func (c *Cleaner) Run(ctx context.Context) {
	now := c.now()

	removed, err := c.notifications.DeleteTerminalBefore(ctx, now.AddDate(0, 0, -c.notificationDays))
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to purge old notifications")
	} else if removed > 0 {
		zlog.Logger.Info().Int64("count", removed).Msg("purged old notifications")
	}

	removed, err = c.metrics.DeleteBefore(ctx, now.AddDate(0, 0, -c.metricsDays))
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to purge old metrics")
	} else if removed > 0 {
		zlog.Logger.Info().Int64("count", removed).Msg("purged old metrics")
	}
}
