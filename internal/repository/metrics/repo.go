package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"

	"github.com/obranet/valuation-notifier/internal/model"
)

// Repository recomputes and stores daily_metrics rows from the
// notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new metrics repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// aggregateQuery computes every counter and rate for notifications created
// on one calendar day. Success counts SENT and beyond; averages ignore rows
// missing either timestamp.
const aggregateQuery = `
	SELECT
	    COUNT(*),
	    COUNT(*) FILTER (WHERE status IN ('PENDING', 'SCHEDULED')),
	    COUNT(*) FILTER (WHERE status IN ('SENT', 'DELIVERED', 'READ')),
	    COUNT(*) FILTER (WHERE status IN ('DELIVERED', 'READ')),
	    COUNT(*) FILTER (WHERE status = 'READ'),
	    COUNT(*) FILTER (WHERE status = 'ERROR'),
	    COUNT(*) FILTER (WHERE status = 'CANCELLED'),
	    COUNT(*) FILTER (WHERE event_kind = 'RECEIVED'),
	    COUNT(*) FILTER (WHERE event_kind = 'IN_REVIEW'),
	    COUNT(*) FILTER (WHERE event_kind = 'OBSERVED'),
	    COUNT(*) FILTER (WHERE event_kind = 'APPROVED'),
	    COUNT(*) FILTER (WHERE event_kind = 'REJECTED'),
	    AVG(EXTRACT(EPOCH FROM (sent_at - created_at))) FILTER (WHERE sent_at IS NOT NULL),
	    AVG(EXTRACT(EPOCH FROM (delivered_at - sent_at))) FILTER (WHERE delivered_at IS NOT NULL AND sent_at IS NOT NULL)
	FROM notifications
	WHERE created_at >= $1 AND created_at < $2;
`

const upsertQuery = `
	INSERT INTO daily_metrics (
	    metric_date, total_pending, total_sent, total_delivered, total_read,
	    total_error, total_cancelled, total_received, total_in_review,
	    total_observed, total_approved, total_rejected,
	    avg_send_seconds, avg_delivery_seconds, success_rate, error_rate, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
	ON CONFLICT (metric_date) DO UPDATE SET
	    total_pending = EXCLUDED.total_pending,
	    total_sent = EXCLUDED.total_sent,
	    total_delivered = EXCLUDED.total_delivered,
	    total_read = EXCLUDED.total_read,
	    total_error = EXCLUDED.total_error,
	    total_cancelled = EXCLUDED.total_cancelled,
	    total_received = EXCLUDED.total_received,
	    total_in_review = EXCLUDED.total_in_review,
	    total_observed = EXCLUDED.total_observed,
	    total_approved = EXCLUDED.total_approved,
	    total_rejected = EXCLUDED.total_rejected,
	    avg_send_seconds = EXCLUDED.avg_send_seconds,
	    avg_delivery_seconds = EXCLUDED.avg_delivery_seconds,
	    success_rate = EXCLUDED.success_rate,
	    error_rate = EXCLUDED.error_rate,
	    updated_at = now();
`

// RecomputeFor recomputes the metrics row for one calendar date from
// scratch and upserts it. Running it twice for the same date yields the
// same row.
func (r *Repository) RecomputeFor(ctx context.Context, day time.Time) (model.DailyMetrics, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		m       model.DailyMetrics
		total   int
		avgSend sql.NullFloat64
		avgDlv  sql.NullFloat64
	)
	m.MetricDate = dayStart

	err := r.db.Master.QueryRowContext(ctx, aggregateQuery, dayStart, dayEnd).Scan(
		&total, &m.TotalPending, &m.TotalSent, &m.TotalDelivered, &m.TotalRead,
		&m.TotalError, &m.TotalCancelled,
		&m.TotalReceived, &m.TotalInReview, &m.TotalObserved, &m.TotalApproved, &m.TotalRejected,
		&avgSend, &avgDlv,
	)
	if err != nil {
		return model.DailyMetrics{}, fmt.Errorf("failed to aggregate metrics: %w", err)
	}

	if avgSend.Valid {
		v := int(avgSend.Float64)
		m.AvgSendSeconds = &v
	}
	if avgDlv.Valid {
		v := int(avgDlv.Float64)
		m.AvgDeliverySecs = &v
	}

	if total > 0 {
		m.SuccessRate = round2(float64(m.TotalSent) / float64(total) * 100)
		m.ErrorRate = round2(float64(m.TotalError) / float64(total) * 100)
	}

	_, err = r.db.ExecContext(ctx, upsertQuery,
		dayStart, m.TotalPending, m.TotalSent, m.TotalDelivered, m.TotalRead,
		m.TotalError, m.TotalCancelled,
		m.TotalReceived, m.TotalInReview, m.TotalObserved, m.TotalApproved, m.TotalRejected,
		m.AvgSendSeconds, m.AvgDeliverySecs, m.SuccessRate, m.ErrorRate,
	)
	if err != nil {
		return model.DailyMetrics{}, fmt.Errorf("failed to upsert daily metrics: %w", err)
	}

	return m, nil
}

// DeleteBefore purges metrics rows older than the cutoff date.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM daily_metrics
		WHERE metric_date < $1;
    `

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old metrics: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
