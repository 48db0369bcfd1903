package dispatch

import (
	"context"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/config"
	"github.com/obranet/valuation-notifier/internal/model"
	"github.com/obranet/valuation-notifier/internal/schedule"
	"github.com/obranet/valuation-notifier/pkg/phone"
	"github.com/obranet/valuation-notifier/pkg/whatsapp"
)

//go:generate mockgen -source=dispatcher.go -destination=../mocks/dispatch/mock.go -package=mocks

type dueRepository interface {
	SelectDue(ctx context.Context, now time.Time, limit int) ([]model.DueNotification, error)
	MarkSending(ctx context.Context, id int64) error
	MarkSent(ctx context.Context, id int64, waMessageID string, sentAt time.Time) error
	MarkRetry(ctx context.Context, id int64, errText string, retryAt time.Time) error
	MarkFailed(ctx context.Context, id int64, errText, reason string) error
}

type sender interface {
	Send(ctx context.Context, to, text string) (string, error)
}

type limiter interface {
	Allow(now time.Time) bool
}

// Dispatcher drains due notifications in batches on a fixed interval,
// gating each one through the business-hours window and the provider rate
// cap before sending.
type Dispatcher struct {
	repo    dueRepository
	sender  sender
	limiter limiter

	interval        time.Duration
	batchSize       int
	baseBackoff     time.Duration
	priorityCeiling int

	now func() time.Time
}

func NewDispatcher(repo dueRepository, s sender, l limiter, cfg config.Dispatch) *Dispatcher {
	return &Dispatcher{
		repo:            repo,
		sender:          s,
		limiter:         l,
		interval:        cfg.Interval,
		batchSize:       cfg.BatchSize,
		baseBackoff:     cfg.BaseBackoff,
		priorityCeiling: cfg.HighPriorityCeiling,
		now:             time.Now,
	}
}

// Run ticks until the context is cancelled. One tick failing never stops
// the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	zlog.Logger.Info().Dur("interval", d.interval).Msg("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("dispatcher stopped")
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick processes one batch of due notifications.
func (d *Dispatcher) Tick(ctx context.Context) {
	now := d.now()

	due, err := d.repo.SelectDue(ctx, now, d.batchSize)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to select due notifications")
		return
	}
	if len(due) == 0 {
		return
	}

	var sent, failed, deferred int
	for _, n := range due {
		if !d.shouldSendNow(now, n) {
			deferred++
			continue
		}
		if !d.limiter.Allow(now) {
			// out of send slots; the rest of the batch waits for the next tick
			deferred += len(due) - sent - failed - deferred
			break
		}

		if d.dispatchOne(ctx, n, now) {
			sent++
		} else {
			failed++
		}
	}

	zlog.Logger.Info().
		Int("processed", len(due)).
		Int("sent", sent).
		Int("failed", failed).
		Int("deferred", deferred).
		Msg("dispatch tick finished")
}

// shouldSendNow applies the business-hours gate. High-priority immediate
// notifications bypass it; a recipient without an active window config is
// always sendable.
func (d *Dispatcher) shouldSendNow(now time.Time, n model.DueNotification) bool {
	if n.SendKind == model.SendImmediate && n.Priority <= d.priorityCeiling {
		return true
	}
	return schedule.WithinWindow(now, n.Schedule)
}

// dispatchOne attempts a single send and records the outcome. It reports
// whether the message reached the provider.
func (d *Dispatcher) dispatchOne(ctx context.Context, n model.DueNotification, now time.Time) bool {
	if err := d.repo.MarkSending(ctx, n.ID); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", n.ID).Msg("failed to mark notification sending")
		return false
	}

	to, err := phone.Normalize(n.Phone)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Int64("id", n.ID).
			Str("phone", phone.Mask(n.Phone)).
			Msg("recipient phone invalid at dispatch time")
		if err := d.repo.MarkFailed(ctx, n.ID, err.Error(), "invalid phone"); err != nil {
			zlog.Logger.Error().Err(err).Int64("id", n.ID).Msg("failed to mark notification failed")
		}
		return false
	}

	messageID, err := d.sender.Send(ctx, to, n.Body)
	if err != nil {
		d.handleSendFailure(ctx, n, now, err)
		return false
	}

	if err := d.repo.MarkSent(ctx, n.ID, messageID, d.now()); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", n.ID).Msg("failed to mark notification sent")
		return false
	}

	zlog.Logger.Info().
		Int64("id", n.ID).
		Str("code", n.Code).
		Str("message_id", messageID).
		Msg("notification sent")
	return true
}

// handleSendFailure decides between a scheduled retry and a terminal
// failure. Permanent provider rejections and exhausted attempts finish the
// notification; anything else backs off exponentially.
func (d *Dispatcher) handleSendFailure(ctx context.Context, n model.DueNotification, now time.Time, sendErr error) {
	attempts := n.AttemptCount + 1

	if whatsapp.IsPermanent(sendErr) || attempts >= n.MaxAttempts {
		reason := "max attempts reached"
		if whatsapp.IsPermanent(sendErr) {
			reason = "permanent provider error"
		}
		zlog.Logger.Error().Err(sendErr).
			Int64("id", n.ID).
			Int("attempts", attempts).
			Msg("notification failed permanently")
		if err := d.repo.MarkFailed(ctx, n.ID, sendErr.Error(), reason); err != nil {
			zlog.Logger.Error().Err(err).Int64("id", n.ID).Msg("failed to mark notification failed")
		}
		return
	}

	// base backoff doubled per prior failure: 30s, 60s, 120s, ...
	retryAt := now.Add(d.baseBackoff * time.Duration(1<<n.AttemptCount))
	zlog.Logger.Warn().Err(sendErr).
		Int64("id", n.ID).
		Int("attempts", attempts).
		Time("retry_at", retryAt).
		Msg("send failed, scheduling retry")
	if err := d.repo.MarkRetry(ctx, n.ID, sendErr.Error(), retryAt); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", n.ID).Msg("failed to mark notification for retry")
	}
}
