package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wb-go/wbf/dbpg"

	"github.com/obranet/valuation-notifier/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrStatusSuperseded reports that a guarded advance matched no row:
	// a concurrent event already moved the notification at least as far.
	ErrStatusSuperseded = errors.New("notification status already superseded")
)

// Repository provides methods to interact with the notifications and
// notification_history tables.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification together with its initial history row
// and returns its ID.
func (r *Repository) Create(ctx context.Context, n model.Notification) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO notifications (
		    code, valuation_id, template_id, recipient_id, event_kind,
		    prior_state, current_state, subject, body, variables_used,
		    send_kind, scheduled_at, priority, status, max_attempts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id;
    `

	var id int64
	err = tx.QueryRowContext(
		ctx, query,
		n.Code, n.ValuationID, n.TemplateID, n.RecipientID, n.EventKind,
		n.PriorState, n.CurrentState, n.Subject, n.Body, n.VariablesUsed,
		n.SendKind, n.ScheduledAt, n.Priority, n.Status, n.MaxAttempts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create notification: %w", err)
	}

	historyQuery := `
		INSERT INTO notification_history (notification_id, old_status, new_status, reason)
		VALUES ($1, NULL, $2, $3);
    `

	if _, err = tx.ExecContext(ctx, historyQuery, id, n.Status, "created"); err != nil {
		return 0, fmt.Errorf("failed to record history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// SelectDue retrieves the next dispatchable batch: pending or scheduled
// notifications with attempts left whose scheduled time has passed, joined
// with recipient and schedule-config data, ordered by priority then
// scheduled time.
func (r *Repository) SelectDue(ctx context.Context, now time.Time, limit int) ([]model.DueNotification, error) {
	query := `
		SELECT n.id, n.code, n.event_kind, n.subject, n.body,
		       n.send_kind, n.scheduled_at, n.priority, n.status,
		       n.attempt_count, n.max_attempts,
		       r.name, r.phone,
		       sc.id, sc.name, sc.timezone, sc.working_days,
		       sc.window_start, sc.window_end, sc.active
		FROM notifications n
		JOIN recipients r ON r.id = n.recipient_id
		LEFT JOIN schedule_configs sc ON sc.id = r.schedule_config_id
		WHERE n.status IN ('PENDING', 'SCHEDULED')
		  AND r.active = TRUE
		  AND n.attempt_count < n.max_attempts
		  AND (n.scheduled_at IS NULL OR n.scheduled_at <= $1)
		ORDER BY n.priority ASC, n.scheduled_at ASC NULLS FIRST
		LIMIT $2;
    `

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due notifications: %w", err)
	}
	defer rows.Close()

	var due []model.DueNotification
	for rows.Next() {
		var (
			d           model.DueNotification
			scID        sql.NullInt64
			scName      sql.NullString
			scTimezone  sql.NullString
			scDays      sql.NullString
			scStart     sql.NullString
			scEnd       sql.NullString
			scActive    sql.NullBool
			scheduledAt sql.NullTime
		)

		err := rows.Scan(
			&d.ID, &d.Code, &d.EventKind, &d.Subject, &d.Body,
			&d.SendKind, &scheduledAt, &d.Priority, &d.Status,
			&d.AttemptCount, &d.MaxAttempts,
			&d.RecipientName, &d.Phone,
			&scID, &scName, &scTimezone, &scDays,
			&scStart, &scEnd, &scActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due notification: %w", err)
		}

		if scheduledAt.Valid {
			t := scheduledAt.Time
			d.ScheduledAt = &t
		}

		if scID.Valid {
			cfg := &model.ScheduleConfig{
				ID:          scID.Int64,
				Name:        scName.String,
				Timezone:    scTimezone.String,
				WindowStart: scStart.String,
				WindowEnd:   scEnd.String,
				Active:      scActive.Bool,
			}
			if scDays.Valid && scDays.String != "" {
				if err := json.Unmarshal([]byte(scDays.String), &cfg.WorkingDays); err != nil {
					return nil, fmt.Errorf("failed to decode working days: %w", err)
				}
			}
			d.Schedule = cfg
		}

		due = append(due, d)
	}

	return due, rows.Err()
}

// setStatus updates a notification's status and appends a history row in
// one transaction. extra is trailing SET clauses with their arguments.
func (r *Repository) setStatus(ctx context.Context, id int64, newStatus model.Status, reason string, extra string, args ...interface{}) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE notifications
		SET status = $1, status_changed_at = now(), updated_at = now()` + extra + `
		WHERE id = $2
		RETURNING (SELECT status FROM notifications WHERE id = $2);
    `

	queryArgs := append([]interface{}{newStatus, id}, args...)

	var oldStatus model.Status
	err = tx.QueryRowContext(ctx, query, queryArgs...).Scan(&oldStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	historyQuery := `
		INSERT INTO notification_history (notification_id, old_status, new_status, reason)
		VALUES ($1, $2, $3, $4);
    `

	if _, err = tx.ExecContext(ctx, historyQuery, id, oldStatus, newStatus, reason); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// MarkSending transitions a notification to SENDING.
func (r *Repository) MarkSending(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, model.StatusSending, "dispatch started", "")
}

// MarkSent records a successful provider send.
func (r *Repository) MarkSent(ctx context.Context, id int64, waMessageID string, sentAt time.Time) error {
	return r.setStatus(ctx, id, model.StatusSent, "message sent",
		", wa_message_id = $3, sent_at = $4, attempt_count = attempt_count + 1",
		waMessageID, sentAt,
	)
}

// MarkRetry records a failed attempt and re-queues the notification as
// SCHEDULED for the given retry instant.
func (r *Repository) MarkRetry(ctx context.Context, id int64, errText string, retryAt time.Time) error {
	return r.setStatus(ctx, id, model.StatusPending, "send failed, retry scheduled",
		`, attempt_count = attempt_count + 1, last_error = $3, last_error_at = now(),
		  scheduled_at = $4, send_kind = 'SCHEDULED'`,
		errText, retryAt,
	)
}

// MarkFailed consumes an attempt and moves the notification to terminal
// ERROR with the failure text preserved.
func (r *Repository) MarkFailed(ctx context.Context, id int64, errText, reason string) error {
	return r.setStatus(ctx, id, model.StatusError, reason,
		", attempt_count = attempt_count + 1, last_error = $3, last_error_at = now()",
		errText,
	)
}

// Cancel administratively cancels a notification unless it already reached
// a terminal state.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE notifications
		SET status = 'CANCELLED', status_changed_at = now(), updated_at = now()
		WHERE id = $1 AND status NOT IN ('READ', 'ERROR', 'CANCELLED')
		RETURNING (SELECT status FROM notifications WHERE id = $1);
    `

	var oldStatus model.Status
	err = tx.QueryRowContext(ctx, query, id).Scan(&oldStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to cancel notification: %w", err)
	}

	historyQuery := `
		INSERT INTO notification_history (notification_id, old_status, new_status, reason)
		VALUES ($1, $2, 'CANCELLED', 'cancelled by operator');
    `

	if _, err = tx.ExecContext(ctx, historyQuery, id, oldStatus); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByMessageID looks a notification up by its provider message id.
func (r *Repository) GetByMessageID(ctx context.Context, waMessageID string) (model.Notification, error) {
	query := `
		SELECT id, code, status, delivered_at, read_at
		FROM notifications
		WHERE wa_message_id = $1;
    `

	var (
		n           model.Notification
		deliveredAt sql.NullTime
		readAt      sql.NullTime
	)
	err := r.db.Master.QueryRowContext(ctx, query, waMessageID).Scan(&n.ID, &n.Code, &n.Status, &deliveredAt, &readAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}
		return model.Notification{}, fmt.Errorf("failed to get notification by message id: %w", err)
	}

	if deliveredAt.Valid {
		t := deliveredAt.Time
		n.DeliveredAt = &t
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	return n, nil
}

// statusesByRank lists every status in rank order, for building advance
// guards.
var statusesByRank = []model.Status{
	model.StatusPending, model.StatusScheduled, model.StatusSending,
	model.StatusSent, model.StatusDelivered, model.StatusRead,
	model.StatusError, model.StatusCancelled,
}

// rankGuard quotes every status strictly below newStatus for an IN clause.
func rankGuard(newStatus model.Status) string {
	var quoted []string
	for _, s := range statusesByRank {
		if s.Rank() < newStatus.Rank() {
			quoted = append(quoted, "'"+string(s)+"'")
		}
	}
	return strings.Join(quoted, ", ")
}

// AdvanceStatus applies a webhook-driven forward transition, optionally
// setting delivery and read timestamps when they are still unset. The rank
// guard sits in the UPDATE itself, so concurrent events for the same
// message cannot move the row backwards no matter how their commits
// interleave; the losing writer gets ErrStatusSuperseded.
func (r *Repository) AdvanceStatus(ctx context.Context, id int64, newStatus model.Status, reason string, deliveredAt, readAt *time.Time) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE notifications
		SET status = $1, status_changed_at = now(), updated_at = now(),
		    delivered_at = COALESCE(delivered_at, $3), read_at = COALESCE(read_at, $4)
		WHERE id = $2 AND status IN (` + rankGuard(newStatus) + `)
		RETURNING (SELECT status FROM notifications WHERE id = $2);
    `

	var oldStatus model.Status
	err = tx.QueryRowContext(ctx, query, newStatus, id, deliveredAt, readAt).Scan(&oldStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusSuperseded
		}
		return fmt.Errorf("failed to advance notification status: %w", err)
	}

	historyQuery := `
		INSERT INTO notification_history (notification_id, old_status, new_status, reason)
		VALUES ($1, $2, $3, $4);
    `

	if _, err = tx.ExecContext(ctx, historyQuery, id, oldStatus, newStatus, reason); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetStatusByID retrieves the status of a notification by its ID.
func (r *Repository) GetStatusByID(ctx context.Context, id int64) (model.Status, error) {
	query := `
		SELECT status
		FROM notifications
		WHERE id = $1;
    `

	var status model.Status
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotificationNotFound
		}
		return "", fmt.Errorf("failed to get notification status: %w", err)
	}

	return status, nil
}

// Requeue resets recent ERROR notifications with attempts left back to
// PENDING and returns how many were reset.
func (r *Repository) Requeue(ctx context.Context, since time.Time) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'PENDING', status_changed_at = now(), updated_at = now()
		WHERE status = 'ERROR'
		  AND last_error_at > $1
		  AND attempt_count < max_attempts;
    `

	res, err := r.db.ExecContext(ctx, query, since)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue notifications: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

// DeleteTerminalBefore purges terminal-state notifications created before
// the cutoff. History rows cascade.
func (r *Repository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM notifications
		WHERE created_at < $1
		  AND status IN ('SENT', 'DELIVERED', 'READ', 'ERROR', 'CANCELLED');
    `

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}
