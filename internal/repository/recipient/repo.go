package recipient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/obranet/valuation-notifier/internal/model"
)

// Repository provides read access to the recipients table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new recipient repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// EligibleFor retrieves active, opted-in recipients subscribed to the given
// event, filtered by the template's recipient type unless it is BOTH.
func (r *Repository) EligibleFor(ctx context.Context, event model.EventKind, recipientType model.RecipientType) ([]model.Recipient, error) {
	query := `
		SELECT id, name, role, phone, type, active, opted_in,
		       subscribed_events, COALESCE(schedule_config_id, 0)
		FROM recipients
		WHERE active = TRUE
		  AND opted_in = TRUE
		  AND subscribed_events LIKE '%"' || $1 || '"%'
		  AND ($2 = 'BOTH' OR type = $2);
    `

	rows, err := r.db.QueryContext(ctx, query, event, recipientType)
	if err != nil {
		return nil, fmt.Errorf("failed to get eligible recipients: %w", err)
	}
	defer rows.Close()

	var recipients []model.Recipient
	for rows.Next() {
		var (
			rec    model.Recipient
			events string
		)
		err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Role, &rec.Phone, &rec.Type,
			&rec.Active, &rec.OptedIn, &events, &rec.ScheduleConfigID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}

		if events != "" {
			if err := json.Unmarshal([]byte(events), &rec.SubscribedEvents); err != nil {
				return nil, fmt.Errorf("failed to decode subscribed events: %w", err)
			}
		}

		recipients = append(recipients, rec)
	}

	return recipients, rows.Err()
}

// ScheduleConfigByID retrieves a schedule config; a zero id returns nil
// without error.
func (r *Repository) ScheduleConfigByID(ctx context.Context, id int64) (*model.ScheduleConfig, error) {
	if id == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, timezone, working_days, window_start, window_end,
		       max_attempts, active
		FROM schedule_configs
		WHERE id = $1;
    `

	var (
		cfg  model.ScheduleConfig
		days string
	)
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&cfg.ID, &cfg.Name, &cfg.Timezone, &days,
		&cfg.WindowStart, &cfg.WindowEnd, &cfg.MaxAttempts, &cfg.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule config: %w", err)
	}

	if days != "" {
		if err := json.Unmarshal([]byte(days), &cfg.WorkingDays); err != nil {
			return nil, fmt.Errorf("failed to decode working days: %w", err)
		}
	}

	return &cfg, nil
}
