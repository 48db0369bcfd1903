package template

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/obranet/valuation-notifier/internal/model"
)

// Repository provides read access to the templates table. Templates are
// authored outside this service.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new template repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// ActiveFor retrieves all active templates matching a trigger event and
// valuation state. An empty result is not an error.
func (r *Repository) ActiveFor(ctx context.Context, event model.EventKind, valuationState string) ([]model.Template, error) {
	query := `
		SELECT id, code, name, event_kind, valuation_state, recipient_type,
		       subject, body, immediate, priority, active
		FROM templates
		WHERE event_kind = $1
		  AND valuation_state = $2
		  AND active = TRUE;
    `

	rows, err := r.db.QueryContext(ctx, query, event, valuationState)
	if err != nil {
		return nil, fmt.Errorf("failed to get active templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var t model.Template
		err := rows.Scan(
			&t.ID, &t.Code, &t.Name, &t.EventKind, &t.ValuationState, &t.RecipientType,
			&t.Subject, &t.Body, &t.Immediate, &t.Priority, &t.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		templates = append(templates, t)
	}

	return templates, rows.Err()
}
