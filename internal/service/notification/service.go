package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/obranet/valuation-notifier/internal/config"
	"github.com/obranet/valuation-notifier/internal/model"
	"github.com/obranet/valuation-notifier/internal/schedule"
	"github.com/obranet/valuation-notifier/pkg/phone"
)

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type templateRepository interface {
	ActiveFor(ctx context.Context, event model.EventKind, valuationState string) ([]model.Template, error)
}

type recipientRepository interface {
	EligibleFor(ctx context.Context, event model.EventKind, recipientType model.RecipientType) ([]model.Recipient, error)
	ScheduleConfigByID(ctx context.Context, id int64) (*model.ScheduleConfig, error)
}

type notificationRepository interface {
	Create(ctx context.Context, n model.Notification) (int64, error)
	GetStatusByID(ctx context.Context, id int64) (model.Status, error)
	Cancel(ctx context.Context, id int64) error
	Requeue(ctx context.Context, since time.Time) (int64, error)
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// CreateInput describes one valuation state change reported by the caller.
type CreateInput struct {
	ValuationID     int64
	Event           model.EventKind
	PriorState      string
	NewState        string
	WorkName        string
	ValuationNumber string
	ExtraVars       map[string]string
	Immediate       bool
}

// CreatedSummary describes one notification produced for a state change.
type CreatedSummary struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	RecipientName string       `json:"recipient_name"`
	Phone         string       `json:"phone"`
	Status        model.Status `json:"status"`
	ScheduledAt   *time.Time   `json:"scheduled_at,omitempty"`
}

// CreateResult reports every notification created for a state change and
// how many recipient/template pairs were skipped.
type CreateResult struct {
	Created []CreatedSummary `json:"created"`
	Skipped int              `json:"skipped"`
}

// Service resolves valuation events into persisted notifications and serves
// status lookups through the cache.
type Service struct {
	templates  templateRepository
	recipients recipientRepository
	repo       notificationRepository
	cache      cache

	maxAttempts int
	maxLength   int
	loc         *time.Location
	now         func() time.Time
}

func NewService(
	templates templateRepository,
	recipients recipientRepository,
	repo notificationRepository,
	cache cache,
	cfg config.Dispatch,
	wa config.WhatsApp,
) *Service {
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("timezone", cfg.DefaultTimezone).Msg("falling back to UTC")
		loc = time.UTC
	}

	maxLength := wa.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	return &Service{
		templates:   templates,
		recipients:  recipients,
		repo:        repo,
		cache:       cache,
		maxAttempts: cfg.MaxAttempts,
		maxLength:   maxLength,
		loc:         loc,
		now:         time.Now,
	}
}

// CreateNotifications fans a state change out into one notification per
// matching template and eligible recipient. A recipient with an invalid
// phone, a template with unresolved placeholders, or a failed insert skips
// that single notification; the rest of the batch proceeds.
func (s *Service) CreateNotifications(ctx context.Context, strategy retry.Strategy, in CreateInput) (CreateResult, error) {
	templates, err := s.templates.ActiveFor(ctx, in.Event, in.NewState)
	if err != nil {
		return CreateResult{}, fmt.Errorf("get templates: %w", err)
	}

	var result CreateResult
	if len(templates) == 0 {
		zlog.Logger.Info().
			Str("event", string(in.Event)).
			Str("state", in.NewState).
			Msg("no active templates for event")
		return result, nil
	}

	now := s.now().In(s.loc)

	for _, tmpl := range templates {
		recipients, err := s.recipients.EligibleFor(ctx, in.Event, tmpl.RecipientType)
		if err != nil {
			return CreateResult{}, fmt.Errorf("get recipients: %w", err)
		}

		for _, rec := range recipients {
			summary, ok := s.createOne(ctx, strategy, in, tmpl, rec, now)
			if !ok {
				result.Skipped++
				continue
			}
			result.Created = append(result.Created, summary)
		}
	}

	return result, nil
}

// createOne builds and persists a single notification. It returns false when
// the recipient or template cannot produce a sendable message.
func (s *Service) createOne(
	ctx context.Context,
	strategy retry.Strategy,
	in CreateInput,
	tmpl model.Template,
	rec model.Recipient,
	now time.Time,
) (CreatedSummary, bool) {
	normalized, err := phone.Normalize(rec.Phone)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Int64("recipient_id", rec.ID).
			Str("phone", phone.Mask(rec.Phone)).
			Msg("skipping recipient with invalid phone")
		return CreatedSummary{}, false
	}

	vars := s.buildVars(in, rec, now)

	body, err := render(tmpl.Body, vars, s.maxLength)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Int64("template_id", tmpl.ID).
			Int64("recipient_id", rec.ID).
			Msg("skipping notification with unresolved template")
		return CreatedSummary{}, false
	}

	subject := ""
	if tmpl.Subject != "" {
		if subject, err = render(tmpl.Subject, vars, s.maxLength); err != nil {
			zlog.Logger.Warn().Err(err).
				Int64("template_id", tmpl.ID).
				Msg("skipping notification with unresolved subject")
			return CreatedSummary{}, false
		}
	}

	n := model.Notification{
		Code:         newCode(now),
		ValuationID:  in.ValuationID,
		TemplateID:   tmpl.ID,
		RecipientID:  rec.ID,
		EventKind:    in.Event,
		PriorState:   in.PriorState,
		CurrentState: in.NewState,
		Subject:      subject,
		Body:         body,
		Priority:     tmpl.Priority,
		MaxAttempts:  s.maxAttempts,
	}

	if used, err := json.Marshal(vars); err == nil {
		n.VariablesUsed = string(used)
	}

	cfg, err := s.recipients.ScheduleConfigByID(ctx, rec.ScheduleConfigID)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Int64("recipient_id", rec.ID).
			Msg("failed to load schedule config, sending without window")
		cfg = nil
	}
	if cfg != nil && cfg.MaxAttempts > 0 {
		n.MaxAttempts = cfg.MaxAttempts
	}

	if in.Immediate && tmpl.Immediate {
		n.SendKind = model.SendImmediate
		n.Status = model.StatusPending
	} else {
		at := schedule.NextSendTime(now, cfg)
		n.SendKind = model.SendScheduled
		n.Status = model.StatusScheduled
		n.ScheduledAt = &at
	}

	id, err := s.repo.Create(ctx, n)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Str("code", n.Code).
			Int64("recipient_id", rec.ID).
			Msg("failed to create notification")
		return CreatedSummary{}, false
	}

	if err := s.cache.SetWithRetry(ctx, strategy, strconv.FormatInt(id, 10), string(n.Status)); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to cache notification status")
	}

	return CreatedSummary{
		ID:            id,
		Code:          n.Code,
		RecipientName: rec.Name,
		Phone:         normalized,
		Status:        n.Status,
		ScheduledAt:   n.ScheduledAt,
	}, true
}

// buildVars assembles the substitution map for one recipient. Caller-supplied
// extra variables win over the generated ones.
func (s *Service) buildVars(in CreateInput, rec model.Recipient, now time.Time) map[string]string {
	number := in.ValuationNumber
	if number == "" {
		number = fmt.Sprintf("VAL-%06d", in.ValuationID)
	}
	workName := in.WorkName
	if workName == "" {
		workName = fmt.Sprintf("Work #%d", in.ValuationID)
	}

	vars := map[string]string{
		"recipient_name":   rec.Name,
		"recipient_role":   rec.Role,
		"prior_state":      in.PriorState,
		"current_state":    in.NewState,
		"change_date":      now.Format("02/01/2006 15:04"),
		"valuation_id":     strconv.FormatInt(in.ValuationID, 10),
		"valuation_number": number,
		"work_name":        workName,
		"period":           now.Format("01/2006"),
		"amount":           "0.00",
		"observations":     "",
	}

	for k, v := range in.ExtraVars {
		vars[k] = v
	}

	return vars
}

// GetStatusByID returns the current status, serving from the cache when
// possible and refilling it on a miss.
func (s *Service) GetStatusByID(ctx context.Context, strategy retry.Strategy, id int64) (model.Status, error) {
	key := strconv.FormatInt(id, 10)

	cached, err := s.cache.GetWithRetry(ctx, strategy, key)
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to get notification status from cache")
	}
	if err == nil && cached != "" {
		return model.Status(cached), nil
	}

	status, err := s.repo.GetStatusByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get notification status: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, key, string(status)); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to cache notification status")
	}

	return status, nil
}

// Cancel marks a pending or scheduled notification as cancelled.
func (s *Service) Cancel(ctx context.Context, strategy retry.Strategy, id int64) error {
	if err := s.repo.Cancel(ctx, id); err != nil {
		return fmt.Errorf("cancel notification: %w", err)
	}

	key := strconv.FormatInt(id, 10)
	if err := s.cache.SetWithRetry(ctx, strategy, key, string(model.StatusCancelled)); err != nil {
		zlog.Logger.Error().Err(err).Int64("id", id).Msg("failed to cache notification status")
	}

	return nil
}

// Requeue returns recently failed notifications with attempts left to the
// dispatch queue and reports how many rows were requeued.
func (s *Service) Requeue(ctx context.Context, window time.Duration) (int64, error) {
	since := s.now().Add(-window)

	count, err := s.repo.Requeue(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("requeue notifications: %w", err)
	}

	zlog.Logger.Info().Int64("count", count).Time("since", since).Msg("requeued failed notifications")
	return count, nil
}

// newCode builds a human-readable notification code like WA-20251110-3FA2BC.
func newCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("WA-%s-%s", now.Format("20060102"), suffix)
}
