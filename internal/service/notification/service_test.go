package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/obranet/valuation-notifier/internal/config"
	mocks "github.com/obranet/valuation-notifier/internal/mocks/service/notification"
	"github.com/obranet/valuation-notifier/internal/model"
)

func newTestService(t *testing.T) (*Service, *mocks.MocktemplateRepository, *mocks.MockrecipientRepository, *mocks.MocknotificationRepository, *mocks.Mockcache) {
	return newTestServiceWith(t, config.WhatsApp{})
}

func newTestServiceWith(t *testing.T, wa config.WhatsApp) (*Service, *mocks.MocktemplateRepository, *mocks.MockrecipientRepository, *mocks.MocknotificationRepository, *mocks.Mockcache) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	templatesMock := mocks.NewMocktemplateRepository(ctrl)
	recipientsMock := mocks.NewMockrecipientRepository(ctrl)
	repoMock := mocks.NewMocknotificationRepository(ctrl)
	cacheMock := mocks.NewMockcache(ctrl)

	svc := NewService(templatesMock, recipientsMock, repoMock, cacheMock, config.Dispatch{
		MaxAttempts:     3,
		DefaultTimezone: "America/Lima",
	}, wa)
	svc.now = func() time.Time {
		return time.Date(2025, 11, 10, 15, 0, 0, 0, time.UTC) // Monday 10:00 in Lima
	}

	return svc, templatesMock, recipientsMock, repoMock, cacheMock
}

func approvedTemplate() model.Template {
	return model.Template{
		ID:             1,
		EventKind:      model.EventApproved,
		ValuationState: "APPROVED",
		RecipientType:  model.RecipientContractor,
		Body:           "Hello {{recipient_name}}, valuation {{valuation_number}} is {{current_state}}.",
		Immediate:      true,
		Priority:       2,
	}
}

func TestService_CreateNotifications_Immediate(t *testing.T) {
	svc, templatesMock, recipientsMock, repoMock, cacheMock := newTestService(t)

	in := CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		PriorState:  "IN_REVIEW",
		NewState:    "APPROVED",
		Immediate:   true,
	}
	rec := model.Recipient{ID: 7, Name: "Maria", Phone: "987654321", Type: model.RecipientContractor}
	strategy := retry.Strategy{}

	templatesMock.EXPECT().ActiveFor(gomock.Any(), model.EventApproved, "APPROVED").
		Return([]model.Template{approvedTemplate()}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), model.EventApproved, model.RecipientContractor).
		Return([]model.Recipient{rec}, nil)
	recipientsMock.EXPECT().ScheduleConfigByID(gomock.Any(), int64(0)).Return(nil, nil)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification) (int64, error) {
			assert.Equal(t, model.StatusPending, n.Status)
			assert.Equal(t, model.SendImmediate, n.SendKind)
			assert.Nil(t, n.ScheduledAt)
			assert.Equal(t, 3, n.MaxAttempts)
			assert.Equal(t, 2, n.Priority)
			assert.True(t, strings.HasPrefix(n.Code, "WA-20251110-"))
			assert.Equal(t, "Hello Maria, valuation VAL-000042 is APPROVED.", n.Body)
			return 10, nil
		})
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), strategy, "10", "PENDING").Return(nil)

	result, err := svc.CreateNotifications(context.Background(), strategy, in)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Zero(t, result.Skipped)
	assert.Equal(t, "51987654321", result.Created[0].Phone)
	assert.Equal(t, model.StatusPending, result.Created[0].Status)
}

func TestService_CreateNotifications_Scheduled(t *testing.T) {
	svc, templatesMock, recipientsMock, repoMock, cacheMock := newTestService(t)

	tmpl := approvedTemplate()
	tmpl.Immediate = false
	rec := model.Recipient{ID: 7, Name: "Maria", Phone: "987654321", Type: model.RecipientContractor, ScheduleConfigID: 3}
	cfg := &model.ScheduleConfig{
		ID:          3,
		Timezone:    "America/Lima",
		WorkingDays: []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"},
		WindowStart: "08:00",
		WindowEnd:   "18:00",
		MaxAttempts: 5,
		Active:      true,
	}

	templatesMock.EXPECT().ActiveFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Template{tmpl}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Recipient{rec}, nil)
	recipientsMock.EXPECT().ScheduleConfigByID(gomock.Any(), int64(3)).Return(cfg, nil)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification) (int64, error) {
			assert.Equal(t, model.StatusScheduled, n.Status)
			assert.Equal(t, model.SendScheduled, n.SendKind)
			require.NotNil(t, n.ScheduledAt)
			assert.Equal(t, 5, n.MaxAttempts) // schedule config overrides the default
			return 11, nil
		})
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), "11", "SCHEDULED").Return(nil)

	result, err := svc.CreateNotifications(context.Background(), retry.Strategy{}, CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		NewState:    "APPROVED",
	})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	require.NotNil(t, result.Created[0].ScheduledAt)
}

func TestService_CreateNotifications_SkipsInvalidPhone(t *testing.T) {
	svc, templatesMock, recipientsMock, repoMock, cacheMock := newTestService(t)

	good := model.Recipient{ID: 1, Name: "Maria", Phone: "987654321"}
	bad := model.Recipient{ID: 2, Name: "Jose", Phone: "12345"}

	templatesMock.EXPECT().ActiveFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Template{approvedTemplate()}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Recipient{bad, good}, nil)
	recipientsMock.EXPECT().ScheduleConfigByID(gomock.Any(), int64(0)).Return(nil, nil)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Return(int64(12), nil)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), "12", gomock.Any()).Return(nil)

	result, err := svc.CreateNotifications(context.Background(), retry.Strategy{}, CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		NewState:    "APPROVED",
		Immediate:   true,
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "Maria", result.Created[0].RecipientName)
}

func TestService_CreateNotifications_SkipsUnresolvedTemplate(t *testing.T) {
	svc, templatesMock, recipientsMock, _, _ := newTestService(t)

	tmpl := approvedTemplate()
	tmpl.Body = "Budget is {{approved_budget}}"

	templatesMock.EXPECT().ActiveFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Template{tmpl}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Recipient{{ID: 1, Name: "Maria", Phone: "987654321"}}, nil)

	result, err := svc.CreateNotifications(context.Background(), retry.Strategy{}, CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		NewState:    "APPROVED",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestService_CreateNotifications_ExtraVarsOverride(t *testing.T) {
	svc, templatesMock, recipientsMock, repoMock, cacheMock := newTestService(t)

	tmpl := approvedTemplate()
	tmpl.Body = "Amount: {{amount}}"

	templatesMock.EXPECT().ActiveFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Template{tmpl}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Recipient{{ID: 1, Name: "Maria", Phone: "987654321"}}, nil)
	recipientsMock.EXPECT().ScheduleConfigByID(gomock.Any(), int64(0)).Return(nil, nil)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification) (int64, error) {
			assert.Equal(t, "Amount: 1250.50", n.Body)
			return 13, nil
		})
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), "13", gomock.Any()).Return(nil)

	_, err := svc.CreateNotifications(context.Background(), retry.Strategy{}, CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		NewState:    "APPROVED",
		ExtraVars:   map[string]string{"amount": "1250.50"},
		Immediate:   true,
	})
	require.NoError(t, err)
}

// The provider body limit comes from configuration, not a baked-in constant.
func TestService_CreateNotifications_ConfiguredMaxLength(t *testing.T) {
	svc, templatesMock, recipientsMock, repoMock, cacheMock := newTestServiceWith(t, config.WhatsApp{MaxLength: 60})

	tmpl := approvedTemplate()
	tmpl.Body = "{{observations}}"

	templatesMock.EXPECT().ActiveFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Template{tmpl}, nil)
	recipientsMock.EXPECT().EligibleFor(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Recipient{{ID: 1, Name: "Maria", Phone: "987654321"}}, nil)
	recipientsMock.EXPECT().ScheduleConfigByID(gomock.Any(), int64(0)).Return(nil, nil)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n model.Notification) (int64, error) {
			assert.Len(t, []rune(n.Body), 60)
			assert.True(t, strings.HasSuffix(n.Body, "..."))
			return 14, nil
		})
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), gomock.Any(), "14", gomock.Any()).Return(nil)

	_, err := svc.CreateNotifications(context.Background(), retry.Strategy{}, CreateInput{
		ValuationID: 42,
		Event:       model.EventApproved,
		NewState:    "APPROVED",
		ExtraVars:   map[string]string{"observations": strings.Repeat("x", 200)},
		Immediate:   true,
	})
	require.NoError(t, err)
}

func TestService_GetStatusByID_CacheHit(t *testing.T) {
	svc, _, _, _, cacheMock := newTestService(t)

	strategy := retry.Strategy{}
	cacheMock.EXPECT().GetWithRetry(gomock.Any(), strategy, "5").Return("SENT", nil)

	status, err := svc.GetStatusByID(context.Background(), strategy, 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, status)
}

func TestService_GetStatusByID_CacheMiss(t *testing.T) {
	svc, _, _, repoMock, cacheMock := newTestService(t)

	strategy := retry.Strategy{}
	cacheMock.EXPECT().GetWithRetry(gomock.Any(), strategy, "5").Return("", redis.Nil)
	repoMock.EXPECT().GetStatusByID(gomock.Any(), int64(5)).Return(model.StatusDelivered, nil)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), strategy, "5", "DELIVERED").Return(nil)

	status, err := svc.GetStatusByID(context.Background(), strategy, 5)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, status)
}

func TestService_Cancel(t *testing.T) {
	svc, _, _, repoMock, cacheMock := newTestService(t)

	strategy := retry.Strategy{}
	repoMock.EXPECT().Cancel(gomock.Any(), int64(8)).Return(nil)
	cacheMock.EXPECT().SetWithRetry(gomock.Any(), strategy, "8", "CANCELLED").Return(nil)

	err := svc.Cancel(context.Background(), strategy, 8)
	require.NoError(t, err)
}

func TestService_Requeue(t *testing.T) {
	svc, _, _, repoMock, _ := newTestService(t)

	repoMock.EXPECT().Requeue(gomock.Any(), svc.now().Add(-2*time.Hour)).Return(int64(4), nil)

	count, err := svc.Requeue(context.Background(), 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
