package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/obranet/valuation-notifier/internal/config"
	mocks "github.com/obranet/valuation-notifier/internal/mocks/dispatch"
	"github.com/obranet/valuation-notifier/internal/model"
	"github.com/obranet/valuation-notifier/pkg/whatsapp"
)

// Monday 10:00 in Lima.
var testNow = time.Date(2025, 11, 10, 15, 0, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T) (*Dispatcher, *mocks.MockdueRepository, *mocks.Mocksender, *mocks.Mocklimiter) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repoMock := mocks.NewMockdueRepository(ctrl)
	senderMock := mocks.NewMocksender(ctrl)
	limiterMock := mocks.NewMocklimiter(ctrl)

	d := NewDispatcher(repoMock, senderMock, limiterMock, config.Dispatch{
		Interval:            30 * time.Second,
		BatchSize:           50,
		MaxAttempts:         3,
		BaseBackoff:         30 * time.Second,
		HighPriorityCeiling: 2,
	})
	d.now = func() time.Time { return testNow }

	return d, repoMock, senderMock, limiterMock
}

func dueNotification(id int64, kind model.SendKind, priority int) model.DueNotification {
	return model.DueNotification{
		Notification: model.Notification{
			ID:          id,
			Code:        "WA-20251110-AB12CD",
			EventKind:   model.EventApproved,
			Body:        "Valuation VAL-000042 approved",
			SendKind:    kind,
			Priority:    priority,
			Status:      model.StatusPending,
			MaxAttempts: 3,
		},
		RecipientName: "Maria",
		Phone:         "51987654321",
	}
}

func businessHours(days ...string) *model.ScheduleConfig {
	return &model.ScheduleConfig{
		ID:          1,
		Timezone:    "America/Lima",
		WorkingDays: days,
		WindowStart: "08:00",
		WindowEnd:   "18:00",
		Active:      true,
	}
}

func TestDispatcher_TickSendsDue(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), "51987654321", n.Body).Return("wamid.ABC", nil)
	repoMock.EXPECT().MarkSent(gomock.Any(), int64(1), "wamid.ABC", testNow).Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_TickDefersOutsideWindow(t *testing.T) {
	d, repoMock, _, _ := newTestDispatcher(t)

	n := dueNotification(1, model.SendScheduled, 5)
	n.Schedule = businessHours("SUNDAY") // test clock is a Monday

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)

	d.Tick(context.Background())
}

func TestDispatcher_HighPriorityBypassesWindow(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 1)
	n.Schedule = businessHours("SUNDAY")

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("wamid.ABC", nil)
	repoMock.EXPECT().MarkSent(gomock.Any(), int64(1), "wamid.ABC", testNow).Return(nil)

	d.Tick(context.Background())
}

// Low-priority immediate notifications respect the recipient window.
func TestDispatcher_LowPriorityImmediateWaitsForWindow(t *testing.T) {
	d, repoMock, _, _ := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	n.Schedule = businessHours("SUNDAY")

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)

	d.Tick(context.Background())
}

func TestDispatcher_RateLimitDefersRestOfBatch(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	first := dueNotification(1, model.SendImmediate, 5)
	second := dueNotification(2, model.SendImmediate, 5)

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).
		Return([]model.DueNotification{first, second}, nil)

	gomock.InOrder(
		limiterMock.EXPECT().Allow(testNow).Return(true),
		limiterMock.EXPECT().Allow(testNow).Return(false),
	)

	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("wamid.ONE", nil)
	repoMock.EXPECT().MarkSent(gomock.Any(), int64(1), "wamid.ONE", testNow).Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_TransientFailureSchedulesRetry(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	transient := &whatsapp.APIError{StatusCode: 500, Message: "server hiccup"}

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", transient)

	// first failure retries after the base backoff
	retryAt := testNow.Add(30 * time.Second)
	repoMock.EXPECT().MarkRetry(gomock.Any(), int64(1), transient.Error(), retryAt).Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_BackoffDoublesPerAttempt(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	n.AttemptCount = 1
	n.MaxAttempts = 5
	transient := &whatsapp.APIError{StatusCode: 503}

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", transient)

	retryAt := testNow.Add(60 * time.Second)
	repoMock.EXPECT().MarkRetry(gomock.Any(), int64(1), transient.Error(), retryAt).Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_PermanentFailureStopsRetrying(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	permanent := &whatsapp.APIError{StatusCode: 400, Message: "invalid recipient"}

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", permanent)
	repoMock.EXPECT().MarkFailed(gomock.Any(), int64(1), permanent.Error(), "permanent provider error").Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_LastAttemptFailsTerminally(t *testing.T) {
	d, repoMock, senderMock, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	n.AttemptCount = 2 // this is the third and final attempt
	transient := &whatsapp.APIError{StatusCode: 500}

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	senderMock.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", transient)
	repoMock.EXPECT().MarkFailed(gomock.Any(), int64(1), transient.Error(), "max attempts reached").Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_InvalidPhoneFailsWithoutSending(t *testing.T) {
	d, repoMock, _, limiterMock := newTestDispatcher(t)

	n := dueNotification(1, model.SendImmediate, 5)
	n.Phone = "12345"

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).Return([]model.DueNotification{n}, nil)
	limiterMock.EXPECT().Allow(testNow).Return(true)
	repoMock.EXPECT().MarkSending(gomock.Any(), int64(1)).Return(nil)
	repoMock.EXPECT().MarkFailed(gomock.Any(), int64(1), gomock.Any(), "invalid phone").Return(nil)

	d.Tick(context.Background())
}

func TestDispatcher_SelectErrorSkipsTick(t *testing.T) {
	d, repoMock, _, _ := newTestDispatcher(t)

	repoMock.EXPECT().SelectDue(gomock.Any(), testNow, 50).
		Return(nil, assert.AnError)

	d.Tick(context.Background())
}
