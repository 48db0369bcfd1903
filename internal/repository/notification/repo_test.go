package notification

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/dbpg"

	"github.com/obranet/valuation-notifier/internal/model"
)

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock db: %v", err)
	}

	wrappedDB := &dbpg.DB{Master: db}
	repo := NewRepository(wrappedDB)

	return repo, mock
}

func TestCreate(t *testing.T) {
	repo, mock := setupMockDB(t)

	n := model.Notification{
		Code:         "WA-20251110-AB12CD",
		ValuationID:  42,
		TemplateID:   1,
		RecipientID:  7,
		EventKind:    model.EventApproved,
		CurrentState: "APPROVED",
		Body:         "Valuation approved",
		SendKind:     model.SendImmediate,
		Priority:     5,
		Status:       model.StatusPending,
		MaxAttempts:  3,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(
			n.Code, n.ValuationID, n.TemplateID, n.RecipientID, n.EventKind,
			n.PriorState, n.CurrentState, n.Subject, n.Body, n.VariablesUsed,
			n.SendKind, n.ScheduledAt, n.Priority, n.Status, n.MaxAttempts,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectExec("INSERT INTO notification_history").
		WithArgs(int64(10), n.Status, "created").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectDue(t *testing.T) {
	repo, mock := setupMockDB(t)

	now := time.Now()
	cols := []string{
		"id", "code", "event_kind", "subject", "body",
		"send_kind", "scheduled_at", "priority", "status",
		"attempt_count", "max_attempts",
		"name", "phone",
		"sc_id", "sc_name", "sc_timezone", "sc_working_days",
		"sc_window_start", "sc_window_end", "sc_active",
	}

	mock.ExpectQuery("FROM notifications n").
		WithArgs(now, 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(
				int64(1), "WA-20251110-AB12CD", "APPROVED", "", "body one",
				"IMMEDIATE", nil, 2, "PENDING",
				0, 3,
				"Maria", "51987654321",
				int64(1), "business hours", "America/Lima", `["MONDAY","FRIDAY"]`,
				"08:00", "18:00", true,
			).
			AddRow(
				int64(2), "WA-20251110-EF34GH", "REJECTED", "", "body two",
				"SCHEDULED", now, 5, "SCHEDULED",
				1, 3,
				"Jose", "51912345678",
				nil, nil, nil, nil,
				nil, nil, nil,
			))

	due, err := repo.SelectDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, due, 2)

	assert.Equal(t, int64(1), due[0].ID)
	require.NotNil(t, due[0].Schedule)
	assert.Equal(t, []string{"MONDAY", "FRIDAY"}, due[0].Schedule.WorkingDays)
	assert.True(t, due[0].Schedule.Active)

	assert.Equal(t, int64(2), due[1].ID)
	assert.Nil(t, due[1].Schedule)
	require.NotNil(t, due[1].ScheduledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent(t *testing.T) {
	repo, mock := setupMockDB(t)

	sentAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE notifications").
		WithArgs(model.StatusSent, int64(5), "wamid.XYZ", sentAt).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("SENDING"))
	mock.ExpectExec("INSERT INTO notification_history").
		WithArgs(int64(5), model.StatusSending, model.StatusSent, "message sent").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.MarkSent(context.Background(), 5, "wamid.XYZ", sentAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE notifications").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.MarkSent(context.Background(), 99, "wamid.XYZ", time.Now())
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestGetStatusByID(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT status").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("DELIVERED"))

	status, err := repo.GetStatusByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, status)
}

func TestGetStatusByIDNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT status").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	_, err := repo.GetStatusByID(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestGetByMessageID(t *testing.T) {
	repo, mock := setupMockDB(t)

	delivered := time.Now()

	mock.ExpectQuery("SELECT id, code, status, delivered_at, read_at").
		WithArgs("wamid.ABC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "status", "delivered_at", "read_at"}).
			AddRow(int64(8), "WA-20251110-AB12CD", "DELIVERED", delivered, nil))

	n, err := repo.GetByMessageID(context.Background(), "wamid.ABC")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n.ID)
	assert.Equal(t, model.StatusDelivered, n.Status)
	require.NotNil(t, n.DeliveredAt)
	assert.Nil(t, n.ReadAt)
}

func TestGetByMessageIDNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT id, code, status, delivered_at, read_at").
		WithArgs("wamid.MISSING").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "status", "delivered_at", "read_at"}))

	_, err := repo.GetByMessageID(context.Background(), "wamid.MISSING")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestAdvanceStatus(t *testing.T) {
	repo, mock := setupMockDB(t)

	deliveredAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`AND status IN \('PENDING', 'SCHEDULED', 'SENDING', 'SENT'\)`).
		WithArgs(model.StatusDelivered, int64(8), deliveredAt, nil).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("SENT"))
	mock.ExpectExec("INSERT INTO notification_history").
		WithArgs(int64(8), model.StatusSent, model.StatusDelivered, "provider status delivered").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.AdvanceStatus(context.Background(), 8, model.StatusDelivered, "provider status delivered", &deliveredAt, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// When a higher-ranked status committed first, the guarded update matches
// nothing and the advance reports itself superseded instead of regressing
// the row.
func TestAdvanceStatusSuperseded(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`AND status IN \('PENDING', 'SCHEDULED', 'SENDING', 'SENT'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := repo.AdvanceStatus(context.Background(), 8, model.StatusDelivered, "provider status delivered", nil, nil)
	assert.ErrorIs(t, err, ErrStatusSuperseded)
}

func TestRequeue(t *testing.T) {
	repo, mock := setupMockDB(t)

	since := time.Now().Add(-2 * time.Hour)

	mock.ExpectExec("UPDATE notifications").
		WithArgs(since).
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := repo.Requeue(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestDeleteTerminalBefore(t *testing.T) {
	repo, mock := setupMockDB(t)

	cutoff := time.Now().AddDate(0, 0, -90)

	mock.ExpectExec("DELETE FROM notifications").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	count, err := repo.DeleteTerminalBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}
