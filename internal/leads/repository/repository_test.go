package repository

import (
	"context"
	"testing"
	"time"

	"leadexchange_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadColumnNames = []string{
	"id", "service_type", "zip_code", "form_answers", "home_owner", "timeframe", "compliance",
	"status", "disposition", "winning_buyer_id", "winning_bid", "quality_score",
	"credit_amount", "credited_at", "credited_by", "sold_at", "created_at", "updated_at",
}

func leadRow(id uuid.UUID, status domain.Status, disposition domain.Disposition) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(leadColumnNames).AddRow(
		id, "roofing", "97210", map[string]any{}, false, "", map[string]any(nil),
		status, disposition, (*uuid.UUID)(nil), (*float64)(nil), (*float64)(nil),
		(*float64)(nil), (*time.Time)(nil), (*uuid.UUID)(nil), (*time.Time)(nil), now, now,
	)
}

func TestUpdateStatusAppendsHistoryInSameTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE leads").
		WithArgs(domain.StatusProcessing, pgxmock.AnyArg(), pgxmock.AnyArg(), leadID, domain.StatusPending).
		WillReturnRows(leadRow(leadID, domain.StatusProcessing, domain.DispositionNew))
	mock.ExpectExec("INSERT INTO lead_status_history").
		WithArgs(leadID, pgxmock.AnyArg(), domain.StatusPending, domain.StatusProcessing,
			domain.DispositionNew, domain.DispositionNew, "auction started", domain.SourceSystem).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lead, err := New(mock).UpdateStatus(context.Background(), UpdateStatusParams{
		LeadID:          leadID,
		PrevStatus:      domain.StatusPending,
		NewStatus:       domain.StatusProcessing,
		PrevDisposition: domain.DispositionNew,
		Reason:          "auction started",
		Source:          domain.SourceSystem,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWithDispositionConditionsOnBoth(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()
	returned := domain.DispositionReturned

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE leads").
		WithArgs(domain.StatusSold, returned, pgxmock.AnyArg(), pgxmock.AnyArg(),
			leadID, domain.StatusSold, domain.DispositionDelivered).
		WillReturnRows(leadRow(leadID, domain.StatusSold, returned))
	mock.ExpectExec("INSERT INTO lead_status_history").
		WithArgs(leadID, pgxmock.AnyArg(), domain.StatusSold, domain.StatusSold,
			domain.DispositionDelivered, returned, "buyer returned the lead", domain.SourceWebhook).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lead, err := New(mock).UpdateStatus(context.Background(), UpdateStatusParams{
		LeadID:          leadID,
		PrevStatus:      domain.StatusSold,
		NewStatus:       domain.StatusSold,
		PrevDisposition: domain.DispositionDelivered,
		NewDisposition:  &returned,
		Reason:          "buyer returned the lead",
		Source:          domain.SourceWebhook,
	})
	require.NoError(t, err)
	assert.Equal(t, returned, lead.Disposition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusConcurrentModification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()

	mock.ExpectBegin()
	// Zero matched rows: another actor moved the lead first.
	mock.ExpectQuery("UPDATE leads").
		WithArgs(domain.StatusProcessing, pgxmock.AnyArg(), pgxmock.AnyArg(), leadID, domain.StatusPending).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))
	mock.ExpectRollback()

	_, err = New(mock).UpdateStatus(context.Background(), UpdateStatusParams{
		LeadID:          leadID,
		PrevStatus:      domain.StatusPending,
		NewStatus:       domain.StatusProcessing,
		PrevDisposition: domain.DispositionNew,
		Source:          domain.SourceSystem,
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueCreditConcurrentModification(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE leads").
		WithArgs(domain.DispositionCredited, 25.0, pgxmock.AnyArg(), leadID, domain.StatusSold, domain.DispositionReturned).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))
	mock.ExpectRollback()

	_, err = New(mock).IssueCredit(context.Background(), IssueCreditParams{
		LeadID:          leadID,
		PrevStatus:      domain.StatusSold,
		PrevDisposition: domain.DispositionReturned,
		Amount:          25.0,
		Reason:          "bad contact data",
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("SELECT").WithArgs(id).WillReturnRows(pgxmock.NewRows(leadColumnNames))

	_, err = New(mock).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
