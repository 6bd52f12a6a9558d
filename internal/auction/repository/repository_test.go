package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txnColumnNames = []string{
	"id", "lead_id", "buyer_id", "action", "request_payload", "response_status", "response_body",
	"normalized_status", "raw_status", "bid", "latency_ms", "error_message", "compliance_flags", "created_at",
}

func txnRow(id, leadID, buyerID uuid.UUID, flags []string) *pgxmock.Rows {
	return pgxmock.NewRows(txnColumnNames).AddRow(
		id, leadID, buyerID, ActionPost, []byte(nil), (*int)(nil), []byte(nil),
		"delivered", (*string)(nil), (*float64)(nil), int64(120), (*string)(nil), flags, time.Now(),
	)
}

func TestCreateRecordsComplianceFlags(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, leadID, buyerID := uuid.New(), uuid.New(), uuid.New()
	flags := []string{"tcpa_text", "trusted_form_cert"}

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(leadID, buyerID, ActionPost, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"delivered", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(120), pgxmock.AnyArg(), flags).
		WillReturnRows(txnRow(id, leadID, buyerID, flags))

	txn, err := New(mock).Create(context.Background(), CreateParams{
		LeadID:           leadID,
		BuyerID:          buyerID,
		Action:           ActionPost,
		NormalizedStatus: "delivered",
		Latency:          120 * time.Millisecond,
		ComplianceFlags:  flags,
	})
	require.NoError(t, err)
	assert.Equal(t, flags, txn.ComplianceFlags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutComplianceFlagsStoresEmptyArray(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id, leadID, buyerID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(leadID, buyerID, ActionPing, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"rejected", pgxmock.AnyArg(), pgxmock.AnyArg(), int64(0), pgxmock.AnyArg(), []string{}).
		WillReturnRows(txnRow(id, leadID, buyerID, []string{}))

	_, err = New(mock).Create(context.Background(), CreateParams{
		LeadID:           leadID,
		BuyerID:          buyerID,
		Action:           ActionPing,
		NormalizedStatus: "rejected",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLastPostNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()
	mock.ExpectQuery("SELECT").
		WithArgs(leadID, ActionPost).
		WillReturnRows(pgxmock.NewRows(txnColumnNames))

	_, err = New(mock).GetLastPost(context.Background(), leadID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
