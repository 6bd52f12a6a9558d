package repository

import (
	"context"
	"testing"
	"time"

	buyersdomain "leadexchange_backend/internal/buyers/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capSubqueryPattern pins the daily-cap count to the (buyer, service type,
// ZIP) cell of the coverage entry. The query must not match if the count ever
// widens back to all of a buyer's sales.
const capSubqueryPattern = `(?s)SELECT count\(\*\) FROM leads l\s+` +
	`WHERE l\.winning_buyer_id = ce\.buyer_id\s+` +
	`AND l\.service_type = ce\.service_type\s+` +
	`AND l\.zip_code = ce\.zip_code\s+` +
	`AND l\.status = 'SOLD'`

var eligibleColumnNames = []string{
	"ce_id", "ce_buyer_id", "ce_service_type", "ce_zip_code", "ce_priority", "ce_daily_cap",
	"ce_min_bid", "ce_max_bid", "ce_active", "ce_created_at", "ce_updated_at",
	"b_id", "b_name", "b_endpoint_url", "b_auth", "b_ping_timeout_seconds", "b_post_timeout_seconds",
	"b_active", "b_created_at", "b_updated_at",
	"c_id", "c_buyer_id", "c_service_type", "c_mappings", "c_static_ping", "c_static_post",
	"c_response_mapping", "c_min_bid", "c_max_bid", "c_active", "c_created_at", "c_updated_at",
}

func eligibleRow(entryID, buyerID, configID uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(eligibleColumnNames).AddRow(
		entryID, buyerID, "roofing", "97210", 10, 5,
		(*float64)(nil), (*float64)(nil), true, now, now,
		buyerID, "Acme Roofing Leads", "https://buyer.example.com/leads",
		[]byte(`{"type":"bearer","token":"s3cret"}`), int32(8), int32(30),
		true, now, now,
		configID, buyerID, "roofing",
		[]byte(`[{"source":"zip","target":"zip_code","includeInPing":true,"includeInPost":true,"required":true}]`),
		[]byte(nil), []byte(nil),
		[]byte(`{"bidPaths":["bid"]}`), 15.0, 80.0, true, now, now,
	)
}

func TestFindEligibleDailyCapCountsOnlyMatchingCell(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	entryID, buyerID, configID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(capSubqueryPattern).
		WithArgs("roofing", "97210").
		WillReturnRows(eligibleRow(entryID, buyerID, configID))

	rows, err := New(mock).FindEligible(context.Background(), "roofing", "97210")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, entryID, got.Entry.ID)
	assert.Equal(t, 5, got.Entry.DailyCap)
	assert.Equal(t, buyerID, got.Buyer.ID)
	assert.Equal(t, buyersdomain.AuthBearer, got.Buyer.Auth.Type)
	assert.Equal(t, 8*time.Second, got.Buyer.PingTimeout)
	assert.Equal(t, 30*time.Second, got.Buyer.PostTimeout)
	assert.Equal(t, configID, got.Config.ID)
	require.Len(t, got.Config.Mappings, 1)
	assert.Equal(t, "zip_code", got.Config.Mappings[0].Target)
	assert.Equal(t, buyersdomain.BidRange{Min: 15, Max: 80}, got.Config.Bids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindEligibleNoCandidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(capSubqueryPattern).
		WithArgs("solar", "10001").
		WillReturnRows(pgxmock.NewRows(eligibleColumnNames))

	rows, err := New(mock).FindEligible(context.Background(), "solar", "10001")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingEntry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM coverage_entries").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = New(mock).Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
