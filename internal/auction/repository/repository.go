// Package repository persists the auction transaction log: one row per
// outbound buyer call, successful or not. The log is the audit trail and the
// resume point for interrupted auctions.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("transaction not found")

// Action is the protocol phase a transaction belongs to.
type Action string

const (
	ActionPing Action = "PING"
	ActionPost Action = "POST"
)

// StatusTimeout is recorded when a buyer call exceeded its deadline; the
// normalizer never sees a response in that case.
const StatusTimeout = "timeout"

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// Transaction is one recorded buyer call.
type Transaction struct {
	ID      uuid.UUID
	LeadID  uuid.UUID
	BuyerID uuid.UUID
	Action  Action
	// RequestPayload is the exact JSON document sent to the buyer.
	RequestPayload []byte
	// ResponseStatus is nil when no HTTP response arrived (timeout, refused).
	ResponseStatus *int
	ResponseBody   []byte
	// NormalizedStatus is the normalizer's verdict, or StatusTimeout.
	NormalizedStatus string
	RawStatus        *string
	Bid              *float64
	LatencyMS        int64
	ErrorMessage     *string
	// ComplianceFlags names the consent artifacts the lead carried when the
	// call went out (e.g. trusted_form_cert, tcpa_text). Disputes hinge on
	// what evidence existed at delivery time, not what the lead holds now.
	ComplianceFlags []string
	CreatedAt       time.Time
}

const txnColumns = `id, lead_id, buyer_id, action, request_payload, response_status, response_body,
		normalized_status, raw_status, bid, latency_ms, error_message, compliance_flags, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.LeadID, &t.BuyerID, &t.Action, &t.RequestPayload, &t.ResponseStatus, &t.ResponseBody,
		&t.NormalizedStatus, &t.RawStatus, &t.Bid, &t.LatencyMS, &t.ErrorMessage, &t.ComplianceFlags, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return t, err
}

// CreateParams carries one transaction record to persist.
type CreateParams struct {
	LeadID           uuid.UUID
	BuyerID          uuid.UUID
	Action           Action
	RequestPayload   []byte
	ResponseStatus   *int
	ResponseBody     []byte
	NormalizedStatus string
	RawStatus        *string
	Bid              *float64
	Latency          time.Duration
	ErrorMessage     *string
	ComplianceFlags  []string
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Transaction, error) {
	flags := params.ComplianceFlags
	if flags == nil {
		flags = []string{}
	}
	return scanTransaction(r.db.QueryRow(ctx, `
		INSERT INTO transactions (lead_id, buyer_id, action, request_payload, response_status, response_body,
			normalized_status, raw_status, bid, latency_ms, error_message, compliance_flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+txnColumns,
		params.LeadID, params.BuyerID, params.Action, params.RequestPayload,
		params.ResponseStatus, params.ResponseBody, params.NormalizedStatus,
		params.RawStatus, params.Bid, params.Latency.Milliseconds(), params.ErrorMessage, flags,
	))
}

// ListByLead returns every transaction for a lead, oldest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+txnColumns+`
		FROM transactions
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// GetLastPost returns the most recent POST transaction for the lead, or
// ErrNotFound when delivery was never attempted. Resume logic uses this to
// avoid delivering the same lead twice.
func (r *Repository) GetLastPost(ctx context.Context, leadID uuid.UUID) (Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+txnColumns+`
		FROM transactions
		WHERE lead_id = $1 AND action = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, leadID, ActionPost))
}
