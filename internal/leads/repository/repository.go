package repository

import (
	"context"
	"errors"
	"time"

	"leadexchange_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrConcurrentModification means the conditional update matched zero
	// rows: another actor changed the lead between read and write.
	ErrConcurrentModification = errors.New("lead was modified concurrently")
)

// DB is the subset of pgxpool.Pool the repository uses. Narrowing to an
// interface lets tests substitute pgxmock.
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

// Lead is the canonical consumer submission.
type Lead struct {
	ID             uuid.UUID
	ServiceType    string
	ZipCode        string
	FormAnswers    map[string]any
	HomeOwner      bool
	Timeframe      string
	Compliance     map[string]any
	Status         domain.Status
	Disposition    domain.Disposition
	WinningBuyerID *uuid.UUID
	WinningBid     *float64
	QualityScore   *float64
	CreditAmount   *float64
	CreditedAt     *time.Time
	CreditedBy     *uuid.UUID
	SoldAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const leadColumns = `id, service_type, zip_code, form_answers, home_owner, timeframe, compliance,
		status, disposition, winning_buyer_id, winning_bid, quality_score,
		credit_amount, credited_at, credited_by, sold_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.ServiceType, &lead.ZipCode, &lead.FormAnswers, &lead.HomeOwner, &lead.Timeframe, &lead.Compliance,
		&lead.Status, &lead.Disposition, &lead.WinningBuyerID, &lead.WinningBid, &lead.QualityScore,
		&lead.CreditAmount, &lead.CreditedAt, &lead.CreditedBy, &lead.SoldAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type CreateLeadParams struct {
	ServiceType  string
	ZipCode      string
	FormAnswers  map[string]any
	HomeOwner    bool
	Timeframe    string
	Compliance   map[string]any
	QualityScore *float64
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		INSERT INTO leads (service_type, zip_code, form_answers, home_owner, timeframe, compliance, status, disposition, quality_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+leadColumns,
		params.ServiceType, params.ZipCode, params.FormAnswers, params.HomeOwner, params.Timeframe,
		params.Compliance, domain.StatusPending, domain.DispositionNew, params.QualityScore,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1
	`, id))
}

// ListByStatus returns leads in the given status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListStaleInFlight returns PROCESSING and AUCTIONED leads last updated
// before the cutoff, for the expiry sweep. Both statuses mean an auction run
// owned the lead and never concluded.
func (r *Repository) ListStaleInFlight(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at ASC
		LIMIT $4
	`, domain.StatusProcessing, domain.StatusAuctioned, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateStatusParams drives the conditional status/disposition update. The
// update applies only while the lead still carries PrevStatus (and
// PrevDisposition when a disposition change is included); zero matched rows
// surface as ErrConcurrentModification.
type UpdateStatusParams struct {
	LeadID          uuid.UUID
	PrevStatus      domain.Status
	NewStatus       domain.Status
	PrevDisposition domain.Disposition
	NewDisposition  *domain.Disposition
	Reason          string
	ActorID         *uuid.UUID
	Source          domain.ChangeSource

	// WinningBuyerID/WinningBid/SoldAt are written together on the SOLD
	// transition and left untouched otherwise.
	WinningBuyerID *uuid.UUID
	WinningBid     *float64
}

// UpdateStatus applies one transition with optimistic concurrency and appends
// the history entry in the same database transaction.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	newDisposition := params.PrevDisposition
	if params.NewDisposition != nil {
		newDisposition = *params.NewDisposition
	}

	var row pgx.Row
	if params.NewDisposition != nil {
		row = tx.QueryRow(ctx, `
			UPDATE leads
			SET status = $1, disposition = $2,
				winning_buyer_id = COALESCE($3, winning_buyer_id),
				winning_bid = COALESCE($4, winning_bid),
				sold_at = CASE WHEN $1 = 'SOLD' THEN now() ELSE sold_at END,
				updated_at = now()
			WHERE id = $5 AND status = $6 AND disposition = $7
			RETURNING `+leadColumns,
			params.NewStatus, newDisposition, params.WinningBuyerID, params.WinningBid,
			params.LeadID, params.PrevStatus, params.PrevDisposition,
		)
	} else {
		row = tx.QueryRow(ctx, `
			UPDATE leads
			SET status = $1,
				winning_buyer_id = COALESCE($2, winning_buyer_id),
				winning_bid = COALESCE($3, winning_bid),
				sold_at = CASE WHEN $1 = 'SOLD' THEN now() ELSE sold_at END,
				updated_at = now()
			WHERE id = $4 AND status = $5
			RETURNING `+leadColumns,
			params.NewStatus, params.WinningBuyerID, params.WinningBid,
			params.LeadID, params.PrevStatus,
		)
	}

	lead, err := scanLead(row)
	if errors.Is(err, ErrNotFound) {
		// The lead either does not exist or no longer carries the expected
		// state; both mean the caller must re-read.
		return Lead{}, ErrConcurrentModification
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertHistory(ctx, tx, historyRow{
		LeadID:          params.LeadID,
		ActorID:         params.ActorID,
		PrevStatus:      params.PrevStatus,
		NewStatus:       params.NewStatus,
		PrevDisposition: params.PrevDisposition,
		NewDisposition:  newDisposition,
		Reason:          params.Reason,
		Source:          params.Source,
	}); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// IssueCreditParams drives the specialized credit transition.
type IssueCreditParams struct {
	LeadID          uuid.UUID
	PrevStatus      domain.Status
	PrevDisposition domain.Disposition
	Amount          float64
	Reason          string
	ActorID         *uuid.UUID
}

// IssueCredit sets disposition CREDITED and records the credit amount, issuer
// and timestamp, conditioned on both the status and disposition observed by
// the caller.
func (r *Repository) IssueCredit(ctx context.Context, params IssueCreditParams) (Lead, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads
		SET disposition = $1, credit_amount = $2, credited_at = now(), credited_by = $3, updated_at = now()
		WHERE id = $4 AND status = $5 AND disposition = $6
		RETURNING `+leadColumns,
		domain.DispositionCredited, params.Amount, params.ActorID,
		params.LeadID, params.PrevStatus, params.PrevDisposition,
	))
	if errors.Is(err, ErrNotFound) {
		return Lead{}, ErrConcurrentModification
	}
	if err != nil {
		return Lead{}, err
	}

	if err := insertHistory(ctx, tx, historyRow{
		LeadID:          params.LeadID,
		ActorID:         params.ActorID,
		PrevStatus:      params.PrevStatus,
		NewStatus:       params.PrevStatus,
		PrevDisposition: params.PrevDisposition,
		NewDisposition:  domain.DispositionCredited,
		Reason:          params.Reason,
		Source:          domain.SourceAdmin,
	}); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}
