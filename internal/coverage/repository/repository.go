package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	buyersdomain "leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/internal/coverage/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("coverage entry not found")

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

const entryColumns = `id, buyer_id, service_type, zip_code, priority, daily_cap, min_bid, max_bid, active, created_at, updated_at`

func scanEntry(row pgx.Row) (domain.Entry, error) {
	var e domain.Entry
	err := row.Scan(
		&e.ID, &e.BuyerID, &e.ServiceType, &e.ZipCode, &e.Priority, &e.DailyCap,
		&e.MinBid, &e.MaxBid, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Entry{}, ErrNotFound
	}
	return e, err
}

func (r *Repository) Create(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	return scanEntry(r.db.QueryRow(ctx, `
		INSERT INTO coverage_entries (buyer_id, service_type, zip_code, priority, daily_cap, min_bid, max_bid, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+entryColumns,
		entry.BuyerID, entry.ServiceType, entry.ZipCode, entry.Priority, entry.DailyCap,
		entry.MinBid, entry.MaxBid, entry.Active,
	))
}

func (r *Repository) Update(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	return scanEntry(r.db.QueryRow(ctx, `
		UPDATE coverage_entries
		SET service_type = $1, zip_code = $2, priority = $3, daily_cap = $4,
			min_bid = $5, max_bid = $6, active = $7, updated_at = now()
		WHERE id = $8
		RETURNING `+entryColumns,
		entry.ServiceType, entry.ZipCode, entry.Priority, entry.DailyCap,
		entry.MinBid, entry.MaxBid, entry.Active, entry.ID,
	))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Entry, error) {
	return scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM coverage_entries WHERE id = $1`, id))
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM coverage_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+`
		FROM coverage_entries
		WHERE buyer_id = $1
		ORDER BY service_type ASC, zip_code ASC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// EligibleRow pairs a coverage entry with the buyer and configuration that
// make it actionable.
type EligibleRow struct {
	Entry  domain.Entry
	Buyer  buyersdomain.Buyer
	Config buyersdomain.Config
}

// FindEligible returns coverage rows for one (service type, ZIP) cell. A row
// qualifies only when the entry, the buyer and the buyer's configuration for
// that service type are all active, and the buyer has not exhausted its daily
// cap. The cap is per (buyer, service type, ZIP): it counts leads SOLD to the
// buyer in that same cell in the last rolling 24 hours, so sales in one ZIP
// never consume another ZIP's cap. Results come back highest priority first;
// ties fall back to entry age.
func (r *Repository) FindEligible(ctx context.Context, serviceType, zipCode string) ([]EligibleRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			ce.id, ce.buyer_id, ce.service_type, ce.zip_code, ce.priority, ce.daily_cap,
			ce.min_bid, ce.max_bid, ce.active, ce.created_at, ce.updated_at,
			b.id, b.name, b.endpoint_url, b.auth, b.ping_timeout_seconds, b.post_timeout_seconds,
			b.active, b.created_at, b.updated_at,
			c.id, c.buyer_id, c.service_type, c.mappings, c.static_ping, c.static_post,
			c.response_mapping, c.min_bid, c.max_bid, c.active, c.created_at, c.updated_at
		FROM coverage_entries ce
		JOIN buyers b ON b.id = ce.buyer_id
		JOIN buyer_service_configs c ON c.buyer_id = ce.buyer_id AND c.service_type = ce.service_type
		WHERE ce.service_type = $1
			AND ce.zip_code = $2
			AND ce.active
			AND b.active
			AND c.active
			AND (ce.daily_cap = 0 OR ce.daily_cap > (
				SELECT count(*) FROM leads l
				WHERE l.winning_buyer_id = ce.buyer_id
					AND l.service_type = ce.service_type
					AND l.zip_code = ce.zip_code
					AND l.status = 'SOLD'
					AND l.sold_at > now() - interval '24 hours'
			))
		ORDER BY ce.priority DESC, ce.created_at ASC
	`, serviceType, zipCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EligibleRow, 0)
	for rows.Next() {
		row, err := scanEligible(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanEligible(rows pgx.Rows) (EligibleRow, error) {
	var (
		row          EligibleRow
		authJSON     []byte
		pingSeconds  int32
		postSeconds  int32
		mappings     []byte
		staticPing   []byte
		staticPost   []byte
		responseJSON []byte
	)
	err := rows.Scan(
		&row.Entry.ID, &row.Entry.BuyerID, &row.Entry.ServiceType, &row.Entry.ZipCode,
		&row.Entry.Priority, &row.Entry.DailyCap, &row.Entry.MinBid, &row.Entry.MaxBid,
		&row.Entry.Active, &row.Entry.CreatedAt, &row.Entry.UpdatedAt,
		&row.Buyer.ID, &row.Buyer.Name, &row.Buyer.EndpointURL, &authJSON, &pingSeconds, &postSeconds,
		&row.Buyer.Active, &row.Buyer.CreatedAt, &row.Buyer.UpdatedAt,
		&row.Config.ID, &row.Config.BuyerID, &row.Config.ServiceType, &mappings, &staticPing, &staticPost,
		&responseJSON, &row.Config.Bids.Min, &row.Config.Bids.Max, &row.Config.Active,
		&row.Config.CreatedAt, &row.Config.UpdatedAt,
	)
	if err != nil {
		return EligibleRow{}, err
	}

	row.Buyer.PingTimeout = secondsToDuration(pingSeconds)
	row.Buyer.PostTimeout = secondsToDuration(postSeconds)
	if len(authJSON) > 0 {
		if err := json.Unmarshal(authJSON, &row.Buyer.Auth); err != nil {
			return EligibleRow{}, err
		}
	}
	if err := json.Unmarshal(mappings, &row.Config.Mappings); err != nil {
		return EligibleRow{}, err
	}
	if len(staticPing) > 0 {
		if err := json.Unmarshal(staticPing, &row.Config.StaticPing); err != nil {
			return EligibleRow{}, err
		}
	}
	if len(staticPost) > 0 {
		if err := json.Unmarshal(staticPost, &row.Config.StaticPost); err != nil {
			return EligibleRow{}, err
		}
	}
	if err := json.Unmarshal(responseJSON, &row.Config.Response); err != nil {
		return EligibleRow{}, err
	}
	return row, nil
}

func secondsToDuration(seconds int32) time.Duration {
	return time.Duration(seconds) * time.Second
}
