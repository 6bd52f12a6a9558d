package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadexchange_backend/internal/buyers/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("buyer not found")

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

// =============================================================================
// Buyers
// =============================================================================

type buyerRow struct {
	ID          uuid.UUID
	Name        string
	EndpointURL string
	AuthJSON    []byte
	PingTimeout int32 // seconds
	PostTimeout int32 // seconds
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r buyerRow) toDomain() (domain.Buyer, error) {
	var auth domain.AuthConfig
	if len(r.AuthJSON) > 0 {
		if err := json.Unmarshal(r.AuthJSON, &auth); err != nil {
			return domain.Buyer{}, err
		}
	}
	return domain.Buyer{
		ID:          r.ID,
		Name:        r.Name,
		EndpointURL: r.EndpointURL,
		Auth:        auth,
		PingTimeout: time.Duration(r.PingTimeout) * time.Second,
		PostTimeout: time.Duration(r.PostTimeout) * time.Second,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const buyerColumns = `id, name, endpoint_url, auth, ping_timeout_seconds, post_timeout_seconds, active, created_at, updated_at`

func scanBuyer(row pgx.Row) (domain.Buyer, error) {
	var b buyerRow
	err := row.Scan(&b.ID, &b.Name, &b.EndpointURL, &b.AuthJSON, &b.PingTimeout, &b.PostTimeout, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Buyer{}, ErrNotFound
	}
	if err != nil {
		return domain.Buyer{}, err
	}
	return b.toDomain()
}

func (r *Repository) CreateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error) {
	authJSON, err := json.Marshal(buyer.Auth)
	if err != nil {
		return domain.Buyer{}, err
	}
	return scanBuyer(r.db.QueryRow(ctx, `
		INSERT INTO buyers (name, endpoint_url, auth, ping_timeout_seconds, post_timeout_seconds, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+buyerColumns,
		buyer.Name, buyer.EndpointURL, authJSON,
		int32(buyer.PingTimeout/time.Second), int32(buyer.PostTimeout/time.Second), buyer.Active,
	))
}

func (r *Repository) GetBuyer(ctx context.Context, id uuid.UUID) (domain.Buyer, error) {
	return scanBuyer(r.db.QueryRow(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = $1`, id))
}

func (r *Repository) ListBuyers(ctx context.Context) ([]domain.Buyer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+buyerColumns+` FROM buyers ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buyers := make([]domain.Buyer, 0)
	for rows.Next() {
		buyer, err := scanBuyer(rows)
		if err != nil {
			return nil, err
		}
		buyers = append(buyers, buyer)
	}
	return buyers, rows.Err()
}

func (r *Repository) UpdateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error) {
	authJSON, err := json.Marshal(buyer.Auth)
	if err != nil {
		return domain.Buyer{}, err
	}
	return scanBuyer(r.db.QueryRow(ctx, `
		UPDATE buyers
		SET name = $1, endpoint_url = $2, auth = $3, ping_timeout_seconds = $4, post_timeout_seconds = $5, active = $6, updated_at = now()
		WHERE id = $7
		RETURNING `+buyerColumns,
		buyer.Name, buyer.EndpointURL, authJSON,
		int32(buyer.PingTimeout/time.Second), int32(buyer.PostTimeout/time.Second), buyer.Active, buyer.ID,
	))
}

// =============================================================================
// Buyer-Service Configurations
// =============================================================================

const configColumns = `id, buyer_id, service_type, mappings, static_ping, static_post, response_mapping, min_bid, max_bid, active, created_at, updated_at`

func scanConfig(row pgx.Row) (domain.Config, error) {
	var (
		cfg          domain.Config
		mappings     []byte
		staticPing   []byte
		staticPost   []byte
		responseJSON []byte
	)
	err := row.Scan(
		&cfg.ID, &cfg.BuyerID, &cfg.ServiceType, &mappings, &staticPing, &staticPost,
		&responseJSON, &cfg.Bids.Min, &cfg.Bids.Max, &cfg.Active, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Config{}, ErrNotFound
	}
	if err != nil {
		return domain.Config{}, err
	}
	if err := json.Unmarshal(mappings, &cfg.Mappings); err != nil {
		return domain.Config{}, err
	}
	if len(staticPing) > 0 {
		if err := json.Unmarshal(staticPing, &cfg.StaticPing); err != nil {
			return domain.Config{}, err
		}
	}
	if len(staticPost) > 0 {
		if err := json.Unmarshal(staticPost, &cfg.StaticPost); err != nil {
			return domain.Config{}, err
		}
	}
	if err := json.Unmarshal(responseJSON, &cfg.Response); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func (r *Repository) CreateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	mappings, staticPing, staticPost, responseJSON, err := marshalConfig(cfg)
	if err != nil {
		return domain.Config{}, err
	}
	return scanConfig(r.db.QueryRow(ctx, `
		INSERT INTO buyer_service_configs (buyer_id, service_type, mappings, static_ping, static_post, response_mapping, min_bid, max_bid, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+configColumns,
		cfg.BuyerID, cfg.ServiceType, mappings, staticPing, staticPost, responseJSON,
		cfg.Bids.Min, cfg.Bids.Max, cfg.Active,
	))
}

func (r *Repository) UpdateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	mappings, staticPing, staticPost, responseJSON, err := marshalConfig(cfg)
	if err != nil {
		return domain.Config{}, err
	}
	return scanConfig(r.db.QueryRow(ctx, `
		UPDATE buyer_service_configs
		SET mappings = $1, static_ping = $2, static_post = $3, response_mapping = $4,
			min_bid = $5, max_bid = $6, active = $7, updated_at = now()
		WHERE id = $8
		RETURNING `+configColumns,
		mappings, staticPing, staticPost, responseJSON,
		cfg.Bids.Min, cfg.Bids.Max, cfg.Active, cfg.ID,
	))
}

func (r *Repository) GetConfigByID(ctx context.Context, id uuid.UUID) (domain.Config, error) {
	return scanConfig(r.db.QueryRow(ctx, `SELECT `+configColumns+` FROM buyer_service_configs WHERE id = $1`, id))
}

func (r *Repository) ListConfigsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Config, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+configColumns+`
		FROM buyer_service_configs
		WHERE buyer_id = $1
		ORDER BY created_at ASC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]domain.Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func marshalConfig(cfg domain.Config) (mappings, staticPing, staticPost, responseJSON []byte, err error) {
	if mappings, err = json.Marshal(cfg.Mappings); err != nil {
		return
	}
	if staticPing, err = json.Marshal(cfg.StaticPing); err != nil {
		return
	}
	if staticPost, err = json.Marshal(cfg.StaticPost); err != nil {
		return
	}
	responseJSON, err = json.Marshal(cfg.Response)
	return
}
