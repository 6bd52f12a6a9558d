package repository

import (
	"context"
	"time"

	"leadexchange_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// HistoryEntry is one immutable audit record of a status/disposition change.
type HistoryEntry struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	ActorID         *uuid.UUID
	PrevStatus      domain.Status
	NewStatus       domain.Status
	PrevDisposition domain.Disposition
	NewDisposition  domain.Disposition
	Reason          string
	Source          domain.ChangeSource
	CreatedAt       time.Time
}

type historyRow struct {
	LeadID          uuid.UUID
	ActorID         *uuid.UUID
	PrevStatus      domain.Status
	NewStatus       domain.Status
	PrevDisposition domain.Disposition
	NewDisposition  domain.Disposition
	Reason          string
	Source          domain.ChangeSource
}

// insertHistory appends one history entry inside the caller's transaction so
// the lead update and its audit record commit atomically.
func insertHistory(ctx context.Context, tx pgx.Tx, row historyRow) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, actor_id, prev_status, new_status, prev_disposition, new_disposition, reason, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.LeadID, row.ActorID, row.PrevStatus, row.NewStatus, row.PrevDisposition, row.NewDisposition, row.Reason, row.Source)
	return err
}

// ListHistory returns the full transition history for a lead, oldest first.
func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, actor_id, prev_status, new_status, prev_disposition, new_disposition, reason, source, created_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.LeadID, &e.ActorID, &e.PrevStatus, &e.NewStatus,
			&e.PrevDisposition, &e.NewDisposition, &e.Reason, &e.Source, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
