package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"efactura/internal/model"
	"efactura/internal/repository"
)

// CheckpointPostgres is a PostgreSQL implementation of repository.CheckpointRepository.
type CheckpointPostgres struct {
	db *sql.DB
}

func NewCheckpointPostgres(db *sql.DB) *CheckpointPostgres {
	return &CheckpointPostgres{db: db}
}

var _ repository.CheckpointRepository = (*CheckpointPostgres)(nil)

// Find returns the company's checkpoint, or (nil, nil) when none exists yet.
func (r *CheckpointPostgres) Find(ctx context.Context, companyID int64) (*model.SyncCheckpoint, error) {
	const q = `SELECT company_id, last_synced_at FROM sync_checkpoints WHERE company_id = $1`
	var ckpt model.SyncCheckpoint
	err := r.db.QueryRowContext(ctx, q, companyID).Scan(&ckpt.CompanyID, &ckpt.LastSyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ckpt, nil
}

// Record upserts the checkpoint timestamp for a company.
func (r *CheckpointPostgres) Record(ctx context.Context, companyID int64, ts time.Time) error {
	const q = `
		INSERT INTO sync_checkpoints (company_id, last_synced_at)
		VALUES ($1, $2)
		ON CONFLICT (company_id) DO UPDATE SET last_synced_at = EXCLUDED.last_synced_at
	`
	_, err := r.db.ExecContext(ctx, q, companyID, ts)
	return err
}
