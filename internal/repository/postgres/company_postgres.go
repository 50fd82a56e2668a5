package postgres

import (
	"context"
	"database/sql"

	"efactura/internal/model"
	"efactura/internal/repository"
)

// CompanyPostgres is a PostgreSQL implementation of repository.CompanyRepository.
type CompanyPostgres struct {
	db *sql.DB
}

func NewCompanyPostgres(db *sql.DB) *CompanyPostgres {
	return &CompanyPostgres{db: db}
}

var _ repository.CompanyRepository = (*CompanyPostgres)(nil)

const companyColumns = `id, user_id, tax_id, name, auto_sync_enabled, sync_interval_hours, created_at`

func (r *CompanyPostgres) FindByID(ctx context.Context, id int64) (*model.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	var c model.Company
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID,
		&c.UserID,
		&c.TaxID,
		&c.Name,
		&c.AutoSyncEnabled,
		&c.SyncIntervalHours,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyPostgres) ListAutoSync(ctx context.Context) ([]model.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE auto_sync_enabled ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Company, 0)
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.TaxID,
			&c.Name,
			&c.AutoSyncEnabled,
			&c.SyncIntervalHours,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
