package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_companies",
		SQL: `CREATE TABLE IF NOT EXISTS companies (
  id                  BIGSERIAL   PRIMARY KEY,
  user_id             BIGINT      NOT NULL,
  tax_id              VARCHAR(20) NOT NULL,
  name                VARCHAR(200) NOT NULL,
  auto_sync_enabled   BOOLEAN     NOT NULL DEFAULT TRUE,
  sync_interval_hours INTEGER     NOT NULL DEFAULT 24,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT unique_user_tax_id UNIQUE (user_id, tax_id)
);`,
	},
	{
		Name: "create_table_invoices",
		SQL: `CREATE TABLE IF NOT EXISTS invoices (
  id               BIGSERIAL     PRIMARY KEY,
  company_id       BIGINT        NOT NULL REFERENCES companies(id),
  external_id      VARCHAR(100)  NOT NULL,
  message_type     VARCHAR(20),
  issuer_name      VARCHAR(200),
  issuer_vat_id    VARCHAR(20),
  recipient_name   VARCHAR(200),
  recipient_vat_id VARCHAR(20),
  invoice_date     DATE,
  total_amount     NUMERIC(15,2),
  currency         VARCHAR(3),
  xml_content      TEXT          NOT NULL,
  projection       JSONB,
  archive_path     VARCHAR(500),
  synced_at        TIMESTAMPTZ   NOT NULL DEFAULT now(),
  CONSTRAINT unique_company_external_id UNIQUE (company_id, external_id)
);`,
	},
	{
		Name: "create_index_invoices_company_synced",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_company_synced ON invoices (company_id, synced_at DESC);`,
	},
	{
		Name: "create_index_invoices_issuer_vat",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_issuer_vat ON invoices (issuer_vat_id);`,
	},
	{
		Name: "create_index_invoices_invoice_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_invoices_invoice_date ON invoices (invoice_date);`,
	},
	{
		Name: "create_table_sync_checkpoints",
		SQL: `CREATE TABLE IF NOT EXISTS sync_checkpoints (
  company_id     BIGINT      PRIMARY KEY REFERENCES companies(id),
  last_synced_at TIMESTAMPTZ NOT NULL
);`,
	},
}

// EnsureMigrated checks if the 'invoices' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	query := "SELECT to_regclass('public.invoices') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("migration sentinel check failed", zap.Error(err))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("migration complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
