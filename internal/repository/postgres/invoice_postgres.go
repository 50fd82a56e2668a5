package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"efactura/internal/model"
	"efactura/internal/repository"
)

// InvoicePostgres is a PostgreSQL implementation of repository.InvoiceRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type InvoicePostgres struct {
	db *sql.DB
}

// NewInvoicePostgres creates a new InvoicePostgres repository.
func NewInvoicePostgres(db *sql.DB) *InvoicePostgres {
	return &InvoicePostgres{db: db}
}

var _ repository.InvoiceRepository = (*InvoicePostgres)(nil)

const invoiceColumns = `id, company_id, external_id, message_type, issuer_name, issuer_vat_id,
	recipient_name, recipient_vat_id, invoice_date, total_amount, currency,
	xml_content, projection, archive_path, synced_at`

// Create inserts a new invoice row and returns the stored record.
// A unique-constraint violation on (company_id, external_id) is mapped to
// repository.ErrDuplicate.
func (r *InvoicePostgres) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	const q = `
		INSERT INTO invoices (company_id, external_id, message_type, issuer_name, issuer_vat_id,
			recipient_name, recipient_vat_id, invoice_date, total_amount, currency,
			xml_content, projection, archive_path, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + invoiceColumns
	row := r.db.QueryRowContext(ctx, q,
		inv.CompanyID,
		inv.ExternalID,
		nullStr(inv.MessageType),
		nullStr(inv.IssuerName),
		nullStr(inv.IssuerVATID),
		nullStr(inv.RecipientName),
		nullStr(inv.RecipientVATID),
		nullTime(inv.InvoiceDate),
		inv.TotalAmount,
		nullStr(inv.Currency),
		inv.XMLContent,
		nullBytes(inv.Projection),
		nullStr(inv.ArchivePath),
		inv.SyncedAt,
	)
	out, err := scanInvoice(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single invoice by its surrogate ID.
func (r *InvoicePostgres) FindByID(ctx context.Context, id int64) (*model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return scanInvoice(r.db.QueryRowContext(ctx, q, id))
}

// FindByExternalID fetches a single invoice by its (company, external id) identity.
func (r *InvoicePostgres) FindByExternalID(ctx context.Context, companyID int64, externalID string) (*model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1 AND external_id = $2`
	return scanInvoice(r.db.QueryRowContext(ctx, q, companyID, externalID))
}

// Update persists enrichment fields; identity columns are never part of the SET list.
func (r *InvoicePostgres) Update(ctx context.Context, inv *model.Invoice) error {
	const q = `
		UPDATE invoices
		SET message_type = $1, issuer_name = $2, issuer_vat_id = $3,
			recipient_name = $4, recipient_vat_id = $5, invoice_date = $6,
			total_amount = $7, currency = $8, xml_content = $9,
			projection = $10, archive_path = $11, synced_at = $12
		WHERE id = $13
	`
	_, err := r.db.ExecContext(ctx, q,
		nullStr(inv.MessageType),
		nullStr(inv.IssuerName),
		nullStr(inv.IssuerVATID),
		nullStr(inv.RecipientName),
		nullStr(inv.RecipientVATID),
		nullTime(inv.InvoiceDate),
		inv.TotalAmount,
		nullStr(inv.Currency),
		inv.XMLContent,
		nullBytes(inv.Projection),
		nullStr(inv.ArchivePath),
		inv.SyncedAt,
		inv.ID,
	)
	return err
}

// List returns a company's invoices using LIMIT/OFFSET pagination and a total count.
func (r *InvoicePostgres) List(ctx context.Context, companyID int64, f repository.InvoiceFilter, pq repository.PageQuery) (*repository.PageResult[model.Invoice], error) {
	where := ` WHERE company_id = $1`
	args := []any{companyID}
	if f.IssuerVATID != "" {
		args = append(args, f.IssuerVATID)
		where += ` AND issuer_vat_id = $2`
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		where += ` AND invoice_date >= $` + strconv.Itoa(len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		where += ` AND invoice_date <= $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, pq.Limit, pq.Offset)
	q := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY synced_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Invoice]{Items: items, Total: total}, nil
}

// ListIncomplete returns invoices still carrying sentinel/missing enrichment fields.
func (r *InvoicePostgres) ListIncomplete(ctx context.Context, limit int) ([]model.Invoice, error) {
	const q = `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE issuer_name IS NULL OR issuer_name IN ('', '-')
			OR recipient_name IS NULL OR recipient_name IN ('', '-')
			OR issuer_vat_id IS NULL OR issuer_vat_id IN ('', '-')
			OR recipient_vat_id IS NULL OR recipient_vat_id IN ('', '-')
			OR total_amount IS NULL
			OR currency IS NULL OR currency IN ('', '-')
		ORDER BY id
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		inv          model.Invoice
		messageType  sql.NullString
		issuerName   sql.NullString
		issuerVAT    sql.NullString
		recipName    sql.NullString
		recipVAT     sql.NullString
		invoiceDate  sql.NullTime
		currency     sql.NullString
		projection   []byte
		archivePath  sql.NullString
	)
	if err := row.Scan(
		&inv.ID,
		&inv.CompanyID,
		&inv.ExternalID,
		&messageType,
		&issuerName,
		&issuerVAT,
		&recipName,
		&recipVAT,
		&invoiceDate,
		&inv.TotalAmount,
		&currency,
		&inv.XMLContent,
		&projection,
		&archivePath,
		&inv.SyncedAt,
	); err != nil {
		return nil, err
	}
	inv.MessageType = messageType.String
	inv.IssuerName = issuerName.String
	inv.IssuerVATID = issuerVAT.String
	inv.RecipientName = recipName.String
	inv.RecipientVATID = recipVAT.String
	if invoiceDate.Valid {
		d := invoiceDate.Time
		inv.InvoiceDate = &d
	}
	inv.Currency = currency.String
	inv.Projection = projection
	inv.ArchivePath = archivePath.String
	return &inv, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

