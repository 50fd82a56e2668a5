package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efactura/internal/model"
	"efactura/internal/repository"
)

var invoiceCols = []string{
	"id", "company_id", "external_id", "message_type", "issuer_name", "issuer_vat_id",
	"recipient_name", "recipient_vat_id", "invoice_date", "total_amount", "currency",
	"xml_content", "projection", "archive_path", "synced_at",
}

func invoiceRow(mock sqlmock.Sqlmock, id int64) *sqlmock.Rows {
	return mock.NewRows(invoiceCols).AddRow(
		id, int64(7), "5001", model.MessageTypeReceived, "ACME SRL", "12345678",
		"Client SA", "87654321", time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), "400.00", "RON",
		"<Invoice/>", []byte(`{"number":"FAC-1"}`), "7/2025/01/invoice_5001.zip", time.Now(),
	)
}

func newMockRepo(t *testing.T) (*InvoicePostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInvoicePostgres(db), mock
}

func TestInvoicePostgresCreate(t *testing.T) {
	sample := &model.Invoice{
		CompanyID:   7,
		ExternalID:  "5001",
		MessageType: model.MessageTypeReceived,
		IssuerName:  "ACME SRL",
		TotalAmount: decimal.NullDecimal{Decimal: decimal.RequireFromString("400.00"), Valid: true},
		XMLContent:  "<Invoice/>",
		SyncedAt:    time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO invoices").WillReturnRows(invoiceRow(mock, 1))

		out, err := repo.Create(context.Background(), sample)
		require.NoError(t, err)
		assert.Equal(t, int64(1), out.ID)
		assert.Equal(t, "ACME SRL", out.IssuerName)
		assert.True(t, out.TotalAmount.Valid)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("identity collision maps to ErrDuplicate", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO invoices").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "invoices_company_id_external_id_key"})

		_, err := repo.Create(context.Background(), sample)
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestInvoicePostgresFindByExternalID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM invoices WHERE company_id = \$1 AND external_id = \$2`).
			WithArgs(int64(7), "5001").
			WillReturnRows(invoiceRow(mock, 1))

		inv, err := repo.FindByExternalID(context.Background(), 7, "5001")
		require.NoError(t, err)
		assert.Equal(t, "5001", inv.ExternalID)
		assert.Equal(t, "12345678", inv.IssuerVATID)
		require.NotNil(t, inv.InvoiceDate)
	})

	t.Run("absence is sql.ErrNoRows", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM invoices WHERE company_id = \$1 AND external_id = \$2`).
			WithArgs(int64(7), "nope").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByExternalID(context.Background(), 7, "nope")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestInvoicePostgresUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE invoices").WillReturnResult(sqlmock.NewResult(0, 1))

	inv := &model.Invoice{ID: 1, IssuerName: "ACME SRL", SyncedAt: time.Now()}
	err := repo.Update(context.Background(), inv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoicePostgresList(t *testing.T) {
	t.Run("with issuer filter", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices WHERE company_id = \$1 AND issuer_vat_id = \$2`).
			WithArgs(int64(7), "12345678").
			WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM invoices WHERE company_id = \$1 AND issuer_vat_id = \$2 ORDER BY synced_at DESC`).
			WithArgs(int64(7), "12345678", 10, 0).
			WillReturnRows(invoiceRow(mock, 1))

		res, err := repo.List(context.Background(), 7,
			repository.InvoiceFilter{IssuerVATID: "12345678"},
			repository.PageQuery{Limit: 10, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "ACME SRL", res.Items[0].IssuerName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM invoices WHERE company_id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(mock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`FROM invoices WHERE company_id = \$1 ORDER BY synced_at DESC`).
			WithArgs(int64(7), 10, 0).
			WillReturnRows(mock.NewRows(invoiceCols))

		res, err := repo.List(context.Background(), 7, repository.InvoiceFilter{}, repository.PageQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestInvoicePostgresListIncomplete(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := mock.NewRows(invoiceCols).AddRow(
		int64(3), int64(7), "5002", model.MessageTypeReceived, nil, "-",
		nil, nil, nil, nil, nil,
		"<Invoice/>", nil, nil, time.Now(),
	)
	mock.ExpectQuery(`total_amount IS NULL`).WithArgs(200).WillReturnRows(rows)

	items, err := repo.ListIncomplete(context.Background(), 200)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "5002", items[0].ExternalID)
	assert.Equal(t, "-", items[0].IssuerVATID)
	assert.False(t, items[0].TotalAmount.Valid)
	assert.True(t, items[0].IsIncomplete())
}
