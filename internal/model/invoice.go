package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message types as reported by the provider's listing endpoint.
const (
	MessageTypeReceived = "FACTURA PRIMITA"
	MessageTypeSent     = "FACTURA TRIMISA"
)

// Invoice is a synced invoice record. Identity is (CompanyID, ExternalID) and
// is immutable once created; the remaining fields are enrichment fields that
// may be back-filled by later passes but are never overwritten once populated.
// This is a pure domain model with no database-specific dependencies or tags.
type Invoice struct {
	ID              int64               `json:"id"`
	CompanyID       int64               `json:"company_id"`
	ExternalID      string              `json:"external_id"`
	MessageType     string              `json:"message_type"`
	IssuerName      string              `json:"issuer_name"`
	IssuerVATID     string              `json:"issuer_vat_id"`
	RecipientName   string              `json:"recipient_name"`
	RecipientVATID  string              `json:"recipient_vat_id"`
	InvoiceDate     *time.Time          `json:"invoice_date"`
	TotalAmount     decimal.NullDecimal `json:"total_amount"`
	Currency        string              `json:"currency"`
	XMLContent      string              `json:"-"`
	Projection      []byte              `json:"-"`
	ArchivePath     string              `json:"archive_path"`
	SyncedAt        time.Time           `json:"synced_at"`
}

// IsIncomplete reports whether any enrichment field still holds a sentinel or
// missing value and the record is therefore a candidate for reparsing.
func (inv *Invoice) IsIncomplete() bool {
	return IsMissing(inv.IssuerName) ||
		IsMissing(inv.RecipientName) ||
		IsMissing(inv.IssuerVATID) ||
		IsMissing(inv.RecipientVATID) ||
		IsMissing(inv.Currency) ||
		!inv.TotalAmount.Valid
}

// IsMissing reports whether a text field counts as "not yet enriched":
// empty, or the single-dash placeholder some upstream documents carry.
func IsMissing(s string) bool {
	return s == "" || s == "-"
}

// Company is a registered company whose invoices are synced on its behalf.
type Company struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	TaxID             string    `json:"tax_id"`
	Name              string    `json:"name"`
	AutoSyncEnabled   bool      `json:"auto_sync_enabled"`
	SyncIntervalHours int       `json:"sync_interval_hours"`
	CreatedAt         time.Time `json:"created_at"`
}

// SyncCheckpoint records the timestamp of a company's most recent successful
// sync pass. It sizes the next lookback window.
type SyncCheckpoint struct {
	CompanyID    int64     `json:"company_id"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}
