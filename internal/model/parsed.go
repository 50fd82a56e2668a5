package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParsedInvoice is the extraction engine's canonical projection of one invoice
// document. It is transient: never persisted verbatim, only projected into
// Invoice fields (and stored as a JSON projection for downstream reads).
type ParsedInvoice struct {
	Number         string           `json:"number"`
	IssuerName     string           `json:"issuer_name"`
	IssuerVATID    string           `json:"issuer_vat_id"`
	RecipientName  string           `json:"recipient_name"`
	RecipientVATID string           `json:"recipient_vat_id"`
	IssueDate      *time.Time       `json:"issue_date"`
	Total          *decimal.Decimal `json:"total"`
	Currency       string           `json:"currency"`
	Lines          []LineItem       `json:"lines"`
}

// LineItem is one repeatable invoice line. Figures are presentation-only here,
// so ordinary floating point is fine; unparsable numerics stay nil.
type LineItem struct {
	ExternalID    string   `json:"external_id"`
	Name          string   `json:"name"`
	Quantity      *float64 `json:"quantity"`
	Unit          string   `json:"unit"`
	UnitPrice     *float64 `json:"unit_price"`
	PriceCurrency string   `json:"price_currency"`
	NetAmount     *float64 `json:"net_amount"`
	NetCurrency   string   `json:"net_currency"`
	VATRate       *float64 `json:"vat_rate"`
	VATCategory   string   `json:"vat_category"`
}

// Empty reports whether every field of the line is absent; fully empty items
// are dropped during extraction.
func (li LineItem) Empty() bool {
	return li.ExternalID == "" && li.Name == "" && li.Unit == "" &&
		li.PriceCurrency == "" && li.NetCurrency == "" && li.VATCategory == "" &&
		li.Quantity == nil && li.UnitPrice == nil && li.NetAmount == nil && li.VATRate == nil
}
