package anaf

import (
	"regexp"
	"time"
)

// Message is one listed invoice message. The provider encodes the issuer and
// recipient tax ids inside the free-text Details field and ships the creation
// timestamp as a fixed-width date-time string; both are parsed defensively so
// a malformed sub-field never aborts processing of the message.
type Message struct {
	ID        string `json:"id"`
	CreatedAt string `json:"data_creare"` // fixed-width, YYYYMMDDHHmm
	Type      string `json:"tip"`
	TaxID     string `json:"cif"`
	Details   string `json:"detalii"`
}

var (
	issuerPattern    = regexp.MustCompile(`cif_emitent=(\d+)`)
	recipientPattern = regexp.MustCompile(`cif_beneficiar=(\d+)`)
)

// CreationDate parses the date prefix of the creation timestamp. A missing or
// malformed value yields nil, never an error.
func (m Message) CreationDate() *time.Time {
	if len(m.CreatedAt) < 8 {
		return nil
	}
	t, err := time.Parse("20060102", m.CreatedAt[:8])
	if err != nil {
		return nil
	}
	return &t
}

// IssuerTaxID extracts the issuer's tax id from the details pattern, e.g.
// "Factura cu id_incarcare=563 emisa de cif_emitent=326 pentru cif_beneficiar=513".
func (m Message) IssuerTaxID() string {
	return firstGroup(issuerPattern, m.Details)
}

// RecipientTaxID extracts the recipient's tax id from the details pattern.
func (m Message) RecipientTaxID() string {
	return firstGroup(recipientPattern, m.Details)
}

func firstGroup(re *regexp.Regexp, s string) string {
	match := re.FindStringSubmatch(s)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
