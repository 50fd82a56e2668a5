package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"efactura/internal/model"
)

// Package extract turns one UBL invoice document into a canonical
// model.ParsedInvoice. A field that cannot be found or parsed yields a nil or
// empty value; only a document that is not parseable as markup at all fails.

// ErrMalformedDocument is returned when the document text cannot be parsed as
// markup. Absent fields never produce it.
var ErrMalformedDocument = errors.New("document is not parseable markup")

// amountVocabulary is the fixed priority order for the last-resort amount
// scan used when the LegalMonetaryTotal block is absent. For each name in
// order the whole tree is scanned in document order and the first
// strictly-positive value wins.
var amountVocabulary = []string{
	"PayableAmount",
	"TaxInclusiveAmount",
	"TaxExclusiveAmount",
	"LineExtensionAmount",
	"TaxAmount",
	"Amount",
}

// Parse extracts the canonical projection from an invoice document.
func Parse(documentText string) (*model.ParsedInvoice, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(documentText); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}

	inv := &model.ParsedInvoice{
		Number:    text(child(root, "ID")),
		IssueDate: parseDate(text(child(root, "IssueDate"))),
	}

	inv.IssuerName, inv.IssuerVATID = party(root, "AccountingSupplierParty")
	inv.RecipientName, inv.RecipientVATID = party(root, "AccountingCustomerParty")
	inv.Total, inv.Currency = total(root)
	inv.Lines = lines(root)

	return inv, nil
}

// party resolves one party wrapper into (name, vat id). The name prefers the
// legal registration name over the looser party name. The vat id scans every
// tax-scheme block and prefers the one explicitly tagged VAT.
func party(root *etree.Element, wrapperTag string) (string, string) {
	p := child(child(root, wrapperTag), "Party")
	if p == nil {
		return "", ""
	}

	name := text(find(p, "PartyLegalEntity", "RegistrationName"))
	if name == "" {
		name = text(find(p, "PartyName", "Name"))
	}

	var first string
	for _, scheme := range children(p, "PartyTaxScheme") {
		id := text(child(scheme, "CompanyID"))
		if id == "" {
			continue
		}
		if strings.EqualFold(text(find(scheme, "TaxScheme", "ID")), "VAT") {
			return name, id
		}
		if first == "" {
			first = id
		}
	}
	return name, first
}

// total resolves the invoice total and its currency. The structured totals
// block is tried first (payable, tax-inclusive, tax-exclusive, line-extension,
// first parseable value wins); only when the block is absent does the
// vocabulary scan over the whole document run.
func total(root *etree.Element) (*decimal.Decimal, string) {
	if totals := child(root, "LegalMonetaryTotal"); totals != nil {
		for _, tag := range []string{"PayableAmount", "TaxInclusiveAmount", "TaxExclusiveAmount", "LineExtensionAmount"} {
			el := child(totals, tag)
			if amount := parseDecimal(text(el)); amount != nil {
				return amount, currencyOf(root, el)
			}
		}
		return nil, ""
	}

	for _, tag := range amountVocabulary {
		if el, amount := scanPositive(root, tag); el != nil {
			return amount, currencyOf(root, el)
		}
	}
	return nil, ""
}

// scanPositive walks the tree in document order and returns the first element
// matching the tag whose value parses as a strictly positive decimal.
func scanPositive(el *etree.Element, tag string) (*etree.Element, *decimal.Decimal) {
	if matches(el.Tag, tag) {
		if amount := parseDecimal(elementText(el)); amount != nil && amount.IsPositive() {
			return el, amount
		}
	}
	for _, c := range el.ChildElements() {
		if found, amount := scanPositive(c, tag); found != nil {
			return found, amount
		}
	}
	return nil, nil
}

// currencyOf reads the winning amount element's currencyID attribute, falling
// back to the document-level currency code.
func currencyOf(root, amount *etree.Element) string {
	if amount != nil {
		if cur := strings.TrimSpace(amount.SelectAttrValue("currencyID", "")); cur != "" {
			return cur
		}
	}
	return text(child(root, "DocumentCurrencyCode"))
}

func lines(root *etree.Element) []model.LineItem {
	var items []model.LineItem
	for _, line := range children(root, "InvoiceLine") {
		qty := child(line, "InvoicedQuantity")
		price := find(line, "Price", "PriceAmount")
		net := child(line, "LineExtensionAmount")
		item := child(line, "Item")
		tax := child(item, "ClassifiedTaxCategory")

		name := text(child(item, "Name"))
		if name == "" {
			name = text(child(item, "Description"))
		}

		li := model.LineItem{
			ExternalID:    text(child(line, "ID")),
			Name:          name,
			Quantity:      parseFloat(text(qty)),
			Unit:          attr(qty, "unitCode"),
			UnitPrice:     parseFloat(text(price)),
			PriceCurrency: attr(price, "currencyID"),
			NetAmount:     parseFloat(text(net)),
			NetCurrency:   attr(net, "currencyID"),
			VATRate:       parseFloat(text(child(tax, "Percent"))),
			VATCategory:   text(child(tax, "ID")),
		}
		if !li.Empty() {
			items = append(items, li)
		}
	}
	return items
}

// child returns the first child matching the logical tag name, trying the
// exact local name first (which covers both unprefixed and any-prefixed
// renderings) and then a lower-camel-case variant. All tag resolution routes
// through here.
func child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	camel := lowerCamel(tag)
	var loose *etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if loose == nil && c.Tag == camel {
			loose = c
		}
	}
	return loose
}

// children returns every child matching the logical tag name, in document
// order.
func children(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	camel := lowerCamel(tag)
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag || c.Tag == camel {
			out = append(out, c)
		}
	}
	return out
}

// find descends through a path of logical tag names.
func find(el *etree.Element, path ...string) *etree.Element {
	for _, tag := range path {
		el = child(el, tag)
		if el == nil {
			return nil
		}
	}
	return el
}

func matches(local, tag string) bool {
	return local == tag || local == lowerCamel(tag)
}

func lowerCamel(tag string) string {
	if tag == "" {
		return tag
	}
	r := []rune(tag)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return elementText(el)
}

func elementText(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}

func attr(el *etree.Element, name string) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.SelectAttrValue(name, ""))
}

func parseDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// parseDate accepts exact calendar dates only; anything else yields nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
