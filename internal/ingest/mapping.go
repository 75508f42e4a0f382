package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStaleMapping is returned when a remembered column mapping references a
// column that no longer exists in the current header set.
var ErrStaleMapping = errors.New("remembered column mapping no longer matches headers")

// ColumnMapping binds statement columns to transaction fields. Field values
// are header names; an empty value means the field is not mapped. Mappings are
// remembered per account between imports so that a bank's export format only
// has to be confirmed once.
type ColumnMapping struct {
	BookingDate    string `json:"booking_date"`
	ValueDate      string `json:"value_date,omitempty"`
	Amount         string `json:"amount"`
	Description    string `json:"description,omitempty"`
	Reference      string `json:"reference,omitempty"`
	SenderReceiver string `json:"sender_receiver,omitempty"`
	IBAN           string `json:"iban,omitempty"`
}

// Keyword sets for header auto-detection. Matching is case-insensitive
// substring containment unless listed as exact.
var (
	valueDateKeywords   = []string{"wertstellung", "valuta", "value date"}
	bookingDateKeywords = []string{"buchungstag", "buchungsdatum", "datum", "date"}
	amountKeywords      = []string{"betrag", "amount"}
	amountExact         = []string{"umsatz"}
	ibanKeywords        = []string{"iban"}
	descriptionKeywords = []string{"buchungstext", "beschreibung", "description", "text"}
	referenceKeywords   = []string{"verwendungszweck", "zweck", "referenz", "reference"}
	senderKeywords      = []string{"auftraggeber", "empfänger", "empfaenger", "begünstigter", "beguenstigter", "zahlungspflichtig", "name", "sender"}
)

// DetectMapping auto-maps headers to transaction fields using keyword sets.
// The first matching header wins per field; each header binds at most one
// field.
func DetectMapping(headers []string) ColumnMapping {
	var m ColumnMapping

	for _, header := range headers {
		lower := strings.ToLower(strings.TrimSpace(header))

		switch {
		case m.ValueDate == "" && matchesAny(lower, valueDateKeywords, nil):
			m.ValueDate = header
		case m.BookingDate == "" && matchesAny(lower, bookingDateKeywords, nil):
			m.BookingDate = header
		case m.Amount == "" && matchesAny(lower, amountKeywords, amountExact):
			m.Amount = header
		case m.IBAN == "" && matchesAny(lower, ibanKeywords, nil):
			m.IBAN = header
		case m.Description == "" && matchesAny(lower, descriptionKeywords, nil):
			m.Description = header
		case m.Reference == "" && matchesAny(lower, referenceKeywords, nil):
			m.Reference = header
		case m.SenderReceiver == "" && matchesAny(lower, senderKeywords, nil):
			m.SenderReceiver = header
		}
	}

	return m
}

func matchesAny(header string, contains, exact []string) bool {
	for _, kw := range contains {
		if strings.Contains(header, kw) {
			return true
		}
	}

	for _, kw := range exact {
		if header == kw {
			return true
		}
	}

	return false
}

// HasRequired reports whether the mapping can produce valid transactions.
// A row needs at least a booking date and an amount.
func (m ColumnMapping) HasRequired() bool {
	return m.BookingDate != "" && m.Amount != ""
}

// Columns returns all mapped column names.
func (m ColumnMapping) Columns() []string {
	var cols []string
	for _, c := range []string{m.BookingDate, m.ValueDate, m.Amount, m.Description, m.Reference, m.SenderReceiver, m.IBAN} {
		if c != "" {
			cols = append(cols, c)
		}
	}

	return cols
}

// Validate checks that every mapped column still exists in headers. A
// remembered mapping must pass validation before it is trusted over
// auto-detection.
func (m ColumnMapping) Validate(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	for _, col := range m.Columns() {
		if !present[col] {
			return fmt.Errorf("%w: column %q is missing", ErrStaleMapping, col)
		}
	}

	return nil
}
