package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction categories. RentIncome is the only category that requires a
// contract and at least one allocation on reconciliation.
const (
	CategoryRentIncome     = "rent_income"
	CategoryDeposit        = "deposit"
	CategoryOperatingCosts = "operating_costs"
	CategoryMaintenance    = "maintenance"
	CategoryInsurance      = "insurance"
	CategoryTax            = "tax"
	CategoryOther          = "other"
)

// Transaction is one bank statement line for an account. Positive amounts are
// inflows, negative amounts outflows. A transaction is immutable after import
// except for the categorization fields written by a reconcile commit.
type Transaction struct {
	ID             string
	AccountID      string
	ImportBatchID  string
	BookingDate    time.Time
	ValueDate      *time.Time
	Amount         decimal.Decimal
	Description    string
	SenderReceiver string
	IBAN           string
	Reference      string

	// Set by reconciliation only.
	Category     string
	ContractID   string
	UnitID       string
	Matched      bool
	ReconciledAt *time.Time

	CreatedAt time.Time
}

// IsInflow reports whether the transaction is an incoming payment.
func (t *Transaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns the unsigned transaction amount.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// Fingerprint is the exact-duplicate key for a transaction. Two transactions
// with equal fingerprints are treated as the same statement line.
type Fingerprint struct {
	BookingDate string
	ValueDate   string
	Amount      string
	Sender      string
	IBAN        string
}

const (
	fingerprintSenderLen = 30
	fingerprintIBANLen   = 15
	fingerprintDateFmt   = "2006-01-02"
)

// Fingerprint derives the dedup key: booking date, value date, amount rounded
// to 2 decimals, sender prefix and IBAN prefix.
func (t *Transaction) Fingerprint() Fingerprint {
	valueDate := ""
	if t.ValueDate != nil {
		valueDate = t.ValueDate.Format(fingerprintDateFmt)
	}

	return Fingerprint{
		BookingDate: t.BookingDate.Format(fingerprintDateFmt),
		ValueDate:   valueDate,
		Amount:      t.Amount.Round(2).String(),
		Sender:      prefix(t.SenderReceiver, fingerprintSenderLen),
		IBAN:        prefix(t.IBAN, fingerprintIBANLen),
	}
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
