package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialItemStatus is the settlement state of a receivable.
type FinancialItemStatus string

const (
	FinancialItemStatusPending FinancialItemStatus = "pending"
	FinancialItemStatusPartial FinancialItemStatus = "partial"
	FinancialItemStatusOverdue FinancialItemStatus = "overdue"
	FinancialItemStatusPaid    FinancialItemStatus = "paid"
)

// FinancialItem is a single expected receivable (typically one month's rent)
// tied to a lease contract. Amount is the portion already settled through
// committed allocations; it only ever grows through ApplyAllocation.
type FinancialItem struct {
	ID             string
	ContractID     string
	Category       string
	PaymentMonth   string // YYYY-MM
	Status         FinancialItemStatus
	ExpectedAmount decimal.Decimal
	Amount         decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OpenAmount returns the unsettled remainder of the receivable.
func (f *FinancialItem) OpenAmount() decimal.Decimal {
	return f.ExpectedAmount.Sub(f.Amount)
}

// IsOpen reports whether the item can still receive allocations.
func (f *FinancialItem) IsOpen() bool {
	return f.Status != FinancialItemStatusPaid && f.OpenAmount().IsPositive()
}

// ValidateAllocation checks whether amount may be allocated to this item.
func (f *FinancialItem) ValidateAllocation(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAllocationAmount
	}

	if amount.GreaterThan(f.OpenAmount()) {
		return ErrAllocationExceedsOpenAmount
	}

	return nil
}

// ApplyAllocation settles amount against the item and transitions its status.
// The open amount can never go negative.
func (f *FinancialItem) ApplyAllocation(amount decimal.Decimal) error {
	if err := f.ValidateAllocation(amount); err != nil {
		return err
	}

	f.Amount = f.Amount.Add(amount)

	if f.OpenAmount().IsZero() {
		f.Status = FinancialItemStatusPaid
	} else {
		f.Status = FinancialItemStatusPartial
	}

	return nil
}
