package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocation applies a portion of a transaction's amount to one financial
// item. Allocations exist in memory until the reconcile commit persists them.
type Allocation struct {
	FinancialItemID string
	Amount          decimal.Decimal
}

// AllocationPlan is a caller-chosen distribution of a transaction across
// financial items of a single contract.
type AllocationPlan struct {
	TransactionID string
	ContractID    string
	Allocations   []Allocation
}

// Validate checks the full invariant set before any write:
// every item belongs to the plan's contract, every allocation amount is
// positive and within the item's open amount, and the allocation total does
// not exceed the transaction amount. A positive leftover is allowed.
func (p *AllocationPlan) Validate(transactionAmount decimal.Decimal, items map[string]*FinancialItem) error {
	if len(p.Allocations) == 0 {
		return ErrNoAllocations
	}

	total := decimal.Zero
	for _, a := range p.Allocations {
		item, ok := items[a.FinancialItemID]
		if !ok {
			return ErrFinancialItemNotFound
		}

		if item.ContractID != p.ContractID {
			return ErrForeignFinancialItem
		}

		if err := item.ValidateAllocation(a.Amount); err != nil {
			return err
		}

		total = total.Add(a.Amount)
	}

	if total.GreaterThan(transactionAmount.Abs()) {
		return ErrOverAllocation
	}

	return nil
}

// Total returns the sum of all allocation amounts in the plan.
func (p *AllocationPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Amount)
	}

	return total
}

// ProposeAllocations greedily distributes amount across open items in
// ascending payment-month order: each item receives min(remaining, open)
// until the amount or the item list is exhausted. The remainder of the
// transaction amount is returned alongside the proposal.
func ProposeAllocations(amount decimal.Decimal, items []*FinancialItem) ([]Allocation, decimal.Decimal) {
	remaining := amount.Abs()

	open := make([]*FinancialItem, 0, len(items))
	for _, item := range items {
		if item.IsOpen() {
			open = append(open, item)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].PaymentMonth < open[j].PaymentMonth
	})

	var allocations []Allocation
	for _, item := range open {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		share := decimal.Min(remaining, item.OpenAmount())
		allocations = append(allocations, Allocation{
			FinancialItemID: item.ID,
			Amount:          share,
		})
		remaining = remaining.Sub(share)
	}

	return allocations, remaining
}
