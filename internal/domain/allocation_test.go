package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func openItem(id, contractID, month, expected, allocated string) *FinancialItem {
	return &FinancialItem{
		ID:             id,
		ContractID:     contractID,
		PaymentMonth:   month,
		Status:         FinancialItemStatusPending,
		ExpectedAmount: decimal.RequireFromString(expected),
		Amount:         decimal.RequireFromString(allocated),
	}
}

func TestAllocationPlan_Validate(t *testing.T) {
	items := map[string]*FinancialItem{
		"fi-1": openItem("fi-1", "contract-1", "2024-03", "950.00", "0"),
		"fi-2": openItem("fi-2", "contract-1", "2024-04", "950.00", "0"),
		"fi-x": openItem("fi-x", "contract-9", "2024-03", "500.00", "0"),
	}

	tests := []struct {
		name        string
		plan        AllocationPlan
		txAmount    string
		expectError error
	}{
		{
			name: "valid full allocation",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-1", Amount: decimal.RequireFromString("950.00")},
				},
			},
			txAmount: "950.00",
		},
		{
			name: "valid partial allocation leaves remainder",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-1", Amount: decimal.RequireFromString("400.00")},
				},
			},
			txAmount: "950.00",
		},
		{
			name: "negative transaction amount compared by absolute value",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-1", Amount: decimal.RequireFromString("950.00")},
				},
			},
			txAmount: "-950.00",
		},
		{
			name: "empty plan rejected",
			plan: AllocationPlan{
				ContractID: "contract-1",
			},
			txAmount:    "950.00",
			expectError: ErrNoAllocations,
		},
		{
			name: "unknown item rejected",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "missing", Amount: decimal.NewFromInt(10)},
				},
			},
			txAmount:    "950.00",
			expectError: ErrFinancialItemNotFound,
		},
		{
			name: "item of another contract rejected",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-x", Amount: decimal.NewFromInt(10)},
				},
			},
			txAmount:    "950.00",
			expectError: ErrForeignFinancialItem,
		},
		{
			name: "allocation above open amount rejected",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-1", Amount: decimal.RequireFromString("1000.00")},
				},
			},
			txAmount:    "2000.00",
			expectError: ErrAllocationExceedsOpenAmount,
		},
		{
			name: "total above transaction amount rejected",
			plan: AllocationPlan{
				ContractID: "contract-1",
				Allocations: []Allocation{
					{FinancialItemID: "fi-1", Amount: decimal.RequireFromString("950.00")},
					{FinancialItemID: "fi-2", Amount: decimal.RequireFromString("950.00")},
				},
			},
			txAmount:    "1000.00",
			expectError: ErrOverAllocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate(decimal.RequireFromString(tt.txAmount), items)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.plan.Total().GreaterThan(decimal.RequireFromString(tt.txAmount).Abs()) {
				t.Error("accepted plan violates conservation invariant")
			}
		})
	}
}

func TestProposeAllocations(t *testing.T) {
	t.Run("greedy assignment in payment month order", func(t *testing.T) {
		items := []*FinancialItem{
			openItem("fi-apr", "contract-1", "2024-04", "950.00", "0"),
			openItem("fi-mar", "contract-1", "2024-03", "950.00", "550.00"),
			openItem("fi-may", "contract-1", "2024-05", "950.00", "0"),
		}

		allocations, remaining := ProposeAllocations(decimal.RequireFromString("1000.00"), items)

		if len(allocations) != 2 {
			t.Fatalf("expected 2 allocations, got %d", len(allocations))
		}
		if allocations[0].FinancialItemID != "fi-mar" || allocations[0].Amount.String() != "400" {
			t.Errorf("first allocation = %s/%s, want fi-mar/400", allocations[0].FinancialItemID, allocations[0].Amount)
		}
		if allocations[1].FinancialItemID != "fi-apr" || allocations[1].Amount.String() != "600" {
			t.Errorf("second allocation = %s/%s, want fi-apr/600", allocations[1].FinancialItemID, allocations[1].Amount)
		}
		if !remaining.IsZero() {
			t.Errorf("remaining = %s, want 0", remaining)
		}
	})

	t.Run("leftover when items are exhausted", func(t *testing.T) {
		items := []*FinancialItem{
			openItem("fi-1", "contract-1", "2024-03", "300.00", "0"),
		}

		allocations, remaining := ProposeAllocations(decimal.RequireFromString("500.00"), items)

		if len(allocations) != 1 {
			t.Fatalf("expected 1 allocation, got %d", len(allocations))
		}
		if remaining.String() != "200" {
			t.Errorf("remaining = %s, want 200", remaining)
		}
	})

	t.Run("paid items are skipped", func(t *testing.T) {
		paid := openItem("fi-paid", "contract-1", "2024-02", "950.00", "950.00")
		paid.Status = FinancialItemStatusPaid

		items := []*FinancialItem{
			paid,
			openItem("fi-open", "contract-1", "2024-03", "950.00", "0"),
		}

		allocations, _ := ProposeAllocations(decimal.RequireFromString("950.00"), items)

		if len(allocations) != 1 || allocations[0].FinancialItemID != "fi-open" {
			t.Fatalf("expected single allocation to fi-open, got %+v", allocations)
		}
	})

	t.Run("outflow amount uses absolute value", func(t *testing.T) {
		items := []*FinancialItem{
			openItem("fi-1", "contract-1", "2024-03", "100.00", "0"),
		}

		allocations, remaining := ProposeAllocations(decimal.RequireFromString("-100.00"), items)

		if len(allocations) != 1 || allocations[0].Amount.String() != "100" {
			t.Fatalf("expected one allocation of 100, got %+v", allocations)
		}
		if !remaining.IsZero() {
			t.Errorf("remaining = %s, want 0", remaining)
		}
	})
}
