package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFinancialItem_ApplyAllocation(t *testing.T) {
	tests := []struct {
		name        string
		expected    string
		allocated   string
		apply       string
		wantStatus  FinancialItemStatus
		wantOpen    string
		expectError error
	}{
		{
			name:       "full settlement transitions to paid",
			expected:   "950.00",
			allocated:  "0",
			apply:      "950.00",
			wantStatus: FinancialItemStatusPaid,
			wantOpen:   "0",
		},
		{
			name:       "partial settlement transitions to partial",
			expected:   "950.00",
			allocated:  "0",
			apply:      "400.00",
			wantStatus: FinancialItemStatusPartial,
			wantOpen:   "550",
		},
		{
			name:       "second allocation completes the item",
			expected:   "950.00",
			allocated:  "400.00",
			apply:      "550.00",
			wantStatus: FinancialItemStatusPaid,
			wantOpen:   "0",
		},
		{
			name:        "over-allocation rejected",
			expected:    "950.00",
			allocated:   "900.00",
			apply:       "100.00",
			expectError: ErrAllocationExceedsOpenAmount,
		},
		{
			name:        "zero amount rejected",
			expected:    "950.00",
			allocated:   "0",
			apply:       "0",
			expectError: ErrInvalidAllocationAmount,
		},
		{
			name:        "negative amount rejected",
			expected:    "950.00",
			allocated:   "0",
			apply:       "-10",
			expectError: ErrInvalidAllocationAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &FinancialItem{
				ID:             "fi-1",
				ContractID:     "contract-1",
				Status:         FinancialItemStatusPending,
				ExpectedAmount: decimal.RequireFromString(tt.expected),
				Amount:         decimal.RequireFromString(tt.allocated),
			}

			err := item.ApplyAllocation(decimal.RequireFromString(tt.apply))

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", item.Status, tt.wantStatus)
			}
			if item.OpenAmount().String() != tt.wantOpen {
				t.Errorf("open amount = %s, want %s", item.OpenAmount(), tt.wantOpen)
			}
			if item.OpenAmount().IsNegative() {
				t.Error("open amount must never go negative")
			}
		})
	}
}

func TestFinancialItem_IsOpen(t *testing.T) {
	paid := &FinancialItem{
		Status:         FinancialItemStatusPaid,
		ExpectedAmount: decimal.NewFromInt(100),
		Amount:         decimal.NewFromInt(100),
	}
	if paid.IsOpen() {
		t.Error("paid item should not be open")
	}

	overdue := &FinancialItem{
		Status:         FinancialItemStatusOverdue,
		ExpectedAmount: decimal.NewFromInt(100),
		Amount:         decimal.NewFromInt(30),
	}
	if !overdue.IsOpen() {
		t.Error("overdue item with open amount should be open")
	}
}
