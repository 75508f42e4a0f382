package dto

import (
	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/dedup"
	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// ImportRequest represents a request to preview or commit a statement import.
type ImportRequest struct {
	AccountID string        `json:"account_id"`
	FileName  string        `json:"file_name,omitempty"`
	Content   string        `json:"content"`
	ForceSkip []SkipKeyItem `json:"force_skip,omitempty"`
}

// SkipKeyItem identifies one candidate row the user chose to drop.
type SkipKeyItem struct {
	BookingDate string `json:"booking_date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *ImportRequest) ToUseCaseInput(actorID string) usecase.ImportInput {
	forceSkip := make([]dedup.SkipKey, len(r.ForceSkip))
	for i, k := range r.ForceSkip {
		forceSkip[i] = dedup.SkipKey{
			BookingDate: k.BookingDate,
			Amount:      k.Amount,
			Description: k.Description,
		}
	}

	return usecase.ImportInput{
		AccountID: r.AccountID,
		Content:   r.Content,
		FileName:  r.FileName,
		ForceSkip: forceSkip,
		ActorID:   actorID,
	}
}

// UndoImportRequest represents a request to undo the latest import batch.
type UndoImportRequest struct {
	AccountID string `json:"account_id"`
}

// ConfirmMatchRequest represents a request to assign a contract to a
// transaction.
type ConfirmMatchRequest struct {
	ContractID string `json:"contract_id"`
}

// ProposeAllocationsRequest represents a request for an allocation proposal.
type ProposeAllocationsRequest struct {
	ContractID string `json:"contract_id"`
	Category   string `json:"category,omitempty"`
}

// AllocationItem represents one allocation in a reconcile request.
type AllocationItem struct {
	FinancialItemID string          `json:"financial_item_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// ReconcileRequest represents a request to categorize and settle a
// transaction.
type ReconcileRequest struct {
	Category    string           `json:"category"`
	ContractID  string           `json:"contract_id,omitempty"`
	Allocations []AllocationItem `json:"allocations,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReconcileRequest) ToUseCaseInput(transactionID, actorID string) usecase.ReconcileInput {
	allocations := make([]domain.Allocation, len(r.Allocations))
	for i, a := range r.Allocations {
		allocations[i] = domain.Allocation{
			FinancialItemID: a.FinancialItemID,
			Amount:          a.Amount,
		}
	}

	return usecase.ReconcileInput{
		TransactionID: transactionID,
		Category:      r.Category,
		ContractID:    r.ContractID,
		Allocations:   allocations,
		ActorID:       actorID,
	}
}
