package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/dedup"
	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/ingest"
	"github.com/mietwerk/rentledger/internal/match"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// TransactionResponse represents a bank transaction in API responses.
type TransactionResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	ImportBatchID  string          `json:"import_batch_id,omitempty"`
	BookingDate    string          `json:"booking_date"`
	ValueDate      string          `json:"value_date,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description,omitempty"`
	SenderReceiver string          `json:"sender_receiver,omitempty"`
	IBAN           string          `json:"iban,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	Category       string          `json:"category,omitempty"`
	ContractID     string          `json:"contract_id,omitempty"`
	UnitID         string          `json:"unit_id,omitempty"`
	Matched        bool            `json:"matched"`
	ReconciledAt   *time.Time      `json:"reconciled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

const dateFormat = "2006-01-02"

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	valueDate := ""
	if t.ValueDate != nil {
		valueDate = t.ValueDate.Format(dateFormat)
	}

	return &TransactionResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		ImportBatchID:  t.ImportBatchID,
		BookingDate:    t.BookingDate.Format(dateFormat),
		ValueDate:      valueDate,
		Amount:         t.Amount,
		Description:    t.Description,
		SenderReceiver: t.SenderReceiver,
		IBAN:           t.IBAN,
		Reference:      t.Reference,
		Category:       t.Category,
		ContractID:     t.ContractID,
		UnitID:         t.UnitID,
		Matched:        t.Matched,
		ReconciledAt:   t.ReconciledAt,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// DuplicateSuggestionResponse represents a probable duplicate surfaced for
// review.
type DuplicateSuggestionResponse struct {
	Candidate *TransactionResponse `json:"candidate"`
	Existing  *TransactionResponse `json:"existing"`
	Score     float64              `json:"score"`
}

func suggestionsFromDedup(suggestions []dedup.Suggestion) []DuplicateSuggestionResponse {
	result := make([]DuplicateSuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		result[i] = DuplicateSuggestionResponse{
			Candidate: TransactionFromDomain(s.Candidate),
			Existing:  TransactionFromDomain(s.Existing),
			Score:     s.Score,
		}
	}
	return result
}

// ImportPreviewResponse represents a dry-run import.
type ImportPreviewResponse struct {
	Mapping      *ingest.ColumnMapping         `json:"mapping"`
	MappingFrom  string                        `json:"mapping_from"`
	Delimiter    string                        `json:"delimiter"`
	Transactions []*TransactionResponse        `json:"transactions"`
	SkippedRows  []ingest.SkippedRow           `json:"skipped_rows,omitempty"`
	Duplicates   int                           `json:"duplicates"`
	Suggestions  []DuplicateSuggestionResponse `json:"suggestions,omitempty"`
}

// ImportPreviewFromUseCase converts a preview result to a response.
func ImportPreviewFromUseCase(p *usecase.ImportPreview) *ImportPreviewResponse {
	return &ImportPreviewResponse{
		Mapping:      p.Mapping,
		MappingFrom:  string(p.MappingFrom),
		Delimiter:    p.Delimiter,
		Transactions: TransactionsFromDomain(p.New),
		SkippedRows:  p.SkippedRows,
		Duplicates:   p.Duplicates,
		Suggestions:  suggestionsFromDedup(p.Suggestions),
	}
}

// ImportResultResponse represents a committed import batch.
type ImportResultResponse struct {
	BatchID      string                        `json:"batch_id,omitempty"`
	Transactions []*TransactionResponse        `json:"transactions"`
	SkippedRows  []ingest.SkippedRow           `json:"skipped_rows,omitempty"`
	Duplicates   int                           `json:"duplicates"`
	Suggestions  []DuplicateSuggestionResponse `json:"suggestions,omitempty"`
}

// ImportResultFromUseCase converts an import result to a response.
func ImportResultFromUseCase(r *usecase.ImportResult) *ImportResultResponse {
	return &ImportResultResponse{
		BatchID:      r.BatchID,
		Transactions: TransactionsFromDomain(r.Imported),
		SkippedRows:  r.SkippedRows,
		Duplicates:   r.Duplicates,
		Suggestions:  suggestionsFromDedup(r.Suggestions),
	}
}

// UndoImportResponse represents an undone import batch.
type UndoImportResponse struct {
	BatchID string `json:"batch_id"`
	Removed int64  `json:"removed"`
}

// MatchCandidateResponse represents one scored contract suggestion.
type MatchCandidateResponse struct {
	Contract *ContractResponse `json:"contract"`
	Score    int               `json:"score"`
	Reasons  []string          `json:"reasons,omitempty"`
}

// MatchCandidatesFromDomain converts match candidates to responses.
func MatchCandidatesFromDomain(candidates []match.Candidate) []MatchCandidateResponse {
	result := make([]MatchCandidateResponse, len(candidates))
	for i, c := range candidates {
		result[i] = MatchCandidateResponse{
			Contract: ContractFromDomain(c.Contract),
			Score:    c.Score,
			Reasons:  c.Reasons,
		}
	}
	return result
}

// ContractResponse represents a lease contract in API responses.
type ContractResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	SecondTenantID string          `json:"second_tenant_id,omitempty"`
	UnitID         string          `json:"unit_id"`
	Status         string          `json:"status"`
	TotalRent      decimal.Decimal `json:"total_rent"`
	StartDate      string          `json:"start_date,omitempty"`
}

// ContractFromDomain converts a domain contract to a response.
func ContractFromDomain(c *domain.LeaseContract) *ContractResponse {
	startDate := ""
	if !c.StartDate.IsZero() {
		startDate = c.StartDate.Format(dateFormat)
	}

	return &ContractResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		SecondTenantID: c.SecondTenantID,
		UnitID:         c.UnitID,
		Status:         string(c.Status),
		TotalRent:      c.TotalRent,
		StartDate:      startDate,
	}
}

// ContractsFromDomain converts domain contracts to responses.
func ContractsFromDomain(contracts []*domain.LeaseContract) []*ContractResponse {
	result := make([]*ContractResponse, len(contracts))
	for i, c := range contracts {
		result[i] = ContractFromDomain(c)
	}
	return result
}

// TenantResponse represents a tenant in API responses.
type TenantResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// ContractDetailsResponse is a contract with its related entities.
type ContractDetailsResponse struct {
	Contract     *ContractResponse `json:"contract"`
	Tenant       *TenantResponse   `json:"tenant,omitempty"`
	SecondTenant *TenantResponse   `json:"second_tenant,omitempty"`
	UnitLabel    string            `json:"unit_label,omitempty"`
	BuildingName string            `json:"building_name,omitempty"`
	Address      string            `json:"address,omitempty"`
}

// ContractDetailsFromUseCase converts resolved contract details.
func ContractDetailsFromUseCase(d *usecase.ContractDetails) *ContractDetailsResponse {
	resp := &ContractDetailsResponse{
		Contract: ContractFromDomain(d.Contract),
	}

	if d.Tenant != nil {
		resp.Tenant = &TenantResponse{ID: d.Tenant.ID, FullName: d.Tenant.FullName()}
	}
	if d.SecondTenant != nil {
		resp.SecondTenant = &TenantResponse{ID: d.SecondTenant.ID, FullName: d.SecondTenant.FullName()}
	}
	if d.Unit != nil {
		resp.UnitLabel = d.Unit.Label
	}
	if d.Building != nil {
		resp.BuildingName = d.Building.Name
		resp.Address = d.Building.Address
	}

	return resp
}

// FinancialItemResponse represents a receivable in API responses.
type FinancialItemResponse struct {
	ID             string          `json:"id"`
	ContractID     string          `json:"contract_id"`
	Category       string          `json:"category"`
	PaymentMonth   string          `json:"payment_month"`
	Status         string          `json:"status"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	Amount         decimal.Decimal `json:"amount"`
	OpenAmount     decimal.Decimal `json:"open_amount"`
}

// FinancialItemFromDomain converts a domain financial item to a response.
func FinancialItemFromDomain(f *domain.FinancialItem) *FinancialItemResponse {
	return &FinancialItemResponse{
		ID:             f.ID,
		ContractID:     f.ContractID,
		Category:       f.Category,
		PaymentMonth:   f.PaymentMonth,
		Status:         string(f.Status),
		ExpectedAmount: f.ExpectedAmount,
		Amount:         f.Amount,
		OpenAmount:     f.OpenAmount(),
	}
}

// FinancialItemsFromDomain converts domain financial items to responses.
func FinancialItemsFromDomain(items []*domain.FinancialItem) []*FinancialItemResponse {
	result := make([]*FinancialItemResponse, len(items))
	for i, f := range items {
		result[i] = FinancialItemFromDomain(f)
	}
	return result
}

// AllocationResponse represents one proposed or committed allocation.
type AllocationResponse struct {
	FinancialItemID string          `json:"financial_item_id"`
	Amount          decimal.Decimal `json:"amount"`
}

// AllocationProposalResponse represents a suggested allocation plan.
type AllocationProposalResponse struct {
	Allocations []AllocationResponse     `json:"allocations"`
	Remaining   decimal.Decimal          `json:"remaining"`
	Items       []*FinancialItemResponse `json:"items"`
}

// AllocationProposalFromUseCase converts a proposal to a response.
func AllocationProposalFromUseCase(p *usecase.AllocationProposal) *AllocationProposalResponse {
	allocations := make([]AllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = AllocationResponse{
			FinancialItemID: a.FinancialItemID,
			Amount:          a.Amount,
		}
	}

	return &AllocationProposalResponse{
		Allocations: allocations,
		Remaining:   p.Remaining,
		Items:       FinancialItemsFromDomain(p.Items),
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
