package usecase

import (
	"context"

	"github.com/mietwerk/rentledger/internal/domain"
)

// ContractUseCase exposes read access to lease contracts and their open
// receivables.
type ContractUseCase struct {
	contractRepo ContractRepository
	itemRepo     FinancialItemRepository
}

// NewContractUseCase creates a new ContractUseCase.
func NewContractUseCase(contractRepo ContractRepository, itemRepo FinancialItemRepository) *ContractUseCase {
	return &ContractUseCase{
		contractRepo: contractRepo,
		itemRepo:     itemRepo,
	}
}

// ContractDetails is a contract with its related entities resolved.
type ContractDetails struct {
	Contract     *domain.LeaseContract
	Tenant       *domain.Tenant
	SecondTenant *domain.Tenant
	Unit         *domain.Unit
	Building     *domain.Building
}

// GetContract loads a contract with tenant, unit and building resolved.
// Missing related entities are left nil rather than failing the lookup.
func (uc *ContractUseCase) GetContract(ctx context.Context, id string) (*ContractDetails, error) {
	contract, err := uc.contractRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &ContractDetails{Contract: contract}

	if tenant, err := uc.contractRepo.GetTenant(ctx, contract.TenantID); err == nil {
		details.Tenant = tenant
	}

	if contract.SecondTenantID != "" {
		if tenant, err := uc.contractRepo.GetTenant(ctx, contract.SecondTenantID); err == nil {
			details.SecondTenant = tenant
		}
	}

	if unit, err := uc.contractRepo.GetUnit(ctx, contract.UnitID); err == nil {
		details.Unit = unit

		if building, err := uc.contractRepo.GetBuilding(ctx, unit.BuildingID); err == nil {
			details.Building = building
		}
	}

	return details, nil
}

// ListActiveContracts returns all contracts currently in force.
func (uc *ContractUseCase) ListActiveContracts(ctx context.Context) ([]*domain.LeaseContract, error) {
	return uc.contractRepo.ListActive(ctx)
}

// ListOpenItems returns the contract's open financial items, optionally
// narrowed to one category.
func (uc *ContractUseCase) ListOpenItems(ctx context.Context, contractID, category string) ([]*domain.FinancialItem, error) {
	if _, err := uc.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	if category != "" {
		if err := domain.ValidateCategory(category); err != nil {
			return nil, err
		}
	}

	return uc.itemRepo.ListOpenByContract(ctx, contractID, category)
}
