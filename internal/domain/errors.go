package domain

import "errors"

var (
	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionMatched  = errors.New("transaction is already reconciled")
	ErrAccountNotFound     = errors.New("account not found")
	ErrImportBatchNotFound = errors.New("no import batch found for account")
	ErrMappingNotFound     = errors.New("no remembered column mapping for account")

	// Contract errors
	ErrContractNotFound  = errors.New("contract not found")
	ErrContractNotActive = errors.New("contract is not active")
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrUnitNotFound      = errors.New("unit not found")
	ErrBuildingNotFound  = errors.New("building not found")

	// Allocation errors
	ErrFinancialItemNotFound       = errors.New("financial item not found")
	ErrForeignFinancialItem        = errors.New("financial item does not belong to the selected contract")
	ErrInvalidAllocationAmount     = errors.New("allocation amount must be positive")
	ErrAllocationExceedsOpenAmount = errors.New("allocation amount exceeds the item's open amount")
	ErrOverAllocation              = errors.New("allocation total exceeds transaction amount")
	ErrNoAllocations               = errors.New("rent income requires at least one allocation")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
