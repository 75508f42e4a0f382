package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/infrastructure/metrics"
	"github.com/mietwerk/rentledger/internal/match"
)

// MatchUseCase produces ranked contract suggestions for unmatched
// transactions and records confirmed matches.
type MatchUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	contractRepo    ContractRepository
	auditRepo       AuditRepository
	cache           Cache
	idGen           IDGenerator
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewMatchUseCase creates a new MatchUseCase.
func NewMatchUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	contractRepo ContractRepository,
	auditRepo AuditRepository,
	cache Cache,
	idGen IDGenerator,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *MatchUseCase {
	return &MatchUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		contractRepo:    contractRepo,
		auditRepo:       auditRepo,
		cache:           cache,
		idGen:           idGen,
		logger:          logger,
		metrics:         m,
	}
}

// MatchTransaction scores every active contract against the transaction and
// returns candidates ordered by descending score. Zero-score contracts are
// omitted.
func (uc *MatchUseCase) MatchTransaction(ctx context.Context, transactionID string) ([]match.Candidate, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	contracts, err := uc.activeContracts(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]match.Input, 0, len(contracts))
	for _, contract := range contracts {
		in := match.Input{Transaction: transaction, Contract: contract}

		// Lookup failures degrade the signal set for this contract, they do
		// not fail the whole match.
		if tenant, err := uc.contractRepo.GetTenant(ctx, contract.TenantID); err == nil {
			in.Tenant = tenant
		}

		if contract.SecondTenantID != "" {
			if tenant, err := uc.contractRepo.GetTenant(ctx, contract.SecondTenantID); err == nil {
				in.SecondTenant = tenant
			}
		}

		if unit, err := uc.contractRepo.GetUnit(ctx, contract.UnitID); err == nil {
			in.Unit = unit

			if building, err := uc.contractRepo.GetBuilding(ctx, unit.BuildingID); err == nil {
				in.Building = building
			}
		}

		inputs = append(inputs, in)
	}

	return match.Rank(inputs), nil
}

// ConfirmMatch assigns a contract to a transaction without reconciling it.
// The contract must be active.
func (uc *MatchUseCase) ConfirmMatch(ctx context.Context, transactionID, contractID, actorID string) (*domain.Transaction, error) {
	contract, err := uc.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if !contract.IsActive() {
		return nil, domain.ErrContractNotActive
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	transaction, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	// A reconciled transaction's assignment is final; undo is not supported
	// at the match level.
	if transaction.ReconciledAt != nil {
		return nil, domain.ErrTransactionMatched
	}

	transaction.ContractID = contract.ID
	transaction.UnitID = contract.UnitID
	transaction.Matched = true

	if err := uc.transactionRepo.MarkReconciled(ctx, tx, transaction); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       actorID,
		Action:       string(domain.AuditActionTransactionMatch),
		ResourceType: domain.AggregateTypeTransaction,
		ResourceID:   transaction.ID,
		Status:       string(domain.AuditStatusSuccess),
		AfterState: domain.MarshalState(map[string]any{
			"contract_id": contract.ID,
			"unit_id":     contract.UnitID,
		}),
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MatchesConfirmed.Inc()
	}

	return transaction, nil
}

// activeContracts loads the active contract set, preferring the cache.
func (uc *MatchUseCase) activeContracts(ctx context.Context) ([]*domain.LeaseContract, error) {
	if data, err := uc.cache.Get(ctx, ActiveContractsCacheKey); err == nil && data != nil {
		var contracts []*domain.LeaseContract
		if err := json.Unmarshal(data, &contracts); err == nil {
			return contracts, nil
		}
	}

	contracts, err := uc.contractRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(contracts); err == nil {
		if err := uc.cache.Set(ctx, ActiveContractsCacheKey, data, ActiveContractsCacheTTL); err != nil {
			uc.logger.Warn().Err(err).Msg("failed to cache active contracts")
		}
	}

	return contracts, nil
}
