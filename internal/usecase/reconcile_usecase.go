package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/infrastructure/metrics"
)

// ReconcileUseCase commits categorizations: it settles a transaction against
// the financial items of a contract in one database transaction.
type ReconcileUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	contractRepo    ContractRepository
	itemRepo        FinancialItemRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	retrier         TxRetrier
	metrics         *metrics.Metrics
}

// NewReconcileUseCase creates a new ReconcileUseCase.
func NewReconcileUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	contractRepo ContractRepository,
	itemRepo FinancialItemRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier TxRetrier,
	m *metrics.Metrics,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		contractRepo:    contractRepo,
		itemRepo:        itemRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		retrier:         retrier,
		metrics:         m,
	}
}

// AllocationProposal is a suggested distribution of a transaction across the
// open financial items of a contract.
type AllocationProposal struct {
	Allocations []domain.Allocation
	Remaining   decimal.Decimal
	Items       []*domain.FinancialItem
}

// ProposeAllocations suggests how to distribute the transaction amount over
// the contract's open items, oldest payment month first. The proposal is
// advisory; the caller can edit it before committing.
func (uc *ReconcileUseCase) ProposeAllocations(ctx context.Context, transactionID, contractID, category string) (*AllocationProposal, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.contractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}

	items, err := uc.itemRepo.ListOpenByContract(ctx, contractID, category)
	if err != nil {
		return nil, err
	}

	allocations, remaining := domain.ProposeAllocations(transaction.Amount, items)

	return &AllocationProposal{
		Allocations: allocations,
		Remaining:   remaining,
		Items:       items,
	}, nil
}

// ReconcileInput represents input for committing a reconciliation.
type ReconcileInput struct {
	TransactionID string
	Category      string
	ContractID    string
	Allocations   []domain.Allocation
	ActorID       string
}

// Reconcile categorizes a transaction and applies its allocations. Rent
// income requires a contract and at least one allocation; other categories
// may reconcile bare. Everything commits in a single database transaction,
// so a mid-flight failure leaves no partial allocations behind.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*domain.Transaction, error) {
	if err := domain.ValidateCategory(input.Category); err != nil {
		return nil, err
	}

	if input.Category == domain.CategoryRentIncome && len(input.Allocations) == 0 {
		return nil, domain.ErrNoAllocations
	}

	if len(input.Allocations) > 0 && input.ContractID == "" {
		return nil, domain.ErrContractNotFound
	}

	var contract *domain.LeaseContract
	if input.ContractID != "" {
		var err error
		contract, err = uc.contractRepo.GetByID(ctx, input.ContractID)
		if err != nil {
			return nil, err
		}
	}

	plan := domain.AllocationPlan{Allocations: input.Allocations}

	var (
		transaction *domain.Transaction
		settled     []*domain.FinancialItem
	)

	// The whole commit re-runs from Begin on a deadlock or serialization
	// retry, re-reading the locked rows each attempt.
	commit := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		transaction, err = uc.transactionRepo.GetByIDForUpdate(ctx, tx, input.TransactionID)
		if err != nil {
			return err
		}

		if transaction.ReconciledAt != nil {
			return domain.ErrTransactionMatched
		}

		now := time.Now().UTC()

		settled = nil
		if len(input.Allocations) > 0 {
			settled, err = uc.applyAllocations(ctx, tx, transaction, input, now)
			if err != nil {
				return err
			}
		}

		transaction.Category = input.Category
		transaction.Matched = input.ContractID != ""
		transaction.ReconciledAt = &now
		if contract != nil {
			transaction.ContractID = contract.ID
			transaction.UnitID = contract.UnitID
		}

		if err := uc.transactionRepo.MarkReconciled(ctx, tx, transaction); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateType: domain.AggregateTypeTransaction,
			AggregateID:   transaction.ID,
			EventType:     domain.EventTypeTransactionReconciled,
			Payload: domain.MarshalState(domain.TransactionReconciledEvent{
				TransactionID: transaction.ID,
				Category:      transaction.Category,
				ContractID:    transaction.ContractID,
				UnitID:        transaction.UnitID,
				Allocated:     plan.Total().String(),
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		for _, item := range settled {
			if item.Status != domain.FinancialItemStatusPaid {
				continue
			}

			settledEvent := &domain.OutboxEvent{
				ID:            uc.idGen.Generate(),
				AggregateType: domain.AggregateTypeFinancialItem,
				AggregateID:   item.ID,
				EventType:     domain.EventTypeFinancialItemSettled,
				Payload: domain.MarshalState(domain.FinancialItemSettledEvent{
					FinancialItemID: item.ID,
					ContractID:      item.ContractID,
					PaymentMonth:    item.PaymentMonth,
					Status:          string(item.Status),
					OpenAmount:      item.OpenAmount().String(),
				}),
				CreatedAt: now,
			}
			if err := uc.outboxRepo.Create(ctx, tx, settledEvent); err != nil {
				return err
			}
		}

		audit := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.ActorID,
			Action:       string(domain.AuditActionTransactionReconcile),
			ResourceType: domain.AggregateTypeTransaction,
			ResourceID:   transaction.ID,
			Status:       string(domain.AuditStatusSuccess),
			AfterState: domain.MarshalState(map[string]any{
				"category":    transaction.Category,
				"contract_id": transaction.ContractID,
				"allocated":   plan.Total().String(),
				"allocations": len(input.Allocations),
			}),
			CreatedAt: now,
		}
		if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if err := retryTx(ctx, uc.retrier, commit); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationsCommitted.WithLabelValues(transaction.Category).Inc()
		uc.metrics.AllocatedAmount.Observe(plan.Total().InexactFloat64())

		for _, item := range settled {
			if item.Status == domain.FinancialItemStatusPaid {
				uc.metrics.ItemsSettled.Inc()
			}
		}
	}

	return transaction, nil
}

// applyAllocations locks the referenced items, validates the full plan
// against them and writes the settled amounts.
func (uc *ReconcileUseCase) applyAllocations(
	ctx context.Context,
	tx Transaction,
	transaction *domain.Transaction,
	input ReconcileInput,
	now time.Time,
) ([]*domain.FinancialItem, error) {
	ids := make([]string, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		ids = append(ids, a.FinancialItemID)
	}

	items, err := uc.itemRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	itemMap := make(map[string]*domain.FinancialItem, len(items))
	for _, item := range items {
		itemMap[item.ID] = item
	}

	plan := domain.AllocationPlan{
		TransactionID: transaction.ID,
		ContractID:    input.ContractID,
		Allocations:   input.Allocations,
	}
	if err := plan.Validate(transaction.Amount, itemMap); err != nil {
		return nil, err
	}

	settled := make([]*domain.FinancialItem, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		item := itemMap[a.FinancialItemID]
		if err := item.ApplyAllocation(a.Amount); err != nil {
			return nil, err
		}

		item.UpdatedAt = now
		if err := uc.itemRepo.Update(ctx, tx, item); err != nil {
			return nil, err
		}

		settled = append(settled, item)
	}

	return settled, nil
}
