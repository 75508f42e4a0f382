package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/usecase"
	"github.com/mietwerk/rentledger/internal/usecase/mocks"
)

type reconcileFixture struct {
	uc           *usecase.ReconcileUseCase
	txnRepo      *mocks.MockTransactionRepository
	contractRepo *mocks.MockContractRepository
	itemRepo     *mocks.MockFinancialItemRepository
	outbox       *mocks.MockOutboxRepository
	audit        *mocks.MockAuditRepository
	txMgr        *mocks.MockTransactionManager
}

func newReconcileFixture() *reconcileFixture {
	f := &reconcileFixture{
		txnRepo:      mocks.NewMockTransactionRepository(),
		contractRepo: mocks.NewMockContractRepository(),
		itemRepo:     mocks.NewMockFinancialItemRepository(),
		outbox:       mocks.NewMockOutboxRepository(),
		audit:        mocks.NewMockAuditRepository(),
		txMgr:        mocks.NewMockTransactionManager(),
	}

	f.uc = usecase.NewReconcileUseCase(
		f.txMgr, f.txnRepo, f.contractRepo, f.itemRepo,
		f.outbox, f.audit, mocks.NewMockIDGenerator(), nil, nil,
	)

	return f
}

func (f *reconcileFixture) seed(t *testing.T, amount string) {
	t.Helper()

	bookingDate, _ := time.Parse("2006-01-02", "2024-04-03")
	f.txnRepo.CreateBatch(context.Background(), nil, []*domain.Transaction{{
		ID:          "txn-1",
		AccountID:   "acc-1",
		BookingDate: bookingDate,
		Amount:      decimal.RequireFromString(amount),
	}})

	f.contractRepo.AddContract(&domain.LeaseContract{
		ID: "con-1", TenantID: "ten-1", UnitID: "unit-1",
		Status: domain.ContractStatusActive, TotalRent: decimal.RequireFromString("950.00"),
	})

	f.itemRepo.AddItem(&domain.FinancialItem{
		ID: "fi-mar", ContractID: "con-1", Category: domain.CategoryRentIncome,
		PaymentMonth: "2024-03", Status: domain.FinancialItemStatusPartial,
		ExpectedAmount: decimal.RequireFromString("950.00"),
		Amount:         decimal.RequireFromString("550.00"),
	})
	f.itemRepo.AddItem(&domain.FinancialItem{
		ID: "fi-apr", ContractID: "con-1", Category: domain.CategoryRentIncome,
		PaymentMonth: "2024-04", Status: domain.FinancialItemStatusPending,
		ExpectedAmount: decimal.RequireFromString("950.00"),
	})
}

func TestReconcileUseCase_ProposeAllocations(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "950.00")

	proposal, err := f.uc.ProposeAllocations(context.Background(), "txn-1", "con-1", domain.CategoryRentIncome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Oldest month first: 400 closes March, 550 goes to April.
	if len(proposal.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(proposal.Allocations))
	}
	if proposal.Allocations[0].FinancialItemID != "fi-mar" || !proposal.Allocations[0].Amount.Equal(decimal.RequireFromString("400")) {
		t.Errorf("first allocation = %+v", proposal.Allocations[0])
	}
	if proposal.Allocations[1].FinancialItemID != "fi-apr" || !proposal.Allocations[1].Amount.Equal(decimal.RequireFromString("550")) {
		t.Errorf("second allocation = %+v", proposal.Allocations[1])
	}
	if !proposal.Remaining.IsZero() {
		t.Errorf("remaining = %s, want 0", proposal.Remaining)
	}
}

func TestReconcileUseCase_Reconcile(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "950.00")

	txn, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{
		TransactionID: "txn-1",
		Category:      domain.CategoryRentIncome,
		ContractID:    "con-1",
		Allocations: []domain.Allocation{
			{FinancialItemID: "fi-mar", Amount: decimal.RequireFromString("400")},
			{FinancialItemID: "fi-apr", Amount: decimal.RequireFromString("550")},
		},
		ActorID: "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Category != domain.CategoryRentIncome || !txn.Matched || txn.ReconciledAt == nil {
		t.Errorf("transaction not reconciled: %+v", txn)
	}
	if txn.ContractID != "con-1" || txn.UnitID != "unit-1" {
		t.Errorf("contract assignment missing: %+v", txn)
	}

	march, _ := f.itemRepo.GetByID(context.Background(), "fi-mar")
	if march.Status != domain.FinancialItemStatusPaid || !march.OpenAmount().IsZero() {
		t.Errorf("march item not settled: %+v", march)
	}

	april, _ := f.itemRepo.GetByID(context.Background(), "fi-apr")
	if april.Status != domain.FinancialItemStatusPartial || !april.OpenAmount().Equal(decimal.RequireFromString("400")) {
		t.Errorf("april item wrong: %+v", april)
	}

	// One reconciled event plus one settled event for the paid March item.
	var reconciled, settled int
	for _, e := range f.outbox.Events() {
		switch e.EventType {
		case domain.EventTypeTransactionReconciled:
			reconciled++
		case domain.EventTypeFinancialItemSettled:
			settled++
		}
	}
	if reconciled != 1 || settled != 1 {
		t.Errorf("events = %d reconciled / %d settled, want 1/1", reconciled, settled)
	}

	if f.txMgr.LastTx == nil || !f.txMgr.LastTx.Committed {
		t.Error("reconcile must commit its transaction")
	}
}

func TestReconcileUseCase_Reconcile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*reconcileFixture) usecase.ReconcileInput
		wantErr error
	}{
		{
			name: "invalid category",
			prepare: func(f *reconcileFixture) usecase.ReconcileInput {
				return usecase.ReconcileInput{TransactionID: "txn-1", Category: "gambling"}
			},
			wantErr: domain.ErrInvalidCategory,
		},
		{
			name: "rent income requires allocations",
			prepare: func(f *reconcileFixture) usecase.ReconcileInput {
				return usecase.ReconcileInput{TransactionID: "txn-1", Category: domain.CategoryRentIncome, ContractID: "con-1"}
			},
			wantErr: domain.ErrNoAllocations,
		},
		{
			name: "allocations require a contract",
			prepare: func(f *reconcileFixture) usecase.ReconcileInput {
				return usecase.ReconcileInput{
					TransactionID: "txn-1",
					Category:      domain.CategoryDeposit,
					Allocations:   []domain.Allocation{{FinancialItemID: "fi-mar", Amount: decimal.NewFromInt(100)}},
				}
			},
			wantErr: domain.ErrContractNotFound,
		},
		{
			name: "over-allocation rejected",
			prepare: func(f *reconcileFixture) usecase.ReconcileInput {
				return usecase.ReconcileInput{
					TransactionID: "txn-1",
					Category:      domain.CategoryRentIncome,
					ContractID:    "con-1",
					Allocations: []domain.Allocation{
						{FinancialItemID: "fi-mar", Amount: decimal.RequireFromString("400")},
						{FinancialItemID: "fi-apr", Amount: decimal.RequireFromString("700")},
					},
				}
			},
			wantErr: domain.ErrOverAllocation,
		},
		{
			name: "allocation beyond open amount rejected",
			prepare: func(f *reconcileFixture) usecase.ReconcileInput {
				return usecase.ReconcileInput{
					TransactionID: "txn-1",
					Category:      domain.CategoryRentIncome,
					ContractID:    "con-1",
					Allocations: []domain.Allocation{
						{FinancialItemID: "fi-mar", Amount: decimal.RequireFromString("500")},
					},
				}
			},
			wantErr: domain.ErrAllocationExceedsOpenAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReconcileFixture()
			f.seed(t, "950.00")

			_, err := f.uc.Reconcile(context.Background(), tt.prepare(f))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			// Failed reconciles leave the items untouched.
			march, _ := f.itemRepo.GetByID(context.Background(), "fi-mar")
			if !march.Amount.Equal(decimal.RequireFromString("550.00")) {
				t.Errorf("march item mutated by failed reconcile: %+v", march)
			}
		})
	}
}

func TestReconcileUseCase_Reconcile_BareCategorization(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "-300.00")

	txn, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{
		TransactionID: "txn-1",
		Category:      domain.CategoryMaintenance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Category != domain.CategoryMaintenance || txn.ReconciledAt == nil {
		t.Errorf("bare categorization not recorded: %+v", txn)
	}
	if txn.Matched || txn.ContractID != "" {
		t.Errorf("bare categorization must not assign a contract: %+v", txn)
	}
}

func TestReconcileUseCase_Reconcile_AlreadyReconciled(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "950.00")

	input := usecase.ReconcileInput{
		TransactionID: "txn-1",
		Category:      domain.CategoryRentIncome,
		ContractID:    "con-1",
		Allocations:   []domain.Allocation{{FinancialItemID: "fi-apr", Amount: decimal.RequireFromString("950")}},
	}

	if _, err := f.uc.Reconcile(context.Background(), input); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}

	_, err := f.uc.Reconcile(context.Background(), input)
	if !errors.Is(err, domain.ErrTransactionMatched) {
		t.Errorf("expected ErrTransactionMatched, got %v", err)
	}
}

func TestReconcileUseCase_Reconcile_OutflowUsesAbsoluteAmount(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "-400.00")

	txn, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{
		TransactionID: "txn-1",
		Category:      domain.CategoryOperatingCosts,
		ContractID:    "con-1",
		Allocations:   []domain.Allocation{{FinancialItemID: "fi-mar", Amount: decimal.RequireFromString("400")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Category != domain.CategoryOperatingCosts {
		t.Errorf("category = %s", txn.Category)
	}

	march, _ := f.itemRepo.GetByID(context.Background(), "fi-mar")
	if march.Status != domain.FinancialItemStatusPaid {
		t.Errorf("march item not settled: %+v", march)
	}
}

// rerunRetrier re-runs a failed operation once, standing in for the
// backoff-based database retrier.
type rerunRetrier struct{ attempts int }

func (r *rerunRetrier) Retry(_ context.Context, op func() error) error {
	for {
		r.attempts++
		err := op()
		if err == nil || r.attempts == 2 {
			return err
		}
	}
}

func TestReconcileUseCase_Reconcile_RetriesTransientFailure(t *testing.T) {
	f := newReconcileFixture()
	f.seed(t, "950.00")

	retrier := &rerunRetrier{}
	f.uc = usecase.NewReconcileUseCase(
		f.txMgr, f.txnRepo, f.contractRepo, f.itemRepo,
		f.outbox, f.audit, mocks.NewMockIDGenerator(), retrier, nil,
	)

	// First attempt dies before any row is touched; the retry must re-run
	// the whole transaction and succeed.
	reads := 0
	f.txnRepo.GetByIDForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
		reads++
		if reads == 1 {
			return nil, errors.New("deadlock detected")
		}
		return f.txnRepo.GetByID(ctx, id)
	}

	txn, err := f.uc.Reconcile(context.Background(), usecase.ReconcileInput{
		TransactionID: "txn-1",
		Category:      domain.CategoryRentIncome,
		ContractID:    "con-1",
		Allocations: []domain.Allocation{
			{FinancialItemID: "fi-mar", Amount: decimal.RequireFromString("400")},
			{FinancialItemID: "fi-apr", Amount: decimal.RequireFromString("550")},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if retrier.attempts != 2 || reads != 2 {
		t.Errorf("attempts = %d reads = %d, want 2/2", retrier.attempts, reads)
	}
	if txn.ReconciledAt == nil {
		t.Errorf("transaction not reconciled after retry: %+v", txn)
	}

	march, _ := f.itemRepo.GetByID(context.Background(), "fi-mar")
	if march.Status != domain.FinancialItemStatusPaid {
		t.Errorf("march item not settled after retry: %+v", march)
	}
}
