package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/mietwerk/rentledger/internal/adapter/repository/postgres"
	"github.com/mietwerk/rentledger/internal/dedup"
	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/usecase"
	"github.com/mietwerk/rentledger/internal/usecase/mocks"
	"github.com/mietwerk/rentledger/tests/testutil"
)

const statement = "Buchungstag;Auftraggeber;Verwendungszweck;Betrag\n" +
	"01.03.2024;John Doe;Miete Maerz Whg 12;950,00\n" +
	"01.04.2024;John Doe;Miete April Whg 12;950,00\n"

type fixture struct {
	db              *testutil.TestDB
	transactionRepo *postgresRepo.TransactionRepository
	contractRepo    *postgresRepo.ContractRepository
	itemRepo        *postgresRepo.FinancialItemRepository
	outboxRepo      *postgresRepo.OutboxRepository
	auditRepo       *postgresRepo.AuditRepository
	importUC        *usecase.ImportUseCase
	matchUC         *usecase.MatchUseCase
	reconcileUC     *usecase.ReconcileUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(context.Background())

	f := &fixture{
		db:              db,
		transactionRepo: postgresRepo.NewTransactionRepository(db.Pool),
		contractRepo:    postgresRepo.NewContractRepository(db.Pool),
		itemRepo:        postgresRepo.NewFinancialItemRepository(db.Pool),
		outboxRepo:      postgresRepo.NewOutboxRepository(db.Pool),
		auditRepo:       postgresRepo.NewAuditRepository(db.Pool),
	}

	txManager := postgresRepo.NewTxManager(db.Pool)
	idGen := postgresRepo.NewULIDGenerator()
	detector := dedup.NewDetector(dedup.NewHeuristicScorer(), 0, zerolog.Nop())
	retrier := postgresRepo.NewRetrier(zerolog.Nop())

	f.importUC = usecase.NewImportUseCase(
		txManager, f.transactionRepo, f.outboxRepo, f.auditRepo,
		mocks.NewMockMappingStore(), detector, idGen, retrier, zerolog.Nop(), nil,
	)
	f.matchUC = usecase.NewMatchUseCase(
		txManager, f.transactionRepo, f.contractRepo, f.auditRepo,
		mocks.NewMockCache(), idGen, zerolog.Nop(), nil,
	)
	f.reconcileUC = usecase.NewReconcileUseCase(
		txManager, f.transactionRepo, f.contractRepo, f.itemRepo,
		f.outboxRepo, f.auditRepo, idGen, retrier, nil,
	)

	return f
}

func (f *fixture) importStatement(t *testing.T) *usecase.ImportResult {
	t.Helper()

	result, err := f.importUC.Import(context.Background(), usecase.ImportInput{
		AccountID: "acc-1",
		Content:   statement,
		FileName:  "statement.csv",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	return result
}

func TestImportAndUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result := f.importStatement(t)
	if len(result.Imported) != 2 {
		t.Fatalf("imported = %d, want 2", len(result.Imported))
	}

	// Re-importing the same file must be a no-op.
	again := f.importStatement(t)
	if len(again.Imported) != 0 || again.Duplicates != 2 {
		t.Fatalf("re-import: imported=%d duplicates=%d", len(again.Imported), again.Duplicates)
	}

	logs, err := f.auditRepo.GetByResourceID(ctx, "import_batch", result.BatchID)
	if err != nil || len(logs) != 1 {
		t.Fatalf("audit logs = %d (err %v), want 1", len(logs), err)
	}

	batchID, removed, err := f.importUC.UndoLastImport(ctx, "acc-1", "tester")
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if batchID != result.BatchID || removed != 2 {
		t.Fatalf("undo removed %d from %s, want 2 from %s", removed, batchID, result.BatchID)
	}

	transactions, err := f.transactionRepo.AllByAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("transactions after undo = %d, want 0", len(transactions))
	}

	if _, _, err := f.importUC.UndoLastImport(ctx, "acc-1", "tester"); !errors.Is(err, domain.ErrImportBatchNotFound) {
		t.Fatalf("expected ErrImportBatchNotFound, got %v", err)
	}
}

func TestMatchAndReconcileFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	graph := f.db.SeedContractGraph(ctx, decimal.RequireFromString("950.00"), "2024-03", "2024-04")
	result := f.importStatement(t)
	txnID := result.Imported[0].ID

	candidates, err := f.matchUC.MatchTransaction(ctx, txnID)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(candidates) == 0 || candidates[0].Contract.ID != graph.ContractID {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}

	proposal, err := f.reconcileUC.ProposeAllocations(ctx, txnID, graph.ContractID, "")
	if err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if len(proposal.Allocations) != 1 || !proposal.Allocations[0].Amount.Equal(decimal.RequireFromString("950.00")) {
		t.Fatalf("unexpected proposal: %+v", proposal.Allocations)
	}
	if proposal.Allocations[0].FinancialItemID != graph.ItemIDs[0] {
		t.Fatalf("proposal targets %s, want oldest month %s", proposal.Allocations[0].FinancialItemID, graph.ItemIDs[0])
	}

	reconciled, err := f.reconcileUC.Reconcile(ctx, usecase.ReconcileInput{
		TransactionID: txnID,
		Category:      domain.CategoryRentIncome,
		ContractID:    graph.ContractID,
		Allocations:   proposal.Allocations,
		ActorID:       "tester",
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !reconciled.Matched || reconciled.ContractID != graph.ContractID {
		t.Fatalf("unexpected reconciled transaction: %+v", reconciled)
	}

	item, err := f.itemRepo.GetByID(ctx, graph.ItemIDs[0])
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item.Status != domain.FinancialItemStatusPaid || !item.OpenAmount().IsZero() {
		t.Fatalf("item not settled: status=%s open=%s", item.Status, item.OpenAmount())
	}

	// A second commit must conflict.
	_, err = f.reconcileUC.Reconcile(ctx, usecase.ReconcileInput{
		TransactionID: txnID,
		Category:      domain.CategoryRentIncome,
		ContractID:    graph.ContractID,
		Allocations:   proposal.Allocations,
		ActorID:       "tester",
	})
	if !errors.Is(err, domain.ErrTransactionMatched) {
		t.Fatalf("expected ErrTransactionMatched, got %v", err)
	}
}

func TestReconcileRollbackLeavesItemsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	graph := f.db.SeedContractGraph(ctx, decimal.RequireFromString("950.00"), "2024-03")
	result := f.importStatement(t)
	txnID := result.Imported[0].ID

	// Over-allocation fails validation inside the transaction.
	_, err := f.reconcileUC.Reconcile(ctx, usecase.ReconcileInput{
		TransactionID: txnID,
		Category:      domain.CategoryRentIncome,
		ContractID:    graph.ContractID,
		Allocations: []domain.Allocation{{
			FinancialItemID: graph.ItemIDs[0],
			Amount:          decimal.RequireFromString("1000.00"),
		}},
		ActorID: "tester",
	})
	if err == nil {
		t.Fatal("expected over-allocation to fail")
	}

	item, err := f.itemRepo.GetByID(ctx, graph.ItemIDs[0])
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item.Status != domain.FinancialItemStatusPending || !item.Amount.IsZero() {
		t.Fatalf("item modified by failed reconcile: %+v", item)
	}

	transaction, err := f.transactionRepo.GetByID(ctx, txnID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if transaction.ReconciledAt != nil {
		t.Fatal("transaction reconciled despite rollback")
	}
}

func TestOutboxRelayLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.importStatement(t)

	events, err := f.outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("get unpublished failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != domain.EventTypeTransactionsImported {
		t.Fatalf("unexpected events: %+v", events)
	}

	if err := f.outboxRepo.MarkPublished(ctx, events[0].ID, time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}

	events, err = f.outboxRepo.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("get unpublished failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("unpublished after mark = %d, want 0", len(events))
	}
}
