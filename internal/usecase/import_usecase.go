package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mietwerk/rentledger/internal/dedup"
	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/infrastructure/metrics"
	"github.com/mietwerk/rentledger/internal/ingest"
)

// ImportUseCase handles statement ingestion: parsing, duplicate filtering and
// the atomic persistence of an import batch.
type ImportUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	auditRepo       AuditRepository
	mappingStore    MappingStore
	detector        *dedup.Detector
	idGen           IDGenerator
	retrier         TxRetrier
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewImportUseCase creates a new ImportUseCase.
func NewImportUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	mappingStore MappingStore,
	detector *dedup.Detector,
	idGen IDGenerator,
	retrier TxRetrier,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *ImportUseCase {
	return &ImportUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		auditRepo:       auditRepo,
		mappingStore:    mappingStore,
		detector:        detector,
		idGen:           idGen,
		retrier:         retrier,
		logger:          logger,
		metrics:         m,
	}
}

// ImportInput represents input for previewing or committing an import.
type ImportInput struct {
	AccountID string
	Content   string
	FileName  string
	// ForceSkip marks candidates the user decided to drop regardless of
	// fingerprint matching.
	ForceSkip []dedup.SkipKey
	ActorID   string
}

// ImportPreview is the dry-run result: what would be imported and why the
// rest would not.
type ImportPreview struct {
	Mapping     *ingest.ColumnMapping
	MappingFrom ingest.MappingSource
	Delimiter   string
	New         []*domain.Transaction
	SkippedRows []ingest.SkippedRow
	Duplicates  int
	Suggestions []dedup.Suggestion
}

// ImportResult describes a committed import batch.
type ImportResult struct {
	BatchID     string
	Imported    []*domain.Transaction
	SkippedRows []ingest.SkippedRow
	Duplicates  int
	Suggestions []dedup.Suggestion
}

// Preview parses and deduplicates a statement without writing anything.
func (uc *ImportUseCase) Preview(ctx context.Context, input ImportInput) (*ImportPreview, error) {
	parsed, filtered, err := uc.parseAndFilter(ctx, input)
	if err != nil {
		return nil, err
	}

	return &ImportPreview{
		Mapping:     &parsed.Mapping,
		MappingFrom: parsed.MappingFrom,
		Delimiter:   string(parsed.Delimiter),
		New:         filtered.New,
		SkippedRows: parsed.Skipped,
		Duplicates:  filtered.Skipped,
		Suggestions: filtered.Suggestions,
	}, nil
}

// Import parses, deduplicates and persists a statement as one batch. The
// batch insert, outbox event and audit entry share a single database
// transaction; the remembered column mapping is saved best-effort afterwards.
func (uc *ImportUseCase) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	start := time.Now()

	parsed, filtered, err := uc.parseAndFilter(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Imported:    filtered.New,
		SkippedRows: parsed.Skipped,
		Duplicates:  filtered.Skipped,
		Suggestions: filtered.Suggestions,
	}

	if len(filtered.New) == 0 {
		return result, nil
	}

	now := time.Now().UTC()
	batchID := uc.idGen.Generate()
	result.BatchID = batchID

	for _, t := range filtered.New {
		t.ID = uc.idGen.Generate()
		t.ImportBatchID = batchID
		t.CreatedAt = now
	}

	commit := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.transactionRepo.CreateBatch(ctx, tx, filtered.New); err != nil {
			return err
		}

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateType: domain.AggregateTypeImportBatch,
			AggregateID:   batchID,
			EventType:     domain.EventTypeTransactionsImported,
			Payload: domain.MarshalState(domain.TransactionsImportedEvent{
				AccountID:     input.AccountID,
				ImportBatchID: batchID,
				Imported:      len(filtered.New),
				Skipped:       filtered.Skipped,
				FileName:      input.FileName,
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		audit := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       input.ActorID,
			Action:       string(domain.AuditActionImportCreate),
			ResourceType: domain.AggregateTypeImportBatch,
			ResourceID:   batchID,
			Status:       string(domain.AuditStatusSuccess),
			AfterState: domain.MarshalState(map[string]any{
				"account_id": input.AccountID,
				"imported":   len(filtered.New),
				"duplicates": filtered.Skipped,
				"skipped":    len(parsed.Skipped),
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
		uc.metrics.ImportsCreated.Inc()
		uc.metrics.TransactionsImported.Add(float64(len(filtered.New)))
		uc.metrics.DuplicatesSkipped.Add(float64(filtered.Skipped))
		uc.metrics.ImportDuration.Observe(time.Since(start).Seconds())
	}

	if parsed.Mapping.HasRequired() {
		if err := uc.mappingStore.Save(ctx, input.AccountID, &parsed.Mapping); err != nil {
			uc.logger.Warn().Err(err).Str("account_id", input.AccountID).
				Msg("failed to remember column mapping")
		}
	}

	return result, nil
}

// UndoLastImport deletes the most recent import batch of the account.
func (uc *ImportUseCase) UndoLastImport(ctx context.Context, accountID, actorID string) (string, int64, error) {
	batchID, err := uc.transactionRepo.LatestBatchID(ctx, accountID)
	if err != nil {
		return "", 0, err
	}

	var deleted int64

	commit := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		deleted, err = uc.transactionRepo.DeleteBatch(ctx, tx, accountID, batchID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateType: domain.AggregateTypeImportBatch,
			AggregateID:   batchID,
			EventType:     domain.EventTypeImportUndone,
			Payload: domain.MarshalState(domain.ImportUndoneEvent{
				AccountID:     accountID,
				ImportBatchID: batchID,
				Removed:       deleted,
			}),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		audit := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       actorID,
			Action:       string(domain.AuditActionImportUndo),
			ResourceType: domain.AggregateTypeImportBatch,
			ResourceID:   batchID,
			Status:       string(domain.AuditStatusSuccess),
			AfterState: domain.MarshalState(map[string]any{
				"account_id": accountID,
				"deleted":    deleted,
			}),
			CreatedAt: now,
		}
		if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if err := retryTx(ctx, uc.retrier, commit); err != nil {
		return "", 0, err
	}

	if uc.metrics != nil {
		uc.metrics.ImportsUndone.Inc()
	}

	return batchID, deleted, nil
}

func (uc *ImportUseCase) parseAndFilter(ctx context.Context, input ImportInput) (*ingest.Result, *dedup.Result, error) {
	// A stale or missing remembered mapping falls back to auto-detection
	// inside the parser, so a store failure is not fatal. No mapping yet is
	// the normal first-import case and not worth a warning.
	remembered, err := uc.mappingStore.Get(ctx, input.AccountID)
	if err != nil {
		if !errors.Is(err, domain.ErrMappingNotFound) {
			uc.logger.Warn().Err(err).Str("account_id", input.AccountID).
				Msg("failed to load remembered column mapping")
		}
		remembered = nil
	}

	parsed, err := ingest.ParseStatement(input.AccountID, input.Content, remembered)
	if err != nil {
		return nil, nil, err
	}

	existing, err := uc.transactionRepo.AllByAccount(ctx, input.AccountID)
	if err != nil {
		return nil, nil, err
	}

	filtered := uc.detector.Filter(ctx, parsed.Transactions, existing, input.ForceSkip)

	return parsed, filtered, nil
}
