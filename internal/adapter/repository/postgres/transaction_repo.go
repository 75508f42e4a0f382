package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/usecase"
)

const transactionColumns = `
	id, account_id, import_batch_id, booking_date, value_date, amount,
	description, sender_receiver, iban, reference,
	category, contract_id, unit_id, matched, reconciled_at, created_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db querier
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepositoryWithDB(pool)
}

func newTransactionRepositoryWithDB(db querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// CreateBatch inserts all transactions of one import batch within a
// transaction.
func (r *TransactionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO transactions (
			id, account_id, import_batch_id, booking_date, value_date, amount,
			description, sender_receiver, iban, reference,
			category, contract_id, unit_id, matched, reconciled_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	batch := &pgx.Batch{}
	for _, t := range transactions {
		batch.Queue(query,
			t.ID,
			t.AccountID,
			t.ImportBatchID,
			timeToPgTimestamptz(t.BookingDate),
			timePtrToPgTimestamptz(t.ValueDate),
			decimalToNumeric(t.Amount),
			t.Description,
			t.SenderReceiver,
			t.IBAN,
			t.Reference,
			t.Category,
			t.ContractID,
			t.UnitID,
			t.Matched,
			timePtrToPgTimestamptz(t.ReconciledAt),
			timeToPgTimestamptz(t.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range transactions {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return scanTransaction(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a transaction with a row lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	return scanTransaction(pgxTx.QueryRow(ctx, query, id))
}

// ListByAccount lists transactions for an account, newest booking first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY booking_date DESC, created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// AllByAccount retrieves every transaction of an account, oldest first. Used
// to seed the duplicate detector before an import.
func (r *TransactionRepository) AllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY booking_date ASC, created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// LatestBatchID returns the batch ID of the most recent import for an
// account.
func (r *TransactionRepository) LatestBatchID(ctx context.Context, accountID string) (string, error) {
	query := `
		SELECT import_batch_id
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, import_batch_id DESC
		LIMIT 1
	`

	var batchID string
	if err := r.db.QueryRow(ctx, query, accountID).Scan(&batchID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrImportBatchNotFound
		}

		return "", err
	}

	return batchID, nil
}

// DeleteBatch removes all transactions of an import batch and returns the
// number of removed rows.
func (r *TransactionRepository) DeleteBatch(ctx context.Context, tx usecase.Transaction, accountID, batchID string) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `DELETE FROM transactions WHERE account_id = $1 AND import_batch_id = $2`

	tag, err := pgxTx.Exec(ctx, query, accountID, batchID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// MarkReconciled persists the categorization fields of a reconciled
// transaction.
func (r *TransactionRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE transactions
		SET category = $2, contract_id = $3, unit_id = $4, matched = $5, reconciled_at = $6
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		transaction.ID,
		transaction.Category,
		transaction.ContractID,
		transaction.UnitID,
		transaction.Matched,
		timePtrToPgTimestamptz(transaction.ReconciledAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t            domain.Transaction
		bookingDate  pgtype.Timestamptz
		valueDate    pgtype.Timestamptz
		amount       pgtype.Numeric
		reconciledAt pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.ImportBatchID,
		&bookingDate,
		&valueDate,
		&amount,
		&t.Description,
		&t.SenderReceiver,
		&t.IBAN,
		&t.Reference,
		&t.Category,
		&t.ContractID,
		&t.UnitID,
		&t.Matched,
		&reconciledAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	t.BookingDate = bookingDate.Time
	t.ValueDate = pgTimestamptzToTimePtr(valueDate)
	t.Amount = numericToDecimal(amount)
	t.ReconciledAt = pgTimestamptzToTimePtr(reconciledAt)
	t.CreatedAt = createdAt.Time

	return &t, nil
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	transactions := []*domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
