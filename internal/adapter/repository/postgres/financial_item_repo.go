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

const financialItemColumns = `
	id, contract_id, category, payment_month, status,
	expected_amount, amount, created_at, updated_at`

// FinancialItemRepository implements usecase.FinancialItemRepository.
type FinancialItemRepository struct {
	db querier
}

// NewFinancialItemRepository creates a new FinancialItemRepository.
func NewFinancialItemRepository(pool *pgxpool.Pool) *FinancialItemRepository {
	return newFinancialItemRepositoryWithDB(pool)
}

func newFinancialItemRepositoryWithDB(db querier) *FinancialItemRepository {
	return &FinancialItemRepository{db: db}
}

// GetByID retrieves a financial item by ID.
func (r *FinancialItemRepository) GetByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	query := `SELECT ` + financialItemColumns + ` FROM financial_items WHERE id = $1`

	return scanFinancialItem(r.db.QueryRow(ctx, query, id))
}

// ListOpenByContract lists a contract's unsettled items, oldest payment month
// first. An empty category matches all categories.
func (r *FinancialItemRepository) ListOpenByContract(ctx context.Context, contractID, category string) ([]*domain.FinancialItem, error) {
	query := `
		SELECT ` + financialItemColumns + `
		FROM financial_items
		WHERE contract_id = $1
		  AND status <> $2
		  AND expected_amount > amount
	`
	args := []any{contractID, string(domain.FinancialItemStatusPaid)}

	if category != "" {
		query += ` AND category = $3`
		args = append(args, category)
	}

	query += ` ORDER BY payment_month ASC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFinancialItems(rows)
}

// GetByIDsForUpdate locks and retrieves the given items. Rows are locked in
// ID order to keep concurrent reconciles deadlock free.
func (r *FinancialItemRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.FinancialItem, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + financialItemColumns + `
		FROM financial_items
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFinancialItems(rows)
}

// Update persists the settlement fields of an item.
func (r *FinancialItemRepository) Update(ctx context.Context, tx usecase.Transaction, item *domain.FinancialItem) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE financial_items
		SET amount = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		item.ID,
		decimalToNumeric(item.Amount),
		string(item.Status),
		timeToPgTimestamptz(item.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrFinancialItemNotFound
	}

	return nil
}

func scanFinancialItem(row pgx.Row) (*domain.FinancialItem, error) {
	var (
		f              domain.FinancialItem
		status         string
		expectedAmount pgtype.Numeric
		amount         pgtype.Numeric
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&f.ID,
		&f.ContractID,
		&f.Category,
		&f.PaymentMonth,
		&status,
		&expectedAmount,
		&amount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFinancialItemNotFound
		}

		return nil, err
	}

	f.Status = domain.FinancialItemStatus(status)
	f.ExpectedAmount = numericToDecimal(expectedAmount)
	f.Amount = numericToDecimal(amount)
	f.CreatedAt = createdAt.Time
	f.UpdatedAt = updatedAt.Time

	return &f, nil
}

func scanFinancialItems(rows pgx.Rows) ([]*domain.FinancialItem, error) {
	items := []*domain.FinancialItem{}
	for rows.Next() {
		f, err := scanFinancialItem(rows)
		if err != nil {
			return nil, err
		}

		items = append(items, f)
	}

	return items, rows.Err()
}
