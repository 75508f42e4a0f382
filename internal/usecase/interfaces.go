package usecase

import (
	"context"
	"time"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/ingest"
)

// TransactionRepository defines data access for bank transactions.
type TransactionRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, transactions []*domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	AllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	LatestBatchID(ctx context.Context, accountID string) (string, error)
	DeleteBatch(ctx context.Context, tx Transaction, accountID, batchID string) (int64, error)
	MarkReconciled(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
}

// ContractRepository defines data access for lease contracts and the
// entities hanging off them.
type ContractRepository interface {
	GetByID(ctx context.Context, id string) (*domain.LeaseContract, error)
	ListActive(ctx context.Context) ([]*domain.LeaseContract, error)
	GetTenant(ctx context.Context, id string) (*domain.Tenant, error)
	GetUnit(ctx context.Context, id string) (*domain.Unit, error)
	GetBuilding(ctx context.Context, id string) (*domain.Building, error)
}

// FinancialItemRepository defines data access for expected payments.
type FinancialItemRepository interface {
	GetByID(ctx context.Context, id string) (*domain.FinancialItem, error)
	ListOpenByContract(ctx context.Context, contractID, category string) ([]*domain.FinancialItem, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.FinancialItem, error)
	Update(ctx context.Context, tx Transaction, item *domain.FinancialItem) error
}

// MappingStore persists the per-account column mapping remembered from the
// last successful import.
type MappingStore interface {
	Get(ctx context.Context, accountID string) (*ingest.ColumnMapping, error)
	Save(ctx context.Context, accountID string, mapping *ingest.ColumnMapping) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// TxRetrier retries a transactional operation on transient storage failures
// such as deadlocks and serialization conflicts.
type TxRetrier interface {
	Retry(ctx context.Context, op func() error) error
}

// retryTx runs op through the retrier when one is configured. The operation
// must be safe to re-run from the top; it owns its own Begin and Commit.
func retryTx(ctx context.Context, retrier TxRetrier, op func() error) error {
	if retrier == nil {
		return op()
	}

	return retrier.Retry(ctx, op)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
