package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/ingest"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateBatchFunc      func(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error)
	ListByAccountFunc    func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	AllByAccountFunc     func(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	LatestBatchIDFunc    func(ctx context.Context, accountID string) (string, error)
	DeleteBatchFunc      func(ctx context.Context, tx usecase.Transaction, accountID, batchID string) (int64, error)
	MarkReconciledFunc   func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, transactions []*domain.Transaction) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, transactions)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range transactions {
		m.transactions[t.ID] = t
	}
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	all, _ := m.AllByAccount(ctx, accountID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MockTransactionRepository) AllByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	if m.AllByAccountFunc != nil {
		return m.AllByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockTransactionRepository) LatestBatchID(ctx context.Context, accountID string) (string, error) {
	if m.LatestBatchIDFunc != nil {
		return m.LatestBatchIDFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := ""
	for _, t := range m.transactions {
		if t.AccountID == accountID && t.ImportBatchID > latest {
			latest = t.ImportBatchID
		}
	}
	if latest == "" {
		return "", domain.ErrImportBatchNotFound
	}
	return latest, nil
}

func (m *MockTransactionRepository) DeleteBatch(ctx context.Context, tx usecase.Transaction, accountID, batchID string) (int64, error) {
	if m.DeleteBatchFunc != nil {
		return m.DeleteBatchFunc(ctx, tx, accountID, batchID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, t := range m.transactions {
		if t.AccountID == accountID && t.ImportBatchID == batchID {
			delete(m.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockTransactionRepository) MarkReconciled(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.MarkReconciledFunc != nil {
		return m.MarkReconciledFunc(ctx, tx, transaction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[transaction.ID] = transaction
	return nil
}

// MockContractRepository is a mock implementation of ContractRepository.
type MockContractRepository struct {
	mu        sync.RWMutex
	contracts map[string]*domain.LeaseContract
	tenants   map[string]*domain.Tenant
	units     map[string]*domain.Unit
	buildings map[string]*domain.Building

	GetByIDFunc     func(ctx context.Context, id string) (*domain.LeaseContract, error)
	ListActiveFunc  func(ctx context.Context) ([]*domain.LeaseContract, error)
	GetTenantFunc   func(ctx context.Context, id string) (*domain.Tenant, error)
	GetUnitFunc     func(ctx context.Context, id string) (*domain.Unit, error)
	GetBuildingFunc func(ctx context.Context, id string) (*domain.Building, error)
}

func NewMockContractRepository() *MockContractRepository {
	return &MockContractRepository{
		contracts: make(map[string]*domain.LeaseContract),
		tenants:   make(map[string]*domain.Tenant),
		units:     make(map[string]*domain.Unit),
		buildings: make(map[string]*domain.Building),
	}
}

func (m *MockContractRepository) AddContract(c *domain.LeaseContract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
}

func (m *MockContractRepository) AddTenant(t *domain.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

func (m *MockContractRepository) AddUnit(u *domain.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[u.ID] = u
}

func (m *MockContractRepository) AddBuilding(b *domain.Building) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildings[b.ID] = b
}

func (m *MockContractRepository) GetByID(ctx context.Context, id string) (*domain.LeaseContract, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.contracts[id]; ok {
		return c, nil
	}
	return nil, domain.ErrContractNotFound
}

func (m *MockContractRepository) ListActive(ctx context.Context) ([]*domain.LeaseContract, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LeaseContract
	for _, c := range m.contracts {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockContractRepository) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	if m.GetTenantFunc != nil {
		return m.GetTenantFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tenants[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTenantNotFound
}

func (m *MockContractRepository) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	if m.GetUnitFunc != nil {
		return m.GetUnitFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.units[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUnitNotFound
}

func (m *MockContractRepository) GetBuilding(ctx context.Context, id string) (*domain.Building, error) {
	if m.GetBuildingFunc != nil {
		return m.GetBuildingFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.buildings[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBuildingNotFound
}

// MockFinancialItemRepository is a mock implementation of FinancialItemRepository.
type MockFinancialItemRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.FinancialItem

	GetByIDFunc            func(ctx context.Context, id string) (*domain.FinancialItem, error)
	ListOpenByContractFunc func(ctx context.Context, contractID, category string) ([]*domain.FinancialItem, error)
	GetByIDsForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.FinancialItem, error)
	UpdateFunc             func(ctx context.Context, tx usecase.Transaction, item *domain.FinancialItem) error
}

func NewMockFinancialItemRepository() *MockFinancialItemRepository {
	return &MockFinancialItemRepository{
		items: make(map[string]*domain.FinancialItem),
	}
}

func (m *MockFinancialItemRepository) AddItem(item *domain.FinancialItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
}

func (m *MockFinancialItemRepository) GetByID(ctx context.Context, id string) (*domain.FinancialItem, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, domain.ErrFinancialItemNotFound
}

func (m *MockFinancialItemRepository) ListOpenByContract(ctx context.Context, contractID, category string) ([]*domain.FinancialItem, error) {
	if m.ListOpenByContractFunc != nil {
		return m.ListOpenByContractFunc(ctx, contractID, category)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.FinancialItem
	for _, item := range m.items {
		if item.ContractID != contractID || !item.IsOpen() {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentMonth < out[j].PaymentMonth })
	return out, nil
}

func (m *MockFinancialItemRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.FinancialItem, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.FinancialItem
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MockFinancialItemRepository) Update(ctx context.Context, tx usecase.Transaction, item *domain.FinancialItem) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

// MockMappingStore is a mock implementation of MappingStore.
type MockMappingStore struct {
	mu       sync.RWMutex
	mappings map[string]*ingest.ColumnMapping

	GetFunc  func(ctx context.Context, accountID string) (*ingest.ColumnMapping, error)
	SaveFunc func(ctx context.Context, accountID string, mapping *ingest.ColumnMapping) error
}

func NewMockMappingStore() *MockMappingStore {
	return &MockMappingStore{
		mappings: make(map[string]*ingest.ColumnMapping),
	}
}

func (m *MockMappingStore) Get(ctx context.Context, accountID string) (*ingest.ColumnMapping, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.mappings[accountID]
	if !ok {
		return nil, domain.ErrMappingNotFound
	}
	return mapping, nil
}

func (m *MockMappingStore) Save(ctx context.Context, accountID string, mapping *ingest.ColumnMapping) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, accountID, mapping)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[accountID] = mapping
	return nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	return m.Logs(), nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockTransaction is a mock database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	LastTx *MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.LastTx = &MockTransaction{}
	return m.LastTx, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + string(rune('0'+m.counter%10)) + "-" + time.Now().Format("150405.000000")
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu    sync.RWMutex
	store map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		store: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu    sync.Mutex
	store map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		store: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.store[key]; ok {
		return true, existing, nil
	}
	m.store[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = response
	return nil
}
