package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ActiveContractsCacheTTL bounds how stale the cached active-contract set
	// used for match suggestions may become.
	ActiveContractsCacheTTL = 5 * time.Minute

	// ActiveContractsCacheKey is the cache key for the active-contract set.
	ActiveContractsCacheKey = "contracts:active"
)
