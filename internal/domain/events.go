package domain

import "time"

// Event types
const (
	EventTypeTransactionsImported  = "transactions.imported"
	EventTypeImportUndone          = "import.undone"
	EventTypeTransactionReconciled = "transaction.reconciled"
	EventTypeFinancialItemSettled  = "financial_item.settled"
)

// Aggregate types
const (
	AggregateTypeAccount       = "account"
	AggregateTypeImportBatch   = "import_batch"
	AggregateTypeTransaction   = "transaction"
	AggregateTypeFinancialItem = "financial_item"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionsImportedEvent payload
type TransactionsImportedEvent struct {
	AccountID     string `json:"account_id"`
	ImportBatchID string `json:"import_batch_id"`
	Imported      int    `json:"imported"`
	Skipped       int    `json:"skipped"`
	FileName      string `json:"file_name"`
}

// ImportUndoneEvent payload
type ImportUndoneEvent struct {
	AccountID     string `json:"account_id"`
	ImportBatchID string `json:"import_batch_id"`
	Removed       int64  `json:"removed"`
}

// TransactionReconciledEvent payload
type TransactionReconciledEvent struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	ContractID    string `json:"contract_id,omitempty"`
	UnitID        string `json:"unit_id,omitempty"`
	Allocated     string `json:"allocated,omitempty"`
}

// FinancialItemSettledEvent payload
type FinancialItemSettledEvent struct {
	FinancialItemID string `json:"financial_item_id"`
	ContractID      string `json:"contract_id"`
	PaymentMonth    string `json:"payment_month"`
	Status          string `json:"status"`
	OpenAmount      string `json:"open_amount"`
}
