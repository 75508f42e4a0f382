package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mietwerk/rentledger/internal/adapter/http/dto"
	"github.com/mietwerk/rentledger/internal/adapter/http/middleware"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC *usecase.TransactionUseCase
	matchUC       *usecase.MatchUseCase
	reconcileUC   *usecase.ReconcileUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	transactionUC *usecase.TransactionUseCase,
	matchUC *usecase.MatchUseCase,
	reconcileUC *usecase.ReconcileUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		matchUC:       matchUC,
		reconcileUC:   reconcileUC,
	}
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	transaction, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// ListByAccount lists transactions for an account.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)

	transactions, err := h.transactionUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions))
}

// Matches returns ranked contract suggestions for a transaction.
func (h *TransactionHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	candidates, err := h.matchUC.MatchTransaction(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to match transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.MatchCandidatesFromDomain(candidates))
}

// ConfirmMatch assigns a contract to a transaction.
func (h *TransactionHandler) ConfirmMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ConfirmMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.ContractID == "" {
		writeError(w, http.StatusBadRequest, "missing contract ID", "")
		return
	}

	transaction, err := h.matchUC.ConfirmMatch(r.Context(), id, req.ContractID, middleware.ActorID(r.Context()))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to confirm match", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// ProposeAllocations suggests an allocation plan for a transaction.
func (h *TransactionHandler) ProposeAllocations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ProposeAllocationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.ContractID == "" {
		writeError(w, http.StatusBadRequest, "missing contract ID", "")
		return
	}

	proposal, err := h.reconcileUC.ProposeAllocations(r.Context(), id, req.ContractID, req.Category)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to propose allocations", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AllocationProposalFromUseCase(proposal))
}

// Reconcile categorizes a transaction and commits its allocations.
func (h *TransactionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transaction, err := h.reconcileUC.Reconcile(r.Context(), req.ToUseCaseInput(id, middleware.ActorID(r.Context())))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to reconcile transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}
