package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mietwerk/rentledger/internal/adapter/http/dto"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// ContractHandler handles contract-related HTTP requests.
type ContractHandler struct {
	contractUC *usecase.ContractUseCase
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contractUC *usecase.ContractUseCase) *ContractHandler {
	return &ContractHandler{contractUC: contractUC}
}

// List lists active contracts.
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.contractUC.ListActiveContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contracts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ContractsFromDomain(contracts))
}

// Get retrieves a contract with its tenant, unit and building.
func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing contract ID", "")
		return
	}

	details, err := h.contractUC.GetContract(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get contract", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ContractDetailsFromUseCase(details))
}

// ListFinancialItems lists the contract's open receivables.
func (h *ContractHandler) ListFinancialItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing contract ID", "")
		return
	}

	category := r.URL.Query().Get("category")

	items, err := h.contractUC.ListOpenItems(r.Context(), id, category)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list financial items", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.FinancialItemsFromDomain(items))
}
