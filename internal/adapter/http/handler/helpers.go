package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mietwerk/rentledger/internal/adapter/http/dto"
	"github.com/mietwerk/rentledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrImportBatchNotFound),
		errors.Is(err, domain.ErrContractNotFound),
		errors.Is(err, domain.ErrTenantNotFound),
		errors.Is(err, domain.ErrUnitNotFound),
		errors.Is(err, domain.ErrBuildingNotFound),
		errors.Is(err, domain.ErrFinancialItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionMatched):
		return http.StatusConflict
	case errors.Is(err, domain.ErrContractNotActive),
		errors.Is(err, domain.ErrForeignFinancialItem),
		errors.Is(err, domain.ErrInvalidAllocationAmount),
		errors.Is(err, domain.ErrAllocationExceedsOpenAmount),
		errors.Is(err, domain.ErrOverAllocation),
		errors.Is(err, domain.ErrNoAllocations),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidPaymentMonth),
		errors.Is(err, domain.ErrEmptyStatement):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStatementTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
