package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mietwerk/rentledger/internal/adapter/http/dto"
	"github.com/mietwerk/rentledger/internal/adapter/http/middleware"
	"github.com/mietwerk/rentledger/internal/usecase"
)

// ImportHandler handles statement import HTTP requests.
type ImportHandler struct {
	importUC *usecase.ImportUseCase
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importUC *usecase.ImportUseCase) *ImportHandler {
	return &ImportHandler{importUC: importUC}
}

// Preview dry-runs an import: parsing, mapping and duplicate detection
// without persisting anything.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	preview, err := h.importUC.Preview(r.Context(), req.ToUseCaseInput(middleware.ActorID(r.Context())))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to preview import", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.ImportPreviewFromUseCase(preview))
}

// Create commits an import batch.
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.importUC.Import(r.Context(), req.ToUseCaseInput(middleware.ActorID(r.Context())))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to import statement", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportResultFromUseCase(result))
}

// Undo removes the account's most recent import batch.
func (h *ImportHandler) Undo(w http.ResponseWriter, r *http.Request) {
	var req dto.UndoImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	batchID, removed, err := h.importUC.UndoLastImport(r.Context(), req.AccountID, middleware.ActorID(r.Context()))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to undo import", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.UndoImportResponse{
		BatchID: batchID,
		Removed: removed,
	})
}
