package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/export"
	"github.com/roofscope/roofscope/internal/pricing"
	"github.com/roofscope/roofscope/internal/repository"
)

// EstimateHandler exposes estimate calculation, lifecycle, and export.
type EstimateHandler struct {
	calculator *pricing.Calculator
	estimates  repository.EstimateRepository
	exporter   *export.Service
	logger     *slog.Logger
}

func NewEstimateHandler(calculator *pricing.Calculator, estimates repository.EstimateRepository, exporter *export.Service, logger *slog.Logger) *EstimateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimateHandler{calculator: calculator, estimates: estimates, exporter: exporter, logger: logger}
}

type calculateRequest struct {
	JobID             *uuid.UUID                 `json:"job_id,omitempty"`
	LineItems         []entity.InsuranceLineItem `json:"line_items"`
	PreferredSupplier string                     `json:"preferred_supplier,omitempty"`
	LaborMarkup       *float64                   `json:"labor_markup,omitempty"`
	MaterialMarkup    *float64                   `json:"material_markup,omitempty"`
	Overhead          *float64                   `json:"overhead,omitempty"`
	// Persist saves the result as a draft estimate and returns its id.
	Persist bool `json:"persist,omitempty"`
}

type calculateResponse struct {
	EstimateID *uuid.UUID            `json:"estimate_id,omitempty"`
	Result     entity.EstimateResult `json:"result"`
}

// Calculate prices the submitted line items against the catalog.
func (h *EstimateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if len(req.LineItems) == 0 {
		writeBadRequest(w, "line_items must not be empty")
		return
	}

	result, err := h.calculator.CalculateEstimate(r.Context(), req.LineItems, orgID, pricing.Options{
		PreferredSupplier: req.PreferredSupplier,
		LaborMarkup:       req.LaborMarkup,
		MaterialMarkup:    req.MaterialMarkup,
		Overhead:          req.Overhead,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := calculateResponse{Result: result}
	if req.Persist {
		est := &entity.Estimate{
			OrganizationID: orgID,
			JobID:          req.JobID,
			Result:         result,
		}
		if err := h.estimates.Create(r.Context(), est); err != nil {
			writeError(w, h.logger, err)
			return
		}
		resp.EstimateID = &est.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a persisted estimate.
func (h *EstimateHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	estimateID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "estimate id must be a UUID")
		return
	}

	est, err := h.estimates.GetByID(r.Context(), orgID, estimateID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

type statusRequest struct {
	Status constants.EstimateStatus `json:"status"`
}

// UpdateStatus moves an estimate along its lifecycle.
func (h *EstimateHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	estimateID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "estimate id must be a UUID")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.estimates.UpdateStatus(r.Context(), orgID, estimateID, req.Status); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// Export streams the estimate workbook.
func (h *EstimateHandler) Export(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	estimateID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "estimate id must be a UUID")
		return
	}

	data, err := h.exporter.ExportEstimateXLSX(r.Context(), orgID, estimateID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="estimate-%s.xlsx"`, estimateID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
