package http

import (
	"net/http"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/cmlabs-hris/contractor-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SubcontractorHandler interface {
	GetSettlement(w http.ResponseWriter, r *http.Request)
	VerifyCompletion(w http.ResponseWriter, r *http.Request)
	ReleaseHoldback(w http.ResponseWriter, r *http.Request)
	ProcessPayment(w http.ResponseWriter, r *http.Request)
}

type subcontractorHandlerImpl struct {
	settlementService subcontractor.SettlementService
}

func NewSubcontractorHandler(settlementService subcontractor.SettlementService) SubcontractorHandler {
	return &subcontractorHandlerImpl{settlementService: settlementService}
}

func (h *subcontractorHandlerImpl) GetSettlement(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	result, err := h.settlementService.GetSettlement(r.Context(), principal.BusinessID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *subcontractorHandlerImpl) VerifyCompletion(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	result, err := h.settlementService.VerifyCompletion(r.Context(), principal.BusinessID, chi.URLParam(r, "id"), principal.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Completion verified", result)
}

// ReleaseHoldback handles POST /subcontractors/assignments/{id}/release-holdback.
// The assignment must already be verified, otherwise it replies 409 with
// "Completion must be verified first". It does not depend on payment.
func (h *subcontractorHandlerImpl) ReleaseHoldback(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	result, err := h.settlementService.ReleaseHoldback(r.Context(), principal.BusinessID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holdback released", result)
}

// ProcessPayment handles POST /subcontractors/assignments/{id}/process-payment.
// Requires verification but not a released holdback.
func (h *subcontractorHandlerImpl) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrFail(w, r)
	if !ok {
		return
	}

	result, err := h.settlementService.ProcessPayment(r.Context(), principal.BusinessID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payment processed", result)
}
