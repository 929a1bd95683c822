package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"neela-data/internal/service"
)

// PortalHandler 住户 / 申请人自助端接口；调用者由 X-Resident-Id 标识
type PortalHandler struct {
	portal *service.PortalService
	logger *zap.Logger
}

func NewPortalHandler(portal *service.PortalService, logger *zap.Logger) *PortalHandler {
	return &PortalHandler{portal: portal, logger: logger}
}

func callerID(r *http.Request) string {
	return r.Header.Get(ResidentHeader)
}

func (h *PortalHandler) Listings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.portal.ListListings()))
}

func (h *PortalHandler) Listing(w http.ResponseWriter, r *http.Request) {
	l, err := h.portal.GetListing(r.PathValue("id"))
	respond(w, h.logger, r, l, err)
}

func (h *PortalHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req service.ApplicationRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	receipt, err := h.portal.SubmitApplication(req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(receipt))
}

func (h *PortalHandler) ApplicationStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.portal.ApplicationStatus(callerID(r))
	respond(w, h.logger, r, v, err)
}

func (h *PortalHandler) Overview(w http.ResponseWriter, r *http.Request) {
	v, err := h.portal.Overview(callerID(r))
	respond(w, h.logger, r, v, err)
}

func (h *PortalHandler) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	var req service.PortalTicketRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	m, err := h.portal.SubmitTicket(r.Context(), callerID(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(m))
}

func (h *PortalHandler) AnalyzeIssue(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	s, err := h.portal.AnalyzeIssue(r.Context(), body.Description)
	respond(w, h.logger, r, s, err)
}

func (h *PortalHandler) InstantPayment(w http.ResponseWriter, r *http.Request) {
	var req service.InstantPaymentRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	intent, err := h.portal.StartInstantPayment(callerID(r), req)
	respond(w, h.logger, r, intent, err)
}

func (h *PortalHandler) ManualPayment(w http.ResponseWriter, r *http.Request) {
	var req service.ManualPaymentRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	claim, err := h.portal.ReportManualPayment(r.Context(), callerID(r), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(claim))
}
