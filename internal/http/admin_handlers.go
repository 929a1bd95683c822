package httpapi

import (
	"bytes"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/search"
	"neela-data/internal/service"
)

// AdminHandler 员工端接口
type AdminHandler struct {
	dashboard   *service.DashboardService
	applicants  *service.ApplicantService
	maintenance *service.MaintenanceService
	portal      *service.PortalService
	legal       *service.LegalService
	views       *service.Views
	settings    config.Settings
	logger      *zap.Logger
}

func NewAdminHandler(
	dashboard *service.DashboardService,
	applicants *service.ApplicantService,
	maintenance *service.MaintenanceService,
	portal *service.PortalService,
	legal *service.LegalService,
	views *service.Views,
	settings config.Settings,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		dashboard:   dashboard,
		applicants:  applicants,
		maintenance: maintenance,
		portal:      portal,
		legal:       legal,
		views:       views,
		settings:    settings,
		logger:      logger,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.dashboard.Summary()))
}

func (h *AdminHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := service.ParseView(r.PathValue("name"), r.URL.Query())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	payload, err := h.views.Render(view)
	respond(w, h.logger, r, payload, err)
}

func (h *AdminHandler) Tenants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, Ok(h.applicants.ListTenants(search.TenantQuery{
		Text:   q.Get("q"),
		Status: q.Get("status"),
		Tab:    search.TenantTab(q.Get("tab")),
	})))
}

func (h *AdminHandler) Payments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.dashboard.Payments()))
}

func (h *AdminHandler) PaymentClaims(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.portal.ListClaims()))
}

func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.settings))
}

// SendNotice 生成并发送法律通知；空 body 默认逾期租金通知 + 邮件
func (h *AdminHandler) SendNotice(w http.ResponseWriter, r *http.Request) {
	var req service.NoticeRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	doc, err := h.legal.SendNotice(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(doc))
}

func (h *AdminHandler) LegalDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.legal.Documents()))
}

func (h *AdminHandler) TenantLegalDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.legal.DocumentsFor(r.PathValue("id"))
	respond(w, h.logger, r, docs, err)
}

// ---- applicants ----

func (h *AdminHandler) GetApplicant(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.Get(r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

// applicantAction 无 body 的同步动作
func (h *AdminHandler) applicantAction(fn func(id string) (*service.ApplicantDetail, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := fn(r.PathValue("id"))
		respond(w, h.logger, r, d, err)
	}
}

func (h *AdminHandler) DeclineApplicant(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.Decline(r.Context(), r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

func (h *AdminHandler) RunScreening(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.RunScreening(r.Context(), r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

type generateLeaseBody struct {
	TemplateID string `json:"templateId"`
}

func (h *AdminHandler) GenerateLease(w http.ResponseWriter, r *http.Request) {
	var body generateLeaseBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	d, err := h.applicants.GenerateLease(r.Context(), r.PathValue("id"), body.TemplateID)
	respond(w, h.logger, r, d, err)
}

type editLeaseBody struct {
	Body string `json:"body"`
}

func (h *AdminHandler) EditLease(w http.ResponseWriter, r *http.Request) {
	var body editLeaseBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	d, err := h.applicants.EditLease(r.PathValue("id"), body.Body)
	respond(w, h.logger, r, d, err)
}

func (h *AdminHandler) SendLease(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.SendForSignature(r.Context(), r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

func (h *AdminHandler) SyncLease(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.SyncSignature(r.Context(), r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

func (h *AdminHandler) SignLease(w http.ResponseWriter, r *http.Request) {
	d, err := h.applicants.ConfirmSignature(r.Context(), r.PathValue("id"))
	respond(w, h.logger, r, d, err)
}

type notesBody struct {
	Notes string `json:"notes"`
}

func (h *AdminHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var body notesBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	d, err := h.applicants.UpdateNotes(r.PathValue("id"), body.Notes)
	respond(w, h.logger, r, d, err)
}

func (h *AdminHandler) PendingEnvelopes(w http.ResponseWriter, r *http.Request) {
	envs, err := h.applicants.PendingEnvelopes(r.Context())
	respond(w, h.logger, r, envs, err)
}

// ---- maintenance ----

func ticketQuery(r *http.Request) search.TicketQuery {
	q := r.URL.Query()
	return search.TicketQuery{
		Text:     q.Get("q"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}
}

func (h *AdminHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.maintenance.List(ticketQuery(r))))
}

func (h *AdminHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	m, err := h.maintenance.Get(r.PathValue("id"))
	respond(w, h.logger, r, m, err)
}

func (h *AdminHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTicketRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	m, err := h.maintenance.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(m))
}

type analyzeBody struct {
	Description string `json:"description"`
}

func (h *AdminHandler) AnalyzeTicket(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	s, err := h.maintenance.Analyze(r.Context(), body.Description)
	respond(w, h.logger, r, s, err)
}

// ExportTickets 按当前筛选导出 xlsx
func (h *AdminHandler) ExportTickets(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.maintenance.ExportTickets(ticketQuery(r), &buf); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="maintenance.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type assignBody struct {
	Assignee string `json:"assignee"`
}

func (h *AdminHandler) AssignTicket(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	m, err := h.maintenance.Assign(r.PathValue("id"), body.Assignee)
	respond(w, h.logger, r, m, err)
}

func (h *AdminHandler) ReassignTicket(w http.ResponseWriter, r *http.Request) {
	m, err := h.maintenance.Reassign(r.PathValue("id"))
	respond(w, h.logger, r, m, err)
}

type statusBody struct {
	Status domain.TicketStatus `json:"status"`
}

func (h *AdminHandler) ChangeTicketStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	m, err := h.maintenance.ChangeStatus(r.PathValue("id"), body.Status)
	respond(w, h.logger, r, m, err)
}

type commentBody struct {
	Author  domain.Author `json:"author"`
	Message string        `json:"message"`
}

// CommentTicket 员工端默认作者为 Manager
func (h *AdminHandler) CommentTicket(w http.ResponseWriter, r *http.Request) {
	var body commentBody
	if err := readBodyJSON(r, &body); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if strings.TrimSpace(string(body.Author)) == "" {
		body.Author = domain.AuthorManager
	}
	m, err := h.maintenance.AddComment(r.PathValue("id"), body.Author, body.Message)
	respond(w, h.logger, r, m, err)
}

func (h *AdminHandler) AttachCompletion(w http.ResponseWriter, r *http.Request) {
	var att domain.Attachment
	if err := readBodyJSON(r, &att); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	m, err := h.maintenance.AttachCompletion(r.PathValue("id"), att)
	respond(w, h.logger, r, m, err)
}

func (h *AdminHandler) NotifyCompletion(w http.ResponseWriter, r *http.Request) {
	if err := h.maintenance.SendCompletionNotice(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"sent": true}))
}
