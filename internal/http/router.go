package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（方法 + 路径参数模式）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

const (
	adminPrefix  = "/admin/api/v1"
	portalPrefix = "/portal/api/v1"
)

// RegisterAdminRoutes 员工端：仪表盘、住户/申请人、维修、付款、法律文书、设置
func (r *Router) RegisterAdminRoutes(h *AdminHandler) {
	r.Handle("GET "+adminPrefix+"/dashboard", h.Dashboard)
	r.Handle("GET "+adminPrefix+"/views/{name}", h.View)
	r.Handle("GET "+adminPrefix+"/tenants", h.Tenants)
	r.Handle("GET "+adminPrefix+"/payments", h.Payments)
	r.Handle("GET "+adminPrefix+"/payment-claims", h.PaymentClaims)
	r.Handle("GET "+adminPrefix+"/settings", h.Settings)

	// legal
	r.Handle("GET "+adminPrefix+"/legal-documents", h.LegalDocuments)
	r.Handle("GET "+adminPrefix+"/tenants/{id}/legal-documents", h.TenantLegalDocuments)
	r.Handle("POST "+adminPrefix+"/tenants/{id}/notice", h.SendNotice)

	// applicants
	r.Handle("GET "+adminPrefix+"/applicants/{id}", h.GetApplicant)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/review", h.applicantAction(h.applicants.BeginReview))
	r.Handle("POST "+adminPrefix+"/applicants/{id}/approve", h.applicantAction(h.applicants.Approve))
	r.Handle("POST "+adminPrefix+"/applicants/{id}/decline", h.DeclineApplicant)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/screening", h.RunScreening)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/lease", h.GenerateLease)
	r.Handle("PUT "+adminPrefix+"/applicants/{id}/lease", h.EditLease)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/lease/discard", h.applicantAction(h.applicants.DiscardLease))
	r.Handle("POST "+adminPrefix+"/applicants/{id}/lease/send", h.SendLease)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/lease/sign", h.SignLease)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/lease/sync", h.SyncLease)
	r.Handle("POST "+adminPrefix+"/applicants/{id}/move-in", h.applicantAction(h.applicants.FinalizeMoveIn))
	r.Handle("PUT "+adminPrefix+"/applicants/{id}/notes", h.UpdateNotes)
	r.Handle("GET "+adminPrefix+"/envelopes", h.PendingEnvelopes)

	// maintenance
	r.Handle("GET "+adminPrefix+"/maintenance", h.ListTickets)
	r.Handle("POST "+adminPrefix+"/maintenance", h.CreateTicket)
	r.Handle("GET "+adminPrefix+"/maintenance/export", h.ExportTickets)
	r.Handle("POST "+adminPrefix+"/maintenance/analyze", h.AnalyzeTicket)
	r.Handle("GET "+adminPrefix+"/maintenance/{id}", h.GetTicket)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/assign", h.AssignTicket)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/reassign", h.ReassignTicket)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/status", h.ChangeTicketStatus)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/comments", h.CommentTicket)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/attachments", h.AttachCompletion)
	r.Handle("POST "+adminPrefix+"/maintenance/{id}/notify", h.NotifyCompletion)
}

// RegisterPortalRoutes 自助端；limiter 为 nil 时不限流
func (r *Router) RegisterPortalRoutes(h *PortalHandler, limiter *RateLimiter) {
	wrap := func(f http.HandlerFunc) http.HandlerFunc {
		if limiter == nil {
			return f
		}
		return limiter.Wrap(f)
	}
	r.Handle("GET "+portalPrefix+"/listings", wrap(h.Listings))
	r.Handle("GET "+portalPrefix+"/listings/{id}", wrap(h.Listing))
	r.Handle("POST "+portalPrefix+"/applications", wrap(h.SubmitApplication))
	r.Handle("GET "+portalPrefix+"/me/application", wrap(h.ApplicationStatus))
	r.Handle("GET "+portalPrefix+"/me/overview", wrap(h.Overview))
	r.Handle("POST "+portalPrefix+"/me/tickets", wrap(h.SubmitTicket))
	r.Handle("POST "+portalPrefix+"/me/tickets/analyze", wrap(h.AnalyzeIssue))
	r.Handle("POST "+portalPrefix+"/me/payments/instant", wrap(h.InstantPayment))
	r.Handle("POST "+portalPrefix+"/me/payments/manual", wrap(h.ManualPayment))
}

// RegisterOpsRoutes /healthz + /metrics
func (r *Router) RegisterOpsRoutes(metrics *Metrics) {
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	if metrics != nil {
		r.HandleHandler("GET /metrics", metrics.Handler())
	}
}
