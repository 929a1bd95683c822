package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/store"
	"neela-data/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InstantMethods 在线付款方式（只展示，不实际处理）
var InstantMethods = []string{"Zelle", "Venmo", "CashApp", "Apple Pay", "Card", "ACH"}

// PortalService 住户 / 申请人自助端。所有读取都限定在调用者本人。
type PortalService struct {
	session     *store.Session
	maintenance *MaintenanceService
	notifier    Notifier
	settings    config.Settings
	logger      *zap.Logger
	now         func() time.Time
}

func NewPortalService(session *store.Session, maintenance *MaintenanceService, notifier Notifier, settings config.Settings, logger *zap.Logger) *PortalService {
	return &PortalService{
		session:     session,
		maintenance: maintenance,
		notifier:    notifier,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *PortalService) ListListings() []domain.Listing {
	return s.session.Listings()
}

func (s *PortalService) GetListing(id string) (*domain.Listing, error) {
	l, err := s.session.Listing(id)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ApplicationRequest 公开申请表
type ApplicationRequest struct {
	ListingID       string             `json:"listingId"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	MoveInDate      string             `json:"moveInDate"`
	Employment      domain.Employment  `json:"employment"`
	References      []domain.Reference `json:"references"`
	Documents       []domain.Document  `json:"documents"`
	ConsentToScreen bool               `json:"consentToScreen"`
}

// ApplicationReceipt 提交回执；ApplicantID 作为之后查询进度的身份
type ApplicationReceipt struct {
	ApplicantID string              `json:"applicantId"`
	Status      domain.TenantStatus `json:"status"`
	Fee         decimal.Decimal     `json:"applicationFee"`
}

// SubmitApplication 创建 Applicant 记录
func (s *PortalService) SubmitApplication(req ApplicationRequest) (*ApplicationReceipt, error) {
	listing, err := s.session.Listing(req.ListingID)
	if err != nil {
		return nil, err
	}
	if err := s.validateApplication(&req); err != nil {
		return nil, err
	}

	now := s.now()
	var leaseStart, leaseEnd domain.Date
	if req.MoveInDate != "" {
		d, err := domain.ParseDate(req.MoveInDate)
		if err != nil {
			return nil, fmt.Errorf("%w: moveInDate: %v", ErrValidation, err)
		}
		leaseStart = d
		leaseEnd = domain.NewDate(d.AddDate(1, 0, -1))
	}

	t := domain.Tenant{
		ID:                    uuid.NewString(),
		Name:                  strings.TrimSpace(req.Name),
		Email:                 strings.TrimSpace(req.Email),
		Phone:                 req.Phone,
		Status:                domain.TenantStatusApplicant,
		PropertyUnit:          listing.Title,
		LeaseStart:            leaseStart,
		LeaseEnd:              leaseEnd,
		RentAmount:            listing.Price,
		Deposit:               listing.Price,
		Balance:               decimal.Zero,
		BackgroundCheckStatus: domain.BackgroundPending,
		ApplicationData: &domain.ApplicationData{
			SubmissionDate: domain.NewDate(now),
			ListingID:      listing.ID,
			Employment:     req.Employment,
			References:     append([]domain.Reference(nil), req.References...),
			Documents:      append([]domain.Document(nil), req.Documents...),
		},
	}
	if err := s.session.AddTenant(t); err != nil {
		return nil, fmt.Errorf("failed to add applicant: %w", err)
	}
	s.logger.Info("Application submitted", zap.String("applicant_id", t.ID), zap.String("listing_id", listing.ID))
	return &ApplicationReceipt{ApplicantID: t.ID, Status: t.Status, Fee: s.settings.Application.ApplicationFee}, nil
}

func (s *PortalService) validateApplication(req *ApplicationRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if !req.ConsentToScreen {
		return fmt.Errorf("%w: background check consent is required", ErrValidation)
	}
	cfg := s.settings.Application
	if cfg.RequireEmployment && strings.TrimSpace(req.Employment.Employer) == "" {
		return fmt.Errorf("%w: employment information is required", ErrValidation)
	}
	if cfg.RequireReferences && len(req.References) == 0 {
		return fmt.Errorf("%w: at least one reference is required", ErrValidation)
	}
	if req.Employment.MonthlyIncome.IsNegative() {
		return fmt.Errorf("%w: monthly income cannot be negative", ErrValidation)
	}
	return nil
}

// ApplicationStatusView 申请人自己能看到的进度（不含内部备注）
type ApplicationStatusView struct {
	ApplicantID    string                  `json:"applicantId"`
	Name           string                  `json:"name"`
	PropertyUnit   string                  `json:"propertyUnit"`
	SubmittedOn    domain.Date             `json:"submittedOn"`
	Stage          workflow.Stage          `json:"stage"`
	Screening      workflow.ScreeningState `json:"screening"`
	LeaseStatus    domain.LeaseStatus      `json:"leaseStatus,omitempty"`
	SignedLeaseURL string                  `json:"signedLeaseUrl,omitempty"`
}

func (s *PortalService) ApplicationStatus(callerID string) (*ApplicationStatusView, error) {
	st, err := s.session.Applicant(callerID)
	if err != nil {
		return nil, err
	}
	v := &ApplicationStatusView{
		ApplicantID:    st.Tenant.ID,
		Name:           st.Tenant.Name,
		PropertyUnit:   st.Tenant.PropertyUnit,
		Stage:          st.Lifecycle.Stage,
		Screening:      st.Lifecycle.Screening,
		LeaseStatus:    st.Tenant.LeaseStatus,
		SignedLeaseURL: st.Tenant.SignedLeaseURL,
	}
	if st.Tenant.ApplicationData != nil {
		v.SubmittedOn = st.Tenant.ApplicationData.SubmissionDate
	}
	return v, nil
}

// ResidentOverview 住户首页：余额、账单、自己的工单和通知
type ResidentOverview struct {
	TenantID      string                      `json:"tenantId"`
	Name          string                      `json:"name"`
	PropertyUnit  string                      `json:"propertyUnit"`
	RentAmount    decimal.Decimal             `json:"rentAmount"`
	Balance       decimal.Decimal             `json:"balance"`
	LeaseEnd      domain.Date                 `json:"leaseEnd"`
	Invoices      []domain.Invoice            `json:"invoices"`
	Tickets       []domain.MaintenanceRequest `json:"tickets"`
	Notifications []domain.Notification       `json:"notifications"`
	Claims        []domain.PaymentClaim       `json:"paymentClaims"`
	Legal         []domain.LegalDocument      `json:"legalDocuments"`
}

func (s *PortalService) Overview(callerID string) (*ResidentOverview, error) {
	t, err := s.resident(callerID)
	if err != nil {
		return nil, err
	}
	tickets := []domain.MaintenanceRequest{}
	for _, m := range s.session.Tickets() {
		if m.TenantID == t.ID {
			tickets = append(tickets, m)
		}
	}
	claims := []domain.PaymentClaim{}
	for _, c := range s.session.PaymentClaims() {
		if c.TenantID == t.ID {
			claims = append(claims, c)
		}
	}
	return &ResidentOverview{
		TenantID:      t.ID,
		Name:          t.Name,
		PropertyUnit:  t.PropertyUnit,
		RentAmount:    t.RentAmount,
		Balance:       t.Balance,
		LeaseEnd:      t.LeaseEnd,
		Invoices:      s.session.InvoicesFor(t.ID),
		Tickets:       tickets,
		Notifications: s.session.NotificationsFor(t.ID),
		Claims:        claims,
		Legal:         s.session.LegalDocumentsFor(t.ID),
	}, nil
}

// PortalTicketRequest 住户报修
type PortalTicketRequest struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Images      []string        `json:"images"`
	AutoTriage  bool            `json:"autoTriage"`
	Note        string          `json:"note"`
}

// SubmitTicket 工单强制归属调用者；附言以 Tenant 身份记录
func (s *PortalService) SubmitTicket(ctx context.Context, callerID string, req PortalTicketRequest) (*domain.MaintenanceRequest, error) {
	if _, err := s.resident(callerID); err != nil {
		return nil, err
	}
	m, err := s.maintenance.Create(ctx, CreateTicketRequest{
		TenantID:    callerID,
		Category:    req.Category,
		Description: req.Description,
		Priority:    req.Priority,
		Images:      req.Images,
		AutoTriage:  req.AutoTriage,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Note) != "" {
		return s.maintenance.AddComment(m.ID, domain.AuthorTenant, req.Note)
	}
	return m, nil
}

// AnalyzeIssue 报修前的分诊提示
func (s *PortalService) AnalyzeIssue(ctx context.Context, description string) (domain.TriageSuggestion, error) {
	return s.maintenance.Analyze(ctx, description)
}

// InstantPaymentRequest 在线付款
type InstantPaymentRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentIntent 在线付款意图；不处理，不改余额
type PaymentIntent struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Processed bool            `json:"processed"`
	Message   string          `json:"message"`
}

func (s *PortalService) StartInstantPayment(callerID string, req InstantPaymentRequest) (*PaymentIntent, error) {
	t, err := s.resident(callerID)
	if err != nil {
		return nil, err
	}
	if !validInstantMethod(req.Method) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, req.Method)
	}
	amount := req.Amount
	if amount.IsZero() {
		amount = t.Balance
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return &PaymentIntent{
		ID:      uuid.NewString(),
		Method:  req.Method,
		Amount:  amount,
		Message: "Payment processing is handled by the external processor; your balance updates once it settles.",
	}, nil
}

// ManualPaymentRequest 线下付款申报
type ManualPaymentRequest struct {
	Amount       decimal.Decimal            `json:"amount"`
	Method       domain.ManualPaymentMethod `json:"method"`
	Reference    string                     `json:"reference"`
	HandedOverOn string                     `json:"handedOverOn"`
}

// ReportManualPayment 只生成 Unverified 申报，员工核实前余额不变
func (s *PortalService) ReportManualPayment(ctx context.Context, callerID string, req ManualPaymentRequest) (*domain.PaymentClaim, error) {
	t, err := s.resident(callerID)
	if err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unsupported manual method %q", ErrValidation, req.Method)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	handed := domain.NewDate(s.now())
	if req.HandedOverOn != "" {
		if handed, err = domain.ParseDate(req.HandedOverOn); err != nil {
			return nil, fmt.Errorf("%w: handedOverOn: %v", ErrValidation, err)
		}
	}
	claim := domain.PaymentClaim{
		ID:           uuid.NewString(),
		TenantID:     t.ID,
		Amount:       req.Amount,
		Method:       req.Method,
		Reference:    strings.TrimSpace(req.Reference),
		HandedOverOn: handed,
		Status:       domain.ClaimUnverified,
		SubmittedAt:  domain.NewDate(s.now()),
	}
	s.session.AddPaymentClaim(claim)
	s.logger.Info("Manual payment reported",
		zap.String("claim_id", claim.ID),
		zap.String("tenant_id", t.ID),
		zap.String("amount", claim.Amount.String()),
	)
	if err := s.notifier.Notify(ctx, Notice{
		Kind:     "payment.claim",
		TenantID: t.ID,
		Subject:  "Manual payment awaiting verification",
		Body:     fmt.Sprintf("%s reported a %s payment of %s.", t.Name, claim.Method, claim.Amount.StringFixed(2)),
	}); err != nil {
		s.logger.Warn("Claim notice not delivered", zap.String("claim_id", claim.ID), zap.Error(err))
	}
	return &claim, nil
}

// ListClaims 员工查看所有申报
func (s *PortalService) ListClaims() []domain.PaymentClaim {
	return s.session.PaymentClaims()
}

// resident 调用者必须是已入住（非申请人）的住户
func (s *PortalService) resident(callerID string) (domain.Tenant, error) {
	if callerID == "" {
		return domain.Tenant{}, fmt.Errorf("%w: resident id is required", ErrValidation)
	}
	t, err := s.session.Tenant(callerID)
	if err != nil {
		return domain.Tenant{}, err
	}
	if t.IsApplicant() || t.Status == domain.TenantStatusFormer {
		return domain.Tenant{}, fmt.Errorf("%w: %s is not a current resident", ErrValidation, callerID)
	}
	return t, nil
}

func validInstantMethod(m string) bool {
	for _, v := range InstantMethods {
		if v == m {
			return true
		}
	}
	return false
}
