package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neela-data/internal/aggregator"
	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LegalService 催租通知与法律文书（Legal & Compliance 页面）
type LegalService struct {
	session  *store.Session
	drafter  NoticeDrafter
	notifier Notifier
	settings config.Settings
	logger   *zap.Logger
	now      func() time.Time
}

func NewLegalService(session *store.Session, drafter NoticeDrafter, notifier Notifier, settings config.Settings, logger *zap.Logger) *LegalService {
	return &LegalService{
		session:  session,
		drafter:  drafter,
		notifier: notifier,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// NoticeRequest 空字段使用默认值：Late Rent Notice + Email
type NoticeRequest struct {
	Type           domain.LegalDocumentType `json:"type"`
	DeliveryMethod domain.DeliveryMethod    `json:"deliveryMethod"`
}

// OverdueTenants Action Required 列表
func (s *LegalService) OverdueTenants() []aggregator.OverdueTenant {
	return aggregator.OverdueTenants(s.session.Tenants())
}

// Documents 全部文书，新的在前
func (s *LegalService) Documents() []domain.LegalDocument {
	return s.session.LegalDocuments()
}

// DocumentsFor 某个住户的文书
func (s *LegalService) DocumentsFor(tenantID string) ([]domain.LegalDocument, error) {
	if _, err := s.session.Tenant(tenantID); err != nil {
		return nil, err
	}
	return s.session.LegalDocumentsFor(tenantID), nil
}

// SendNotice 起草文书并通过 Notifier 发给住户。
// 文书总会记录下来；通知失败时保持 Generated，只记日志。
func (s *LegalService) SendNotice(ctx context.Context, tenantID string, req NoticeRequest) (*domain.LegalDocument, error) {
	if req.Type == "" {
		req.Type = domain.LegalLateRentNotice
	}
	if req.DeliveryMethod == "" {
		req.DeliveryMethod = domain.DeliveryEmail
	}
	if !req.DeliveryMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown delivery method %q", ErrValidation, req.DeliveryMethod)
	}
	tpl, ok := s.settings.Notice(string(req.Type))
	if !ok {
		return nil, fmt.Errorf("%w: unknown notice type %q", ErrValidation, req.Type)
	}
	tenant, err := s.session.Tenant(tenantID)
	if err != nil {
		return nil, err
	}
	if req.Type.RequiresBalance() && !tenant.Balance.IsPositive() {
		return nil, fmt.Errorf("%w: tenant %s has no outstanding balance", ErrValidation, tenantID)
	}

	content, err := s.drafter.DraftNotice(ctx, tenant, tpl)
	if err != nil {
		s.logger.Warn("Notice drafting failed", zap.String("tenant_id", tenantID), zap.String("type", string(req.Type)), zap.Error(err))
		return nil, fmt.Errorf("%w: notice drafting: %w", ErrUpstream, err)
	}

	doc := domain.LegalDocument{
		ID:               uuid.NewString(),
		TenantID:         tenant.ID,
		Type:             req.Type,
		GeneratedContent: content,
		CreatedAt:        domain.NewDate(s.now()),
		Status:           domain.LegalGenerated,
		DeliveryMethod:   req.DeliveryMethod,
	}
	if req.DeliveryMethod == domain.DeliveryCertifiedMail {
		doc.TrackingNumber = trackingNumber()
	}

	notice := Notice{
		Kind:      "legal.notice",
		TenantID:  tenant.ID,
		Recipient: tenant.Email,
		Subject:   string(req.Type),
		Body:      content,
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.logger.Warn("Legal notice not delivered", zap.String("tenant_id", tenant.ID), zap.String("document_id", doc.ID), zap.Error(err))
	} else {
		doc.Status = domain.LegalSent
	}
	s.session.AddLegalDocument(doc)
	s.logger.Info("Legal notice recorded",
		zap.String("tenant_id", tenant.ID),
		zap.String("document_id", doc.ID),
		zap.String("type", string(doc.Type)),
		zap.String("status", string(doc.Status)),
	)
	return &doc, nil
}

// trackingNumber 挂号信追踪号（模拟）
func trackingNumber() string {
	return "CM" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
}
