package service

import (
	"context"
	"errors"
	"time"

	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/store"
)

var (
	ErrNotFound   = store.ErrNotFound
	ErrValidation = errors.New("validation failed")
	// ErrUpstream 外部协作方调用失败
	ErrUpstream = errors.New("external service failed")

	ErrEnvelopeSigned = errors.New("envelope already signed")
	ErrEnvelopeVoided = errors.New("envelope has been voided")
)

// DataSource 数据访问协作方：每个调用要么返回完整集合，要么报错
type DataSource interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	ListPayments(ctx context.Context) ([]domain.Payment, error)
	ListMaintenanceRequests(ctx context.Context) ([]domain.MaintenanceRequest, error)
	ListListings(ctx context.Context) ([]domain.Listing, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}

// NotificationSource 可选：能提供住户通知的数据源
type NotificationSource interface {
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
}

// LegalDocumentSource 可选：能提供历史法律文书的数据源
type LegalDocumentSource interface {
	ListLegalDocuments(ctx context.Context) ([]domain.LegalDocument, error)
}

// Classifier 维修分诊
type Classifier interface {
	Classify(ctx context.Context, description string) (domain.TriageSuggestion, error)
}

// LeaseDrafter 租约起草；失败时不返回任何正文
type LeaseDrafter interface {
	DraftLease(ctx context.Context, applicant domain.Tenant, tpl config.LeaseTemplate) (string, error)
}

// NoticeDrafter 通知 / 法律文书起草
type NoticeDrafter interface {
	DraftNotice(ctx context.Context, tenant domain.Tenant, tpl config.NoticeTemplate) (string, error)
}

// ScreeningResult 信用分与背调结果总是一起返回
type ScreeningResult struct {
	CreditScore int                          `json:"creditScore"`
	Background  domain.BackgroundCheckStatus `json:"background"`
}

// Screener 背调
type Screener interface {
	Screen(ctx context.Context, applicant domain.Tenant) (ScreeningResult, error)
}

// SignatureRequest 发送签署
type SignatureRequest struct {
	ApplicantID    string `json:"applicantId"`
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
	Body           string `json:"body"`
}

// Envelope 签署信封
type Envelope struct {
	ID             string             `json:"id"`
	ApplicantID    string             `json:"applicantId"`
	RecipientEmail string             `json:"recipientEmail"`
	Status         domain.LeaseStatus `json:"status"`
	DocumentURL    string             `json:"documentUrl,omitempty"`
	SentAt         time.Time          `json:"sentAt"`
	SignedAt       *time.Time         `json:"signedAt,omitempty"`
	VoidedAt       *time.Time         `json:"voidedAt,omitempty"`
}

// SignatureProvider 电子签署协作方
type SignatureProvider interface {
	Send(ctx context.Context, req SignatureRequest) (Envelope, error)
	Status(ctx context.Context, envelopeID string) (Envelope, error)
	// Void 撤回未签署的信封；已签署的返回 ErrEnvelopeSigned
	Void(ctx context.Context, envelopeID string) error
}

// SignatureSimulator 可选：能模拟签署人完成签署（演示用）
type SignatureSimulator interface {
	Sign(ctx context.Context, envelopeID string) (Envelope, error)
}

// Notice 一次性通知（没有重试和送达确认）
type Notice struct {
	Kind      string `json:"kind"`
	TenantID  string `json:"tenantId"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	TicketID  string `json:"ticketId,omitempty"`
}

// Notifier 通知发送
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}
