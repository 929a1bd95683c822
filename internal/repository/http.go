package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"neela-data/internal/config"
	"neela-data/internal/domain"
)

// HTTPDataSource REST 后端数据源（snake_case JSON）
type HTTPDataSource struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPDataSource 创建 REST 数据源
func NewHTTPDataSource(cfg config.BackendConfig, logger *zap.Logger) *HTTPDataSource {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &HTTPDataSource{httpClient: client, logger: logger}
}

// flexID 外键在后端可能是整数也可能是字符串
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type tenantDTO struct {
	ID                    flexID                  `json:"id"`
	Name                  string                  `json:"name"`
	Email                 string                  `json:"email"`
	Phone                 string                  `json:"phone"`
	Status                string                  `json:"status"`
	PropertyUnit          string                  `json:"property_unit"`
	LeaseStart            domain.Date             `json:"lease_start"`
	LeaseEnd              domain.Date             `json:"lease_end"`
	RentAmount            decimal.Decimal         `json:"rent_amount"`
	Deposit               decimal.Decimal         `json:"deposit"`
	Balance               decimal.Decimal         `json:"balance"`
	CreditScore           *int                    `json:"credit_score"`
	BackgroundCheckStatus string                  `json:"background_check_status"`
	ApplicationData       *domain.ApplicationData `json:"application_data"`
	LeaseStatus           string                  `json:"lease_status"`
	SignedLeaseURL        string                  `json:"signed_lease_url"`
}

type paymentDTO struct {
	ID        flexID          `json:"id"`
	Tenant    flexID          `json:"tenant"`
	Amount    decimal.Decimal `json:"amount"`
	Date      domain.Date     `json:"date"`
	Status    string          `json:"status"`
	Type      string          `json:"type"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

type maintenanceDTO struct {
	ID                    flexID                `json:"id"`
	Tenant                flexID                `json:"tenant"`
	Category              string                `json:"category"`
	Description           string                `json:"description"`
	Status                string                `json:"status"`
	Priority              string                `json:"priority"`
	CreatedAt             domain.Date           `json:"created_at"`
	AssignedTo            string                `json:"assigned_to"`
	Images                []string              `json:"images"`
	Updates               []domain.TicketUpdate `json:"updates"`
	CompletionAttachments []domain.Attachment   `json:"completion_attachments"`
}

type listingDTO struct {
	ID          flexID          `json:"id"`
	Title       string          `json:"title"`
	Address     string          `json:"address"`
	Price       decimal.Decimal `json:"price"`
	Beds        int             `json:"beds"`
	Baths       decimal.Decimal `json:"baths"`
	Sqft        int             `json:"sqft"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Amenities   []string        `json:"amenities"`
}

type invoiceDTO struct {
	ID      flexID               `json:"id"`
	Tenant  flexID               `json:"tenant"`
	Date    domain.Date          `json:"date"`
	DueDate domain.Date          `json:"due_date"`
	Amount  decimal.Decimal      `json:"amount"`
	Period  string               `json:"period"`
	Status  string               `json:"status"`
	Items   []domain.InvoiceItem `json:"items"`
}

func (s *HTTPDataSource) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	var dtos []tenantDTO
	if err := s.list(ctx, "/tenants/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Tenant, 0, len(dtos))
	for _, d := range dtos {
		status, ok := domain.NormalizeTenantStatus(d.Status)
		if !ok {
			return nil, fmt.Errorf("tenant %s: unknown status %q", d.ID, d.Status)
		}
		background := domain.BackgroundCheckStatus(d.BackgroundCheckStatus)
		if background == "" {
			background = domain.BackgroundPending
		}
		out = append(out, domain.Tenant{
			ID:                    string(d.ID),
			Name:                  d.Name,
			Email:                 d.Email,
			Phone:                 d.Phone,
			Status:                status,
			PropertyUnit:          d.PropertyUnit,
			LeaseStart:            d.LeaseStart,
			LeaseEnd:              d.LeaseEnd,
			RentAmount:            d.RentAmount,
			Deposit:               d.Deposit,
			Balance:               d.Balance,
			CreditScore:           d.CreditScore,
			BackgroundCheckStatus: background,
			ApplicationData:       d.ApplicationData,
			LeaseStatus:           domain.LeaseStatus(d.LeaseStatus),
			SignedLeaseURL:        d.SignedLeaseURL,
		})
	}
	return out, nil
}

func (s *HTTPDataSource) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	var dtos []paymentDTO
	if err := s.list(ctx, "/payments/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.Payment{
			ID:        string(d.ID),
			TenantID:  string(d.Tenant),
			Amount:    d.Amount,
			Date:      d.Date,
			Status:    domain.PaymentStatus(d.Status),
			Type:      d.Type,
			Method:    d.Method,
			Reference: d.Reference,
		})
	}
	return out, nil
}

func (s *HTTPDataSource) ListMaintenanceRequests(ctx context.Context) ([]domain.MaintenanceRequest, error) {
	var dtos []maintenanceDTO
	if err := s.list(ctx, "/maintenance/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.MaintenanceRequest, 0, len(dtos))
	for _, d := range dtos {
		updates := d.Updates
		if updates == nil {
			updates = []domain.TicketUpdate{}
		}
		out = append(out, domain.MaintenanceRequest{
			ID:                    string(d.ID),
			TenantID:              string(d.Tenant),
			Category:              d.Category,
			Description:           d.Description,
			Status:                domain.TicketStatus(d.Status),
			Priority:              domain.Priority(d.Priority),
			CreatedAt:             d.CreatedAt,
			AssignedTo:            d.AssignedTo,
			Images:                d.Images,
			Updates:               updates,
			CompletionAttachments: d.CompletionAttachments,
		})
	}
	return out, nil
}

func (s *HTTPDataSource) ListListings(ctx context.Context) ([]domain.Listing, error) {
	var dtos []listingDTO
	if err := s.list(ctx, "/listings/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.Listing{
			ID:          string(d.ID),
			Title:       d.Title,
			Address:     d.Address,
			Price:       d.Price,
			Beds:        d.Beds,
			Baths:       d.Baths,
			Sqft:        d.Sqft,
			Image:       d.Image,
			Description: d.Description,
			Amenities:   d.Amenities,
		})
	}
	return out, nil
}

func (s *HTTPDataSource) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var dtos []invoiceDTO
	if err := s.list(ctx, "/invoices/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.Invoice{
			ID:       string(d.ID),
			TenantID: string(d.Tenant),
			Date:     d.Date,
			DueDate:  d.DueDate,
			Amount:   d.Amount,
			Period:   d.Period,
			Status:   domain.InvoiceStatus(d.Status),
			Items:    d.Items,
		})
	}
	return out, nil
}

type legalDocumentDTO struct {
	ID               flexID      `json:"id"`
	Tenant           flexID      `json:"tenant"`
	Type             string      `json:"type"`
	GeneratedContent string      `json:"generated_content"`
	CreatedAt        domain.Date `json:"created_at"`
	Status           string      `json:"status"`
	DeliveryMethod   string      `json:"delivery_method"`
	TrackingNumber   string      `json:"tracking_number"`
}

func (s *HTTPDataSource) ListLegalDocuments(ctx context.Context) ([]domain.LegalDocument, error) {
	var dtos []legalDocumentDTO
	if err := s.list(ctx, "/legal-documents/", &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.LegalDocument, 0, len(dtos))
	for _, d := range dtos {
		doc := domain.LegalDocument{
			ID:               string(d.ID),
			TenantID:         string(d.Tenant),
			Type:             domain.LegalDocumentType(d.Type),
			GeneratedContent: d.GeneratedContent,
			CreatedAt:        d.CreatedAt,
			Status:           domain.LegalDocumentStatus(d.Status),
			DeliveryMethod:   domain.DeliveryMethod(d.DeliveryMethod),
			TrackingNumber:   d.TrackingNumber,
		}
		if doc.Status == "" {
			doc.Status = domain.LegalGenerated
		}
		out = append(out, doc)
	}
	return out, nil
}

// list 拉取集合；兼容分页响应 {"results": [...]}
func (s *HTTPDataSource) list(ctx context.Context, path string, out any) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		s.logger.Error("Backend request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.IsError() {
		s.logger.Error("Backend returned http error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("failed to fetch %s: http %d", path, resp.StatusCode())
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) > 0 && body[0] == '{' {
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		body = page.Results
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
