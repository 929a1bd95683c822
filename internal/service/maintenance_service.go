package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neela-data/internal/domain"
	"neela-data/internal/search"
	"neela-data/internal/store"
	"neela-data/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaintenanceService 维修工单
type MaintenanceService struct {
	session    *store.Session
	classifier Classifier // 可为 nil：不做分诊
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewMaintenanceService(session *store.Session, classifier Classifier, notifier Notifier, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		session:    session,
		classifier: classifier,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// TicketItem 列表项（带住户姓名）
type TicketItem struct {
	domain.MaintenanceRequest
	TenantName string `json:"tenantName"`
}

// List 过滤后的工单，保持原顺序
func (s *MaintenanceService) List(q search.TicketQuery) []TicketItem {
	names := s.tenantNames()
	filtered := search.FilterTickets(s.session.Tickets(), names, q)
	out := make([]TicketItem, 0, len(filtered))
	for _, m := range filtered {
		out = append(out, TicketItem{MaintenanceRequest: m, TenantName: names[m.TenantID]})
	}
	return out
}

func (s *MaintenanceService) Get(id string) (*domain.MaintenanceRequest, error) {
	m, err := s.session.Ticket(id)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTicketRequest 新建工单
type CreateTicketRequest struct {
	TenantID    string          `json:"tenantId"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Images      []string        `json:"images"`
	AutoTriage  bool            `json:"autoTriage"`
}

// Create 新建工单；分诊失败只记日志，不影响创建
func (s *MaintenanceService) Create(ctx context.Context, req CreateTicketRequest) (*domain.MaintenanceRequest, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if req.TenantID == "" {
		return nil, fmt.Errorf("%w: tenantId is required", ErrValidation)
	}
	if _, err := s.session.Tenant(req.TenantID); err != nil {
		return nil, err
	}
	if req.Priority != "" {
		p, ok := domain.ParsePriority(string(req.Priority))
		if !ok {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, req.Priority)
		}
		req.Priority = p
	}
	if req.Category == "" {
		req.Category = "General"
	}

	var suggestion *domain.TriageSuggestion
	if req.AutoTriage {
		if sug, err := s.Analyze(ctx, req.Description); err == nil {
			suggestion = &sug
		}
	}

	m := workflow.NewTicket(workflow.TicketSpec{
		ID:          uuid.NewString(),
		TenantID:    req.TenantID,
		Category:    req.Category,
		Description: req.Description,
		Priority:    req.Priority,
		Images:      req.Images,
	}, suggestion, s.now())
	if err := s.session.AddTicket(m); err != nil {
		return nil, fmt.Errorf("failed to add ticket: %w", err)
	}
	s.logger.Info("Maintenance ticket created",
		zap.String("ticket_id", m.ID),
		zap.String("tenant_id", m.TenantID),
		zap.String("priority", string(m.Priority)),
		zap.Bool("triaged", suggestion != nil),
	)
	return &m, nil
}

// Analyze 只返回分诊建议，不建工单
func (s *MaintenanceService) Analyze(ctx context.Context, description string) (domain.TriageSuggestion, error) {
	if strings.TrimSpace(description) == "" {
		return domain.TriageSuggestion{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if s.classifier == nil {
		return domain.TriageSuggestion{}, fmt.Errorf("%w: triage is not configured", ErrUpstream)
	}
	sug, err := s.classifier.Classify(ctx, description)
	if err != nil {
		s.logger.Warn("Triage failed", zap.Error(err))
		return domain.TriageSuggestion{}, fmt.Errorf("%w: triage: %w", ErrUpstream, err)
	}
	return sug, nil
}

func (s *MaintenanceService) apply(id string, action workflow.TicketAction) (*domain.MaintenanceRequest, error) {
	m, err := s.session.DispatchTicket(id, action, s.now())
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MaintenanceService) Assign(id, assignee string) (*domain.MaintenanceRequest, error) {
	return s.apply(id, workflow.Assign{Assignee: assignee})
}

func (s *MaintenanceService) Reassign(id string) (*domain.MaintenanceRequest, error) {
	return s.apply(id, workflow.Reassign{})
}

func (s *MaintenanceService) ChangeStatus(id string, status domain.TicketStatus) (*domain.MaintenanceRequest, error) {
	return s.apply(id, workflow.ChangeStatus{Status: status})
}

func (s *MaintenanceService) AddComment(id string, author domain.Author, message string) (*domain.MaintenanceRequest, error) {
	return s.apply(id, workflow.Comment{Author: author, Message: message})
}

func (s *MaintenanceService) AttachCompletion(id string, att domain.Attachment) (*domain.MaintenanceRequest, error) {
	return s.apply(id, workflow.AttachCompletion{Attachment: att})
}

// SendCompletionNotice 发送完工通知；发送结果不区分成功失败，只记日志
func (s *MaintenanceService) SendCompletionNotice(ctx context.Context, id string) error {
	m, err := s.session.Ticket(id)
	if err != nil {
		return err
	}
	recipient := ""
	if t, err := s.session.Tenant(m.TenantID); err == nil {
		recipient = t.Email
	}
	notice := Notice{
		Kind:      "maintenance.completed",
		TenantID:  m.TenantID,
		Recipient: recipient,
		Subject:   fmt.Sprintf("Maintenance request %s: %s", m.Category, m.Status),
		Body:      fmt.Sprintf("Your request \"%s\" is now %s.", m.Description, m.Status),
		TicketID:  m.ID,
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.logger.Warn("Completion notice not delivered", zap.String("ticket_id", id), zap.Error(err))
		return nil
	}
	s.logger.Info("Completion notice sent", zap.String("ticket_id", id))
	return nil
}

func (s *MaintenanceService) tenantNames() map[string]string {
	tenants := s.session.Tenants()
	names := make(map[string]string, len(tenants))
	for _, t := range tenants {
		names[t.ID] = t.Name
	}
	return names
}
