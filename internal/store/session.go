package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"neela-data/internal/domain"
	"neela-data/internal/workflow"
)

var ErrNotFound = errors.New("not found")

// Snapshot 一次批量加载的全部集合
type Snapshot struct {
	Tenants       []domain.Tenant
	Payments      []domain.Payment
	Tickets       []domain.MaintenanceRequest
	Listings      []domain.Listing
	Invoices      []domain.Invoice
	Notifications []domain.Notification
	Claims        []domain.PaymentClaim

	LegalDocuments []domain.LegalDocument
}

// Session 当前会话拥有的实体集合。
// 每类实体只有一个写入口；读取一律返回拷贝。
type Session struct {
	mu         sync.RWMutex
	data       Snapshot
	lifecycles map[string]workflow.Lifecycle
}

func NewSession() *Session {
	return &Session{lifecycles: map[string]workflow.Lifecycle{}}
}

// Replace 用新加载的数据整体替换（流程状态按住户重新推导）
func (s *Session) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Snapshot{
		Tenants:       cloneTenants(snap.Tenants),
		Payments:      append([]domain.Payment(nil), snap.Payments...),
		Tickets:       cloneTickets(snap.Tickets),
		Listings:      append([]domain.Listing(nil), snap.Listings...),
		Invoices:      append([]domain.Invoice(nil), snap.Invoices...),
		Notifications: append([]domain.Notification(nil), snap.Notifications...),
		Claims:        append([]domain.PaymentClaim(nil), snap.Claims...),

		LegalDocuments: append([]domain.LegalDocument(nil), snap.LegalDocuments...),
	}
	s.lifecycles = make(map[string]workflow.Lifecycle, len(snap.Tenants))
	for _, t := range snap.Tenants {
		s.lifecycles[t.ID] = workflow.InitialLifecycle(t)
	}
}

// Snapshot 当前全部集合的拷贝
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tenants:       cloneTenants(s.data.Tenants),
		Payments:      append([]domain.Payment(nil), s.data.Payments...),
		Tickets:       cloneTickets(s.data.Tickets),
		Listings:      append([]domain.Listing(nil), s.data.Listings...),
		Invoices:      append([]domain.Invoice(nil), s.data.Invoices...),
		Notifications: append([]domain.Notification(nil), s.data.Notifications...),
		Claims:        append([]domain.PaymentClaim(nil), s.data.Claims...),

		LegalDocuments: append([]domain.LegalDocument(nil), s.data.LegalDocuments...),
	}
}

// ---- tenants / applicants ----

func (s *Session) Tenants() []domain.Tenant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTenants(s.data.Tenants)
}

func (s *Session) Tenant(id string) (domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tenantIndex(id)
	if i < 0 {
		return domain.Tenant{}, fmt.Errorf("tenant %s: %w", id, ErrNotFound)
	}
	return s.data.Tenants[i].Clone(), nil
}

// AddTenant 新申请人排在最前
func (s *Session) AddTenant(t domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tenantIndex(t.ID) >= 0 {
		return fmt.Errorf("tenant %s already exists", t.ID)
	}
	s.data.Tenants = append([]domain.Tenant{t.Clone()}, s.data.Tenants...)
	s.lifecycles[t.ID] = workflow.InitialLifecycle(t)
	return nil
}

// Applicant 住户 + 流程状态
func (s *Session) Applicant(id string) (workflow.ApplicantState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.tenantIndex(id)
	if i < 0 {
		return workflow.ApplicantState{}, fmt.Errorf("applicant %s: %w", id, ErrNotFound)
	}
	return workflow.ApplicantState{Tenant: s.data.Tenants[i].Clone(), Lifecycle: cloneLifecycle(s.lifecycles[id])}, nil
}

// DispatchApplicant 申请流程的唯一写入口：在锁内做 reduce 并提交
func (s *Session) DispatchApplicant(id string, action workflow.ApplicantAction) (workflow.ApplicantState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tenantIndex(id)
	if i < 0 {
		return workflow.ApplicantState{}, fmt.Errorf("applicant %s: %w", id, ErrNotFound)
	}
	cur := workflow.ApplicantState{Tenant: s.data.Tenants[i], Lifecycle: s.lifecycles[id]}
	next, err := workflow.ReduceApplicant(cur, action)
	if err != nil {
		return workflow.ApplicantState{Tenant: cur.Tenant.Clone(), Lifecycle: cloneLifecycle(cur.Lifecycle)}, err
	}
	s.data.Tenants[i] = next.Tenant
	s.lifecycles[id] = next.Lifecycle
	return workflow.ApplicantState{Tenant: next.Tenant.Clone(), Lifecycle: cloneLifecycle(next.Lifecycle)}, nil
}

func (s *Session) tenantIndex(id string) int {
	for i := range s.data.Tenants {
		if s.data.Tenants[i].ID == id {
			return i
		}
	}
	return -1
}

// ---- maintenance ----

func (s *Session) Tickets() []domain.MaintenanceRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTickets(s.data.Tickets)
}

func (s *Session) Ticket(id string) (domain.MaintenanceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.ticketIndex(id)
	if i < 0 {
		return domain.MaintenanceRequest{}, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	return s.data.Tickets[i].Clone(), nil
}

// AddTicket 新工单排在最前
func (s *Session) AddTicket(m domain.MaintenanceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticketIndex(m.ID) >= 0 {
		return fmt.Errorf("ticket %s already exists", m.ID)
	}
	s.data.Tickets = append([]domain.MaintenanceRequest{m.Clone()}, s.data.Tickets...)
	return nil
}

// DispatchTicket 工单的唯一写入口
func (s *Session) DispatchTicket(id string, action workflow.TicketAction, now time.Time) (domain.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ticketIndex(id)
	if i < 0 {
		return domain.MaintenanceRequest{}, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	next, err := workflow.ReduceTicket(s.data.Tickets[i], action, now)
	if err != nil {
		return s.data.Tickets[i].Clone(), err
	}
	s.data.Tickets[i] = next
	return next.Clone(), nil
}

func (s *Session) ticketIndex(id string) int {
	for i := range s.data.Tickets {
		if s.data.Tickets[i].ID == id {
			return i
		}
	}
	return -1
}

// ---- read-only collections ----

func (s *Session) Payments() []domain.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Payment(nil), s.data.Payments...)
}

func (s *Session) Listings() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Listing(nil), s.data.Listings...)
}

func (s *Session) Listing(id string) (domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.data.Listings {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, fmt.Errorf("listing %s: %w", id, ErrNotFound)
}

func (s *Session) Invoices() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Invoice(nil), s.data.Invoices...)
}

// InvoicesFor 某个住户的账单
func (s *Session) InvoicesFor(tenantID string) []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Invoice{}
	for _, inv := range s.data.Invoices {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out
}

// NotificationsFor 某个住户的通知
func (s *Session) NotificationsFor(tenantID string) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Notification{}
	for _, n := range s.data.Notifications {
		if n.TenantID == tenantID {
			out = append(out, n)
		}
	}
	return out
}

// ---- payment claims ----

// AddPaymentClaim 只记录申报，不碰余额
func (s *Session) AddPaymentClaim(c domain.PaymentClaim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Claims = append(s.data.Claims, c)
}

func (s *Session) PaymentClaims() []domain.PaymentClaim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PaymentClaim(nil), s.data.Claims...)
}

// ---- legal documents ----

// AddLegalDocument 新文书排在最前
func (s *Session) AddLegalDocument(d domain.LegalDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LegalDocuments = append([]domain.LegalDocument{d}, s.data.LegalDocuments...)
}

func (s *Session) LegalDocuments() []domain.LegalDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LegalDocument{}, s.data.LegalDocuments...)
}

// LegalDocumentsFor 某个住户的文书
func (s *Session) LegalDocumentsFor(tenantID string) []domain.LegalDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.LegalDocument{}
	for _, d := range s.data.LegalDocuments {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out
}

func cloneTenants(in []domain.Tenant) []domain.Tenant {
	out := make([]domain.Tenant, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneTickets(in []domain.MaintenanceRequest) []domain.MaintenanceRequest {
	out := make([]domain.MaintenanceRequest, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneLifecycle(l workflow.Lifecycle) workflow.Lifecycle {
	if l.Lease != nil {
		lease := *l.Lease
		l.Lease = &lease
	}
	return l
}
