package service

import (
	"time"

	"neela-data/internal/aggregator"
	"neela-data/internal/domain"
	"neela-data/internal/store"

	"github.com/shopspring/decimal"
)

// DashboardService 每次请求都从当前集合重新计算
type DashboardService struct {
	session *store.Session
	now     func() time.Time
}

func NewDashboardService(session *store.Session) *DashboardService {
	return &DashboardService{session: session, now: time.Now}
}

func (s *DashboardService) Summary() aggregator.Dashboard {
	snap := s.session.Snapshot()
	return aggregator.Summarize(snap.Tenants, snap.Payments, snap.Tickets, snap.Invoices, s.now())
}

// PaymentsOverview 付款页面：付款、账单、线下付款申报
type PaymentsOverview struct {
	MonthlyRevenue     decimal.Decimal       `json:"monthlyRevenue"`
	OutstandingBalance decimal.Decimal       `json:"outstandingBalance"`
	Payments           []domain.Payment      `json:"payments"`
	Invoices           []domain.Invoice      `json:"invoices"`
	Claims             []domain.PaymentClaim `json:"claims"`
	// 数据源仍为 Pending 但已过期的账单，仅提示
	PastDueHints []domain.Invoice `json:"pastDueHints"`
}

func (s *DashboardService) PaymentsOverview() PaymentsOverview {
	snap := s.session.Snapshot()
	out := PaymentsOverview{
		MonthlyRevenue:     aggregator.MonthlyRevenue(snap.Payments),
		OutstandingBalance: aggregator.OutstandingBalance(snap.Tenants),
		Payments:           nonNil(snap.Payments),
		Invoices:           nonNil(snap.Invoices),
		Claims:             nonNil(snap.Claims),
		PastDueHints:       nonNil(aggregator.OverdueInvoices(snap.Invoices, s.now())),
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Payments 付款记录（员工端）
func (s *DashboardService) Payments() []domain.Payment {
	return s.session.Payments()
}
