// Package aggregator 计算仪表盘 KPI。
// 全部是纯函数：输入是当前实体集合，空集合得到零值，不会返回错误。
package aggregator

import (
	"math"
	"time"

	"neela-data/internal/domain"

	"github.com/shopspring/decimal"
)

// MonthlyRevenue 已支付（Paid）的付款总额
func MonthlyRevenue(payments []domain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == domain.PaymentPaid {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// OutstandingBalance 所有住户余额之和；负余额按 0 计
func OutstandingBalance(tenants []domain.Tenant) decimal.Decimal {
	total := decimal.Zero
	for _, t := range tenants {
		if t.Balance.IsPositive() {
			total = total.Add(t.Balance)
		}
	}
	return total
}

// OccupancyRate round(100 * Active / 全部)，空集合为 0
func OccupancyRate(tenants []domain.Tenant) int {
	if len(tenants) == 0 {
		return 0
	}
	active := 0
	for _, t := range tenants {
		if t.Status == domain.TenantStatusActive {
			active++
		}
	}
	return int(math.Round(float64(active) * 100 / float64(len(tenants))))
}

// OpenTicketCount status != Resolved 的工单数。
// Closed 也算 open，沿用现有口径。
func OpenTicketCount(tickets []domain.MaintenanceRequest) int {
	n := 0
	for _, m := range tickets {
		if m.Status != domain.TicketResolved {
			n++
		}
	}
	return n
}

// PendingApplicantCount status = Applicant 的人数
func PendingApplicantCount(tenants []domain.Tenant) int {
	n := 0
	for _, t := range tenants {
		if t.Status == domain.TenantStatusApplicant {
			n++
		}
	}
	return n
}

// StatusCount 饼图数据
type StatusCount struct {
	Status domain.TicketStatus `json:"name"`
	Count  int                 `json:"value"`
}

// TicketBreakdown 按固定顺序统计每个状态的工单数（包括 0）
func TicketBreakdown(tickets []domain.MaintenanceRequest) []StatusCount {
	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, m := range tickets {
		counts[m.Status]++
	}
	out := make([]StatusCount, 0, len(domain.TicketStatuses))
	for _, s := range domain.TicketStatuses {
		out = append(out, StatusCount{Status: s, Count: counts[s]})
	}
	return out
}

// OverdueInvoices 已过到期日但数据源仍标记为 Pending 的账单。
// 只做提示，不改写 status。
func OverdueInvoices(invoices []domain.Invoice, now time.Time) []domain.Invoice {
	today := domain.NewDate(now)
	var out []domain.Invoice
	for _, inv := range invoices {
		if inv.Status == domain.InvoicePending && !inv.DueDate.IsZero() && inv.DueDate.Before(today.Time) {
			out = append(out, inv)
		}
	}
	return out
}

// OverdueTenant 仪表盘 Action Required 列表项
type OverdueTenant struct {
	TenantID     string          `json:"tenantId"`
	Name         string          `json:"name"`
	PropertyUnit string          `json:"propertyUnit"`
	Balance      decimal.Decimal `json:"balance"`
}

// OverdueTenants 余额 > 0 的住户，保持原顺序
func OverdueTenants(tenants []domain.Tenant) []OverdueTenant {
	out := []OverdueTenant{}
	for _, t := range tenants {
		if t.Balance.IsPositive() {
			out = append(out, OverdueTenant{TenantID: t.ID, Name: t.Name, PropertyUnit: t.PropertyUnit, Balance: t.Balance})
		}
	}
	return out
}

// Dashboard 仪表盘汇总
type Dashboard struct {
	MonthlyRevenue        decimal.Decimal `json:"monthlyRevenue"`
	OutstandingBalance    decimal.Decimal `json:"outstandingBalance"`
	OccupancyRate         int             `json:"occupancyRate"`
	OpenTickets           int             `json:"openTickets"`
	PendingApplicants     int             `json:"pendingApplicants"`
	HasNewApplications    bool            `json:"hasNewApplications"`
	TicketBreakdown       []StatusCount   `json:"ticketBreakdown"`
	UnflaggedOverdueCount int             `json:"unflaggedOverdueCount"`
	ActionRequired        []OverdueTenant `json:"actionRequired"`
}

// Summarize 一次性计算全部 KPI
func Summarize(tenants []domain.Tenant, payments []domain.Payment, tickets []domain.MaintenanceRequest, invoices []domain.Invoice, now time.Time) Dashboard {
	pending := PendingApplicantCount(tenants)
	return Dashboard{
		MonthlyRevenue:        MonthlyRevenue(payments),
		OutstandingBalance:    OutstandingBalance(tenants),
		OccupancyRate:         OccupancyRate(tenants),
		OpenTickets:           OpenTicketCount(tickets),
		PendingApplicants:     pending,
		HasNewApplications:    pending > 0,
		TicketBreakdown:       TicketBreakdown(tickets),
		UnflaggedOverdueCount: len(OverdueInvoices(invoices, now)),
		ActionRequired:        OverdueTenants(tenants),
	}
}
