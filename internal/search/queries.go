package search

import (
	"neela-data/internal/domain"
)

// TicketQuery 维修列表的过滤条件
type TicketQuery struct {
	Text     string `json:"q"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// FilterTickets 文本匹配 description / category / 关联住户姓名
func FilterTickets(tickets []domain.MaintenanceRequest, tenantNames map[string]string, q TicketQuery) []domain.MaintenanceRequest {
	return Filter(tickets,
		Text(q.Text,
			func(m domain.MaintenanceRequest) string { return m.Description },
			func(m domain.MaintenanceRequest) string { return m.Category },
			func(m domain.MaintenanceRequest) string { return tenantNames[m.TenantID] },
		),
		Equals(q.Status, func(m domain.MaintenanceRequest) string { return string(m.Status) }),
		Equals(q.Priority, func(m domain.MaintenanceRequest) string { return string(m.Priority) }),
	)
}

// TenantTab 住户页的两个 tab
type TenantTab string

const (
	TabResidents  TenantTab = "residents"
	TabApplicants TenantTab = "applicants"
)

// TenantQuery 住户列表的过滤条件
type TenantQuery struct {
	Text   string    `json:"q"`
	Status string    `json:"status"`
	Tab    TenantTab `json:"tab"`
}

// FilterTenants 文本匹配 name / email / unit；Tab 为空表示不按 tab 拆分
func FilterTenants(tenants []domain.Tenant, q TenantQuery) []domain.Tenant {
	var tab Predicate[domain.Tenant]
	switch q.Tab {
	case TabResidents:
		tab = func(t domain.Tenant) bool { return t.Status != domain.TenantStatusApplicant }
	case TabApplicants:
		tab = func(t domain.Tenant) bool { return t.Status == domain.TenantStatusApplicant }
	}
	return Filter(tenants,
		tab,
		Text(q.Text,
			func(t domain.Tenant) string { return t.Name },
			func(t domain.Tenant) string { return t.Email },
			func(t domain.Tenant) string { return t.PropertyUnit },
		),
		Equals(q.Status, func(t domain.Tenant) string { return string(t.Status) }),
	)
}
