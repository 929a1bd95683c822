package service

import (
	"fmt"
	"net/url"

	"neela-data/internal/aggregator"
	"neela-data/internal/config"
	"neela-data/internal/domain"
	"neela-data/internal/search"
)

// View 控制台页面（封闭集合）
type View interface {
	Name() string
	isView()
}

type DashboardView struct{}

type TenantsView struct {
	Tab search.TenantTab
}

type MaintenanceView struct {
	Query search.TicketQuery
}

type SettingsView struct{}

type PaymentsView struct{}

type LegalView struct{}

func (DashboardView) Name() string   { return "dashboard" }
func (TenantsView) Name() string     { return "tenants" }
func (MaintenanceView) Name() string { return "maintenance" }
func (SettingsView) Name() string    { return "settings" }
func (PaymentsView) Name() string    { return "payments" }
func (LegalView) Name() string       { return "legal" }

func (DashboardView) isView()   {}
func (TenantsView) isView()     {}
func (MaintenanceView) isView() {}
func (SettingsView) isView()    {}
func (PaymentsView) isView()    {}
func (LegalView) isView()       {}

// ParseView 页面名 + 查询参数；未知页面返回 ErrValidation
func ParseView(name string, params url.Values) (View, error) {
	switch name {
	case "dashboard":
		return DashboardView{}, nil
	case "tenants":
		tab := search.TenantTab(params.Get("tab"))
		switch tab {
		case "":
			tab = search.TabResidents
		case search.TabResidents, search.TabApplicants:
		default:
			return nil, fmt.Errorf("%w: unknown tenants tab %q", ErrValidation, tab)
		}
		return TenantsView{Tab: tab}, nil
	case "maintenance":
		return MaintenanceView{Query: search.TicketQuery{
			Text:     params.Get("q"),
			Status:   params.Get("status"),
			Priority: params.Get("priority"),
		}}, nil
	case "settings":
		return SettingsView{}, nil
	case "payments":
		return PaymentsView{}, nil
	case "legal":
		return LegalView{}, nil
	}
	return nil, fmt.Errorf("%w: unknown view %q", ErrValidation, name)
}

// DashboardPayload 仪表盘页面
type DashboardPayload struct {
	aggregator.Dashboard
	RecentTickets []TicketItem `json:"recentTickets"`
}

// TenantsPayload 住户页面
type TenantsPayload struct {
	Tab            search.TenantTab `json:"tab"`
	Tenants        []domain.Tenant  `json:"tenants"`
	ResidentCount  int              `json:"residentCount"`
	ApplicantCount int              `json:"applicantCount"`
}

// LegalPayload Legal & Compliance 页面
type LegalPayload struct {
	ActionRequired []aggregator.OverdueTenant `json:"actionRequired"`
	Documents      []domain.LegalDocument     `json:"documents"`
	NoticeTypes    []domain.LegalDocumentType `json:"noticeTypes"`
}

const recentTicketLimit = 5

// Views 按页面组装数据
type Views struct {
	dashboard   *DashboardService
	applicants  *ApplicantService
	maintenance *MaintenanceService
	legal       *LegalService
	settings    config.Settings
}

func NewViews(dashboard *DashboardService, applicants *ApplicantService, maintenance *MaintenanceService, legal *LegalService, settings config.Settings) *Views {
	return &Views{dashboard: dashboard, applicants: applicants, maintenance: maintenance, legal: legal, settings: settings}
}

func (v *Views) Render(view View) (any, error) {
	switch vw := view.(type) {
	case DashboardView:
		recent := v.maintenance.List(search.TicketQuery{})
		if len(recent) > recentTicketLimit {
			recent = recent[:recentTicketLimit]
		}
		return DashboardPayload{Dashboard: v.dashboard.Summary(), RecentTickets: recent}, nil
	case TenantsView:
		return TenantsPayload{
			Tab:            vw.Tab,
			Tenants:        v.applicants.ListTenants(search.TenantQuery{Tab: vw.Tab}),
			ResidentCount:  len(v.applicants.ListTenants(search.TenantQuery{Tab: search.TabResidents})),
			ApplicantCount: len(v.applicants.ListTenants(search.TenantQuery{Tab: search.TabApplicants})),
		}, nil
	case MaintenanceView:
		return v.maintenance.List(vw.Query), nil
	case SettingsView:
		return v.settings, nil
	case PaymentsView:
		return v.dashboard.PaymentsOverview(), nil
	case LegalView:
		return LegalPayload{
			ActionRequired: v.legal.OverdueTenants(),
			Documents:      v.legal.Documents(),
			NoticeTypes:    domain.LegalDocumentTypes,
		}, nil
	}
	return nil, fmt.Errorf("%w: unhandled view %T", ErrValidation, view)
}
