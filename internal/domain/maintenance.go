package domain

import "strings"

// TicketStatus 工单状态
type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

// TicketStatuses 固定展示顺序
var TicketStatuses = []TicketStatus{TicketOpen, TicketInProgress, TicketResolved, TicketClosed}

// Valid 是否为已知状态
func (s TicketStatus) Valid() bool {
	for _, v := range TicketStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority 工单优先级
type Priority string

const (
	PriorityLow       Priority = "Low"
	PriorityMedium    Priority = "Medium"
	PriorityHigh      Priority = "High"
	PriorityEmergency Priority = "Emergency"
)

// DefaultPriority 未指定 / 分诊失败时使用
const DefaultPriority = PriorityMedium

// ParsePriority 大小写不敏感
func ParsePriority(s string) (Priority, bool) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency} {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Author 工单更新的作者
type Author string

const (
	AuthorTenant  Author = "Tenant"
	AuthorManager Author = "Manager"
	AuthorSystem  Author = "System"
)

// Valid 是否为已知作者
func (a Author) Valid() bool {
	return a == AuthorTenant || a == AuthorManager || a == AuthorSystem
}

// TicketUpdate 工单日志条目（只追加）
type TicketUpdate struct {
	Date    Date   `json:"date"`
	Message string `json:"message"`
	Author  Author `json:"author"`
}

// Attachment 完工凭证
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MaintenanceRequest 维修工单
type MaintenanceRequest struct {
	ID                    string         `json:"id"`
	TenantID              string         `json:"tenantId"`
	Category              string         `json:"category"`
	Description           string         `json:"description"`
	Status                TicketStatus   `json:"status"`
	Priority              Priority       `json:"priority"`
	CreatedAt             Date           `json:"createdAt"`
	AssignedTo            string         `json:"assignedTo,omitempty"`
	Images                []string       `json:"images,omitempty"`
	Updates               []TicketUpdate `json:"updates"`
	CompletionAttachments []Attachment   `json:"completionAttachments,omitempty"`
}

// Clone 深拷贝
func (m MaintenanceRequest) Clone() MaintenanceRequest {
	out := m
	out.Images = append([]string(nil), m.Images...)
	out.Updates = append([]TicketUpdate(nil), m.Updates...)
	out.CompletionAttachments = append([]Attachment(nil), m.CompletionAttachments...)
	return out
}

// TriageSuggestion 分类服务返回的建议
type TriageSuggestion struct {
	Priority   Priority `json:"priority"`
	VendorType string   `json:"vendorType"`
	Summary    string   `json:"summary"`
}
