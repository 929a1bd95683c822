package domain

// LeaseStatus 租约文档状态
type LeaseStatus string

const (
	LeaseDraft  LeaseStatus = "Draft"
	LeaseSent   LeaseStatus = "Sent"
	LeaseSigned LeaseStatus = "Signed"
	// LeaseVoided 已撤回的信封，不能再签署
	LeaseVoided LeaseStatus = "Voided"
)

// Lease 生成的租约（不持久化，随申请流程存在）
type Lease struct {
	ApplicantID string      `json:"applicantId"`
	TemplateID  string      `json:"templateId"`
	Body        string      `json:"body"`
	Status      LeaseStatus `json:"status"`
	EnvelopeID  string      `json:"envelopeId,omitempty"`
}
