package domain

import (
	"github.com/shopspring/decimal"
)

// TenantStatus 住户/申请人状态
type TenantStatus string

const (
	TenantStatusApplicant       TenantStatus = "Applicant"
	TenantStatusApproved        TenantStatus = "Approved"
	TenantStatusActive          TenantStatus = "Active"
	TenantStatusEvictionPending TenantStatus = "Eviction Pending"
	TenantStatusFormer          TenantStatus = "Former"
)

// NormalizeTenantStatus 兼容后端旧值（"Past" -> Former, "EvictionPending" -> Eviction Pending）
func NormalizeTenantStatus(s string) (TenantStatus, bool) {
	switch s {
	case "Applicant":
		return TenantStatusApplicant, true
	case "Approved":
		return TenantStatusApproved, true
	case "Active":
		return TenantStatusActive, true
	case "Eviction Pending", "EvictionPending":
		return TenantStatusEvictionPending, true
	case "Former", "Past":
		return TenantStatusFormer, true
	}
	return "", false
}

// BackgroundCheckStatus 背调结果
type BackgroundCheckStatus string

const (
	BackgroundPending BackgroundCheckStatus = "Pending"
	BackgroundClear   BackgroundCheckStatus = "Clear"
	BackgroundFlagged BackgroundCheckStatus = "Flagged"
)

// Valid 是否为已知状态
func (s BackgroundCheckStatus) Valid() bool {
	switch s {
	case BackgroundPending, BackgroundClear, BackgroundFlagged:
		return true
	}
	return false
}

// Tenant 住户/申请人（对应 tenants 表）
type Tenant struct {
	ID                    string                `json:"id"`
	Name                  string                `json:"name"`
	Email                 string                `json:"email"`
	Phone                 string                `json:"phone"`
	Status                TenantStatus          `json:"status"`
	PropertyUnit          string                `json:"propertyUnit"`
	LeaseStart            Date                  `json:"leaseStart"`
	LeaseEnd              Date                  `json:"leaseEnd"`
	RentAmount            decimal.Decimal       `json:"rentAmount"`
	Deposit               decimal.Decimal       `json:"deposit"`
	Balance               decimal.Decimal       `json:"balance"` // 正数 = 欠款
	CreditScore           *int                  `json:"creditScore"`
	BackgroundCheckStatus BackgroundCheckStatus `json:"backgroundCheckStatus"`
	ApplicationData       *ApplicationData      `json:"applicationData,omitempty"`
	LeaseStatus           LeaseStatus           `json:"leaseStatus,omitempty"`
	SignedLeaseURL        string                `json:"signedLeaseUrl,omitempty"`
}

// ApplicationData 申请资料；InternalNotes 仅员工可见
type ApplicationData struct {
	SubmissionDate Date        `json:"submissionDate"`
	ListingID      string      `json:"listingId,omitempty"`
	Employment     Employment  `json:"employment"`
	References     []Reference `json:"references"`
	Documents      []Document  `json:"documents"`
	InternalNotes  string      `json:"internalNotes"`
}

type Employment struct {
	Employer      string          `json:"employer"`
	JobTitle      string          `json:"jobTitle"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome"`
	Duration      string          `json:"duration"`
}

type Reference struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

type Document struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// IsApplicant 尚未成为住户（Applicant / Approved）
func (t *Tenant) IsApplicant() bool {
	return t.Status == TenantStatusApplicant || t.Status == TenantStatusApproved
}

// RentToIncomePercent 月租 / 月收入，百分比取整；无收入信息时返回 false
func (t *Tenant) RentToIncomePercent() (int64, bool) {
	if t.ApplicationData == nil || !t.ApplicationData.Employment.MonthlyIncome.IsPositive() {
		return 0, false
	}
	pct := t.RentAmount.Mul(decimal.NewFromInt(100)).Div(t.ApplicationData.Employment.MonthlyIncome)
	return pct.Round(0).IntPart(), true
}

// Clone 深拷贝（reducer 不允许修改入参）
func (t Tenant) Clone() Tenant {
	out := t
	if t.CreditScore != nil {
		score := *t.CreditScore
		out.CreditScore = &score
	}
	if t.ApplicationData != nil {
		ad := *t.ApplicationData
		ad.References = append([]Reference(nil), t.ApplicationData.References...)
		ad.Documents = append([]Document(nil), t.ApplicationData.Documents...)
		out.ApplicationData = &ad
	}
	return out
}
