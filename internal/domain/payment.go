package domain

import (
	"github.com/shopspring/decimal"
)

// PaymentStatus 付款状态
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
	PaymentFailed  PaymentStatus = "Failed"
)

// Payment 付款记录（创建后不可修改）
type Payment struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	Status    PaymentStatus   `json:"status"`
	Type      string          `json:"type"` // Rent / Late Fee / Deposit / Application Fee
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// InvoiceStatus 账单状态（由数据源给出，本地不重算）
type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "Paid"
	InvoicePending InvoiceStatus = "Pending"
	InvoiceOverdue InvoiceStatus = "Overdue"
)

// Invoice 账单
type Invoice struct {
	ID       string          `json:"id"`
	TenantID string          `json:"tenantId"`
	Date     Date            `json:"date"`
	DueDate  Date            `json:"dueDate"`
	Amount   decimal.Decimal `json:"amount"`
	Period   string          `json:"period"`
	Status   InvoiceStatus   `json:"status"`
	Items    []InvoiceItem   `json:"items,omitempty"`
}

type InvoiceItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ManualPaymentMethod 线下付款方式
type ManualPaymentMethod string

const (
	ManualPersonalCheck ManualPaymentMethod = "Personal Check"
	ManualCashiersCheck ManualPaymentMethod = "Cashier's Check"
	ManualCash          ManualPaymentMethod = "Cash"
	ManualMoneyOrder    ManualPaymentMethod = "Money Order"
)

// Valid 是否为已知方式
func (m ManualPaymentMethod) Valid() bool {
	switch m {
	case ManualPersonalCheck, ManualCashiersCheck, ManualCash, ManualMoneyOrder:
		return true
	}
	return false
}

// ClaimStatus 线下付款申报状态
type ClaimStatus string

const ClaimUnverified ClaimStatus = "Unverified"

// PaymentClaim 住户自报的线下付款；员工核实前不改余额
type PaymentClaim struct {
	ID           string              `json:"id"`
	TenantID     string              `json:"tenantId"`
	Amount       decimal.Decimal     `json:"amount"`
	Method       ManualPaymentMethod `json:"method"`
	Reference    string              `json:"reference,omitempty"`
	HandedOverOn Date                `json:"handedOverOn"`
	Status       ClaimStatus         `json:"status"`
	SubmittedAt  Date                `json:"submittedAt"`
}
