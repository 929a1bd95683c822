package domain

// LegalDocumentType 法律文书类型
type LegalDocumentType string

const (
	LegalLateRentNotice LegalDocumentType = "Late Rent Notice"
	LegalPayOrQuit      LegalDocumentType = "Notice to Pay or Quit"
	LegalLeaseViolation LegalDocumentType = "Lease Violation Notice"
)

// LegalDocumentTypes 固定顺序，供页面下拉使用
var LegalDocumentTypes = []LegalDocumentType{LegalLateRentNotice, LegalPayOrQuit, LegalLeaseViolation}

// RequiresBalance 催租类文书只能发给有欠款的住户
func (t LegalDocumentType) RequiresBalance() bool {
	return t == LegalLateRentNotice || t == LegalPayOrQuit
}

// DeliveryMethod 送达方式
type DeliveryMethod string

const (
	DeliveryEmail         DeliveryMethod = "Email"
	DeliveryCertifiedMail DeliveryMethod = "Certified Mail"
	DeliveryHand          DeliveryMethod = "Hand Delivered"
)

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryEmail, DeliveryCertifiedMail, DeliveryHand:
		return true
	}
	return false
}

// LegalDocumentStatus 文书状态
type LegalDocumentStatus string

const (
	LegalGenerated LegalDocumentStatus = "Generated"
	LegalSent      LegalDocumentStatus = "Sent"
)

// LegalDocument 生成的通知 / 法律文书
type LegalDocument struct {
	ID               string              `json:"id"`
	TenantID         string              `json:"tenantId"`
	Type             LegalDocumentType   `json:"type"`
	GeneratedContent string              `json:"generatedContent"`
	CreatedAt        Date                `json:"createdAt"`
	Status           LegalDocumentStatus `json:"status"`
	DeliveryMethod   DeliveryMethod      `json:"deliveryMethod,omitempty"`
	TrackingNumber   string              `json:"trackingNumber,omitempty"`
}
