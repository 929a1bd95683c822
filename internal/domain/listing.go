package domain

import (
	"github.com/shopspring/decimal"
)

// Listing 公开房源（只读参考数据）
type Listing struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Address     string          `json:"address"`
	Price       decimal.Decimal `json:"price"`
	Beds        int             `json:"beds"`
	Baths       decimal.Decimal `json:"baths"`
	Sqft        int             `json:"sqft"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Amenities   []string        `json:"amenities"`
}

// NotificationType 通知类别
type NotificationType string

const (
	NotificationRent        NotificationType = "Rent"
	NotificationMaintenance NotificationType = "Maintenance"
	NotificationSystem      NotificationType = "System"
)

// Notification 发给住户的通知
type Notification struct {
	ID       string           `json:"id"`
	TenantID string           `json:"tenantId"`
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Date     Date             `json:"date"`
	Read     bool             `json:"read"`
}
