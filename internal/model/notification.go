package model

import "time"

const (
	NotificationListingApproved  = "listing_approved"
	NotificationListingRejected  = "listing_rejected"
	NotificationPromotionApplied = "promotion_applied"
)

type Notification struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement"`
	UserUID        string     `gorm:"column:user_uid;size:128;index;not null"`
	Type           string     `gorm:"column:type;size:64;not null"`
	Title          string     `gorm:"column:title;size:255"`
	Body           string     `gorm:"column:body;type:text"`
	ListingID      *string    `gorm:"column:listing_id;size:36;index"`
	PaymentOrderID *string    `gorm:"column:payment_order_id;size:36;index"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
