package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentOrder records a buyer's request to promote a listing. PackageName,
// Amount and Duration are copies taken from the catalog when the order is
// created and are never re-derived.
type PaymentOrder struct {
	ID          string  `gorm:"primaryKey;size:36"`
	PackageID   string  `gorm:"column:package_id;size:64;not null"`
	PackageName string  `gorm:"column:package_name;size:120;not null"`
	Amount      float64 `gorm:"not null"`
	Duration    string  `gorm:"size:32;not null"`

	CustomerUID   string `gorm:"column:customer_uid;size:128;index"`
	CustomerName  string `gorm:"column:customer_name;size:120;not null"`
	CustomerPhone string `gorm:"column:customer_phone;size:32"`
	CustomerEmail string `gorm:"column:customer_email;size:255;index;not null"`

	AdvertisementID string `gorm:"column:advertisement_id;size:36"`
	Notes           string `gorm:"type:text"`

	ReceiptURL      string   `gorm:"column:receipt_url;size:1024"`
	ReceiptUploaded bool     `gorm:"column:receipt_uploaded;not null;default:false"`
	DetectedAmount  *float64 `gorm:"column:detected_amount"`

	Status     string `gorm:"size:32;index;not null"`
	AdminNotes string `gorm:"column:admin_notes;type:text"`

	PromotionListingID string `gorm:"column:promotion_listing_id;size:36"`
	PromotionMessage   string `gorm:"column:promotion_message;size:512"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

func (o *PaymentOrder) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (o *PaymentOrder) CurrentStatus() Status {
	return NormalizeStatus(o.Status)
}
