package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Listing struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"column:user_id;size:128;index;not null"`
	UserEmail string `gorm:"column:user_email;size:255;index:idx_listings_owner_status_created,priority:1"`

	Brand         string   `gorm:"size:64;not null"`
	Model         string   `gorm:"size:64;not null"`
	Year          int      `gorm:"not null"`
	Price         float64  `gorm:"not null"`
	OriginalPrice *float64 `gorm:"column:original_price"`
	Mileage       int      `gorm:"column:mileage"`
	Condition     string   `gorm:"size:32"`
	City          string   `gorm:"size:64"`
	Images        []string `gorm:"serializer:json;type:json"`
	Features      []string `gorm:"serializer:json;type:json"`

	ContactName     string `gorm:"column:contact_name;size:120"`
	ContactPhone    string `gorm:"column:contact_phone;size:32"`
	ContactWhatsApp string `gorm:"column:contact_whatsapp;size:32"`
	Description     string `gorm:"type:text"`

	Status     string `gorm:"size:32;not null;index:idx_listings_owner_status_created,priority:2"`
	AdminNotes string `gorm:"column:admin_notes;type:text"`

	IsPaid                bool       `gorm:"column:is_paid;not null;default:false"`
	PaidPackageID         string     `gorm:"column:paid_package_id;size:64"`
	PaidPackageName       string     `gorm:"column:paid_package_name;size:120"`
	PaidPackageExpiration *time.Time `gorm:"column:paid_package_expiration"`
	PaidFeatures          []string   `gorm:"column:paid_features;serializer:json;type:json"`
	PaidAt                *time.Time `gorm:"column:paid_at"`
	PromotionGeneration   int64      `gorm:"column:promotion_generation;not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_listings_owner_status_created,priority:3"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}

func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// CurrentStatus returns the normalized moderation status.
func (l *Listing) CurrentStatus() Status {
	return NormalizeStatus(l.Status)
}

// PromotionGrant is the set of fields written onto a listing when a package
// is applied.
type PromotionGrant struct {
	PackageID   string
	PackageName string
	Features    []string
	ExpiresAt   time.Time
	GrantedAt   time.Time
}

// Apply overwrites any previous grant.
func (l *Listing) Apply(g PromotionGrant) {
	features := g.Features
	if features == nil {
		features = []string{}
	}
	exp, at := g.ExpiresAt, g.GrantedAt
	l.IsPaid = true
	l.PaidPackageID = g.PackageID
	l.PaidPackageName = g.PackageName
	l.PaidPackageExpiration = &exp
	l.PaidFeatures = features
	l.PaidAt = &at
}

// PromotionConsistent reports whether the promotion fields are either all
// absent or all present.
func (l *Listing) PromotionConsistent() bool {
	if !l.IsPaid {
		return l.PaidPackageID == "" && l.PaidPackageName == "" &&
			l.PaidPackageExpiration == nil && l.PaidFeatures == nil && l.PaidAt == nil
	}
	return l.PaidPackageID != "" && l.PaidPackageName != "" &&
		l.PaidPackageExpiration != nil && l.PaidFeatures != nil && l.PaidAt != nil
}

// PromotionActive reports whether the listing holds an unexpired grant at now.
func (l *Listing) PromotionActive(now time.Time) bool {
	return l.IsPaid && l.PaidPackageExpiration != nil && now.Before(*l.PaidPackageExpiration)
}
