package model

import (
	"slices"
	"time"
)

type Package struct {
	ID        string   `gorm:"primaryKey;size:64"`
	Name      string   `gorm:"size:120;not null"`
	Price     float64  `gorm:"not null"`
	Duration  string   `gorm:"size:32;not null"`
	Features  []string `gorm:"serializer:json;type:json"`
	IsActive  bool     `gorm:"column:is_active;not null;default:true"`
	IsPopular bool     `gorm:"column:is_popular;not null;default:false"`
	Color     string   `gorm:"size:32"`
	Icon      string   `gorm:"size:32"`
	SortOrder int      `gorm:"column:sort_order;not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Package) TableName() string {
	return "promotion_packages"
}

const (
	PackageBasic   = "basic"
	PackagePremium = "premium"
	PackageVIP     = "vip"
)

var (
	basicFeatures = []string{
		"ظهور مميز في نتائج البحث",
		"شارة إعلان مميز",
	}
	premiumFeatures = append(slices.Clone(basicFeatures),
		"تثبيت في أعلى القسم",
		"إبراز بلون مختلف",
	)
	vipFeatures = append(slices.Clone(premiumFeatures),
		"عرض في الصفحة الرئيسية",
		"أولوية في الدعم",
		"مشاركة على وسائل التواصل",
	)
)

// DefaultPackages returns fresh copies of the built-in tiers. Each tier's
// features include every feature of the tiers below it.
func DefaultPackages() []Package {
	return []Package{
		{ID: PackageBasic, Name: "الباقة الأساسية", Price: 50, Duration: "7 أيام", Features: slices.Clone(basicFeatures), IsActive: true, Color: "blue", Icon: "star", SortOrder: 1},
		{ID: PackagePremium, Name: "الباقة المميزة", Price: 120, Duration: "14 يوم", Features: slices.Clone(premiumFeatures), IsActive: true, IsPopular: true, Color: "purple", Icon: "crown", SortOrder: 2},
		{ID: PackageVIP, Name: "باقة VIP", Price: 250, Duration: "30 يوم", Features: slices.Clone(vipFeatures), IsActive: true, Color: "gold", Icon: "gem", SortOrder: 3},
	}
}

// DefaultPackage returns the built-in tier with the given id.
func DefaultPackage(id string) (Package, bool) {
	for _, p := range DefaultPackages() {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
